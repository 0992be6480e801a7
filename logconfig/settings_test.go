package logconfig

import (
	"testing"

	myLogger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigLogger(t *testing.T) {
	defer ConfigInfoLogger()

	assert.NoError(t, ConfigLogger("debug"))
	assert.Equal(t, myLogger.DebugLevel, myLogger.GetLevel())
	assert.True(t, myLogger.StandardLogger().ReportCaller)

	assert.NoError(t, ConfigLogger(""))
	assert.Equal(t, myLogger.InfoLevel, myLogger.GetLevel())
	assert.False(t, myLogger.StandardLogger().ReportCaller)

	assert.NoError(t, ConfigLogger("production"))
	assert.IsType(t, &myLogger.JSONFormatter{}, myLogger.StandardLogger().Formatter)

	assert.NoError(t, ConfigLogger("warn"))
	assert.Equal(t, myLogger.WarnLevel, myLogger.GetLevel())

	assert.Error(t, ConfigLogger("loud"))
}

package logconfig

import (
	"fmt"
	"strings"

	myLogger "github.com/sirupsen/logrus"
)

// This output format is used in the test (has terminal).
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(terminalFormatter())
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(terminalFormatter())
}

// This output format is used in production.
// Entries are JSON so the exit journal and tx hashes can be grepped by field.
func ConfigProductionLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.JSONFormatter{})
}

// ConfigLogger picks a preset by name: debug, info or production.
// Any other logrus level name keeps the terminal format at that level.
func ConfigLogger(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		ConfigInfoLogger()
	case "debug":
		ConfigDebugLogger()
	case "production", "prod":
		ConfigProductionLogger()
	default:
		lvl, err := myLogger.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("unknown log level %q: %w", level, err)
		}
		ConfigInfoLogger()
		myLogger.SetLevel(lvl)
	}
	return nil
}

func terminalFormatter() *myLogger.TextFormatter {
	return &myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	}
}

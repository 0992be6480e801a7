package exitmanager

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardLifecycle(t *testing.T) {
	ctx := context.Background()
	exit := &Exit{ExitId: big.NewInt(1), Status: Unexited}

	require.NoError(t, advance(ctx, exit, EventStartStandard))
	assert.Equal(t, ExitQueued, exit.Status)

	err := advance(ctx, exit, EventPiggyback)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ExitQueued, exit.Status)

	require.NoError(t, advance(ctx, exit, EventProcess))
	assert.Equal(t, ExitProcessed, exit.Status)

	assert.ErrorIs(t, advance(ctx, exit, EventProcess), ErrInvalidTransition)
}

func TestInFlightLifecycle(t *testing.T) {
	ctx := context.Background()
	exit := &Exit{ExitId: big.NewInt(1), Status: Unexited}

	assert.False(t, canAdvance(exit.Status, EventProcess))
	require.NoError(t, advance(ctx, exit, EventStartInFlight))
	assert.Equal(t, InFlightStarted, exit.Status)

	// an in-flight exit only reaches the queue through a piggyback
	assert.False(t, canAdvance(exit.Status, EventProcess))
	require.NoError(t, advance(ctx, exit, EventPiggyback))
	assert.Equal(t, Piggybacked, exit.Status)

	assert.False(t, canAdvance(exit.Status, EventPiggyback))
	require.NoError(t, advance(ctx, exit, EventProcess))
	assert.Equal(t, ExitProcessed, exit.Status)
}

package exitmanager

import (
	"context"
	"database/sql"
	"math/big"
	"testing"

	"github.com/TEENet-io/plasma-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func newTestDB(t *testing.T) *ExitDB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	edb, err := NewExitDB(db)
	require.NoError(t, err)
	t.Cleanup(edb.Close)
	return edb
}

func randExit(status ExitStatus, exitableAt uint64) *Exit {
	idBytes := common.RandBytes32()
	id := new(big.Int).SetBytes(idBytes[:20])
	return &Exit{
		ExitId:      id,
		Kind:        Standard,
		Status:      status,
		Owner:       common.RandEthAddress(),
		Currency:    common.RandEthAddress(),
		UtxoPos:     big.NewInt(1_000_000_000_001),
		TxBytes:     []byte{0xf8, 0x01},
		OutputIndex: 1,
		TxHash:      ethcommon.Hash(common.RandBytes32()),
		ExitableAt:  exitableAt,
	}
}

func TestExitOps(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	exit := randExit(ExitQueued, 100)
	require.NoError(t, db.UpsertExit(ctx, exit))

	got, ok, err := db.GetExit(ctx, exit.ExitId)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, exit, got)

	exit.Status = ExitProcessed
	require.NoError(t, db.UpsertExit(ctx, exit))
	got, ok, err = db.GetExit(ctx, exit.ExitId)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ExitProcessed, got.Status)

	_, ok, err = db.GetExit(ctx, big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = db.GetExit(ctx, nil)
	assert.ErrorIs(t, err, ErrNilExitId)
	assert.ErrorIs(t, db.UpsertExit(ctx, &Exit{}), ErrNilExitId)
}

func TestGetExits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	late := randExit(ExitQueued, 300)
	early := randExit(Piggybacked, 100)
	done := randExit(ExitProcessed, 200)
	done.Owner = early.Owner
	for _, e := range []*Exit{late, early, done} {
		require.NoError(t, db.UpsertExit(ctx, e))
	}

	all, err := db.GetExits(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, early.ExitId, all[0].ExitId)
	assert.Equal(t, done.ExitId, all[1].ExitId)
	assert.Equal(t, late.ExitId, all[2].ExitId)

	pending, err := db.GetExits(ctx, ExitQueued, Piggybacked)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, early.ExitId, pending[0].ExitId)

	owned, err := db.GetExitsByOwner(ctx, early.Owner)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	none, err := db.GetExitsByOwner(ctx, common.RandEthAddress())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExitStatusConstraint(t *testing.T) {
	db := newTestDB(t)
	exit := randExit("finished", 1)
	assert.Error(t, db.UpsertExit(context.Background(), exit))
}

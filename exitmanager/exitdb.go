package exitmanager

import (
	"context"
	"database/sql"
	"errors"
	"math/big"
	"strings"

	"github.com/TEENet-io/plasma-go/common"
	"github.com/TEENet-io/plasma-go/database"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

var ErrNilExitId = errors.New("exit id is nil")

// ExitDB journals the exits started by this client.
type ExitDB struct {
	stmtCache *database.StmtCache
}

func NewExitDB(db *sql.DB) (*ExitDB, error) {
	if _, err := db.Exec(exitsTable); err != nil {
		return nil, err
	}

	return &ExitDB{
		stmtCache: database.NewStmtCache(db),
	}, nil
}

func (db *ExitDB) Close() {
	db.stmtCache.Clear()
}

const selectExit = `SELECT exitId, kind, status, owner, currency, utxoPos, txBytes, outputIndex, txHash, exitableAt FROM exits`

// UpsertExit inserts exit or overwrites the entry with the same exit id.
func (db *ExitDB) UpsertExit(ctx context.Context, exit *Exit) error {
	if exit.ExitId == nil {
		return ErrNilExitId
	}

	query := `INSERT OR REPLACE INTO exits (exitId, kind, status, owner, currency, utxoPos, txBytes, outputIndex, txHash, exitableAt) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.stmtCache.Prepare(ctx, query)
	if err != nil {
		return err
	}

	s := &sqlExit{}
	s.encode(exit)

	_, err = stmt.ExecContext(ctx,
		s.ExitId,
		s.Kind,
		s.Status,
		s.Owner,
		s.Currency,
		s.UtxoPos,
		s.TxBytes,
		s.OutputIndex,
		s.TxHash,
		s.ExitableAt,
	)
	return err
}

func (db *ExitDB) GetExit(ctx context.Context, exitId *big.Int) (*Exit, bool, error) {
	if exitId == nil {
		return nil, false, ErrNilExitId
	}

	stmt, err := db.stmtCache.Prepare(ctx, selectExit+` WHERE exitId = ?`)
	if err != nil {
		return nil, false, err
	}

	exit, err := scanExit(stmt.QueryRowContext(ctx, exitId.String()))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return exit, true, nil
}

// GetExits lists exits, soonest exitable first. With statuses given only
// exits in one of them are returned.
func (db *ExitDB) GetExits(ctx context.Context, statuses ...ExitStatus) ([]*Exit, error) {
	query := selectExit
	args := make([]interface{}, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (?` + strings.Repeat(`, ?`, len(statuses)-1) + `)`
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	query += ` ORDER BY exitableAt, exitId`

	return db.queryExits(ctx, query, args...)
}

func (db *ExitDB) GetExitsByOwner(ctx context.Context, owner ethcommon.Address) ([]*Exit, error) {
	return db.queryExits(ctx, selectExit+` WHERE owner = ? ORDER BY exitableAt, exitId`, common.Trim0xPrefix(owner.Hex()))
}

func (db *ExitDB) queryExits(ctx context.Context, query string, args ...interface{}) ([]*Exit, error) {
	stmt, err := db.stmtCache.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exits := []*Exit{}
	for rows.Next() {
		exit, err := scanExit(rows)
		if err != nil {
			return nil, err
		}
		exits = append(exits, exit)
	}
	return exits, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExit(row scanner) (*Exit, error) {
	var s sqlExit
	if err := row.Scan(
		&s.ExitId,
		&s.Kind,
		&s.Status,
		&s.Owner,
		&s.Currency,
		&s.UtxoPos,
		&s.TxBytes,
		&s.OutputIndex,
		&s.TxHash,
		&s.ExitableAt,
	); err != nil {
		return nil, err
	}
	return s.decode()
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

type EventLogRepo struct {
	db *DB
}

func NewEventLogRepo(db *DB) *EventLogRepo {
	return &EventLogRepo{db: db}
}

// InsertTx writes the raw log row. The composite key doubles as the
// duplicate guard for replayed scan windows: a conflicting insert is
// reported as store.ErrAlreadyProcessed without touching the row.
func (r *EventLogRepo) InsertTx(ctx context.Context, tx *sql.Tx, log *model.EventLog) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO evt_txn_log (block_number, txn_index, log_index, block_time, txn_hash, address, topic_0, topic_1, topic_2, topic_3, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (block_number, txn_index, log_index) DO NOTHING
	`, log.BlockNumber, log.TxnIndex, log.LogIndex, log.BlockTime, log.TxnHash,
		log.Address, log.Topic0, log.Topic1, log.Topic2, log.Topic3, log.Data)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert event log rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrAlreadyProcessed
	}
	return nil
}

func (r *EventLogRepo) InsertLaunchTx(ctx context.Context, tx *sql.Tx, launch *model.LaunchLog) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO evt_token_log (block_number, txn_index, log_index, block_time, txn_hash, token_address, raised_address, pair_address, token_id, init_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, launch.BlockNumber, launch.TxnIndex, launch.LogIndex, launch.BlockTime, launch.TxnHash,
		launch.TokenAddress, launch.RaisedAddress, launch.PairAddress, launch.TokenID, launch.InitPrice)
	if err != nil {
		return fmt.Errorf("insert launch log: %w", err)
	}
	return nil
}

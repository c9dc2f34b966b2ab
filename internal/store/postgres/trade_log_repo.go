package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
)

type TradeLogRepo struct {
	db *DB
}

func NewTradeLogRepo(db *DB) *TradeLogRepo {
	return &TradeLogRepo{db: db}
}

func (r *TradeLogRepo) InsertTx(ctx context.Context, tx *sql.Tx, trade *model.TradeLog) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO evt_trade_log (block_number, txn_index, log_index, block_time, txn_hash, token_address, user_address, trade_type, token0, amount0, token1, amount1, price, price_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, trade.BlockNumber, trade.TxnIndex, trade.LogIndex, trade.BlockTime, trade.TxnHash,
		trade.TokenAddress, trade.UserAddress, trade.TradeType,
		trade.Token0, trade.Amount0, trade.Token1, trade.Amount1,
		trade.Price, trade.PriceToken)
	if err != nil {
		return fmt.Errorf("insert trade log: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
)

type UserPositionRepo struct {
	db *DB
}

func NewUserPositionRepo(db *DB) *UserPositionRepo {
	return &UserPositionRepo{db: db}
}

// UpsertTx overwrites the user's balance with the chain-read amount.
// Last writer wins; the balance is authoritative, not a running delta.
func (r *UserPositionRepo) UpsertTx(ctx context.Context, tx *sql.Tx, p *model.UserPosition) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_summary (user_address, token_address, amount, update_ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_address, token_address) DO UPDATE SET
			amount = EXCLUDED.amount,
			update_ts = EXCLUDED.update_ts
	`, p.UserAddress, p.TokenAddress, p.Amount, p.UpdateTs)
	if err != nil {
		return fmt.Errorf("upsert user position: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

type TokenInfoRepo struct {
	db *DB
}

func NewTokenInfoRepo(db *DB) *TokenInfoRepo {
	return &TokenInfoRepo{db: db}
}

// BindLaunchTx attaches the on-chain addresses to the token_info row that
// was created when the launch was prepared off-chain. The id travels in
// the launch event, so a row that is missing points at a launch this
// deployment does not know about.
func (r *TokenInfoRepo) BindLaunchTx(ctx context.Context, tx *sql.Tx, tokenID int64, tokenAddress, pairAddress string, launchTs int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE token_info SET
			token_address = $2,
			pair_address = $3,
			launch_ts = $4
		WHERE id = $1
	`, tokenID, tokenAddress, pairAddress, launchTs)
	if err != nil {
		return fmt.Errorf("bind launch for token %d: %w", tokenID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bind launch rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkGraduatedTx flips the launched flag once the token leaves the curve.
// launch_ts is overwritten with the graduation block time, matching the
// contract's notion of when public trading opened.
func (r *TokenInfoRepo) MarkGraduatedTx(ctx context.Context, tx *sql.Tx, tokenAddress string, graduatedTs int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE token_info SET
			is_launched = TRUE,
			launch_ts = $2
		WHERE token_address = $1
	`, tokenAddress, graduatedTs)
	if err != nil {
		return fmt.Errorf("mark graduated %s: %w", tokenAddress, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark graduated rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

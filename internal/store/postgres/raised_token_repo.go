package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
)

type RaisedTokenRepo struct {
	db *DB
}

func NewRaisedTokenRepo(db *DB) *RaisedTokenRepo {
	return &RaisedTokenRepo{db: db}
}

func (r *RaisedTokenRepo) List(ctx context.Context) ([]model.RaisedToken, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT address, name, symbol, decimal, icon, oracle, price, create_ts
		FROM raised_token
		ORDER BY create_ts
	`)
	if err != nil {
		return nil, fmt.Errorf("list raised tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.RaisedToken
	for rows.Next() {
		var t model.RaisedToken
		if err := rows.Scan(&t.Address, &t.Name, &t.Symbol, &t.Decimal, &t.Icon, &t.Oracle, &t.Price, &t.CreateTs); err != nil {
			return nil, fmt.Errorf("scan raised token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raised tokens: %w", err)
	}
	return tokens, nil
}

func (r *RaisedTokenRepo) UpdatePriceTx(ctx context.Context, tx *sql.Tx, address string, price decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE raised_token SET price = $2 WHERE address = $1
	`, address, price)
	if err != nil {
		return fmt.Errorf("update raised token price: %w", err)
	}
	return nil
}

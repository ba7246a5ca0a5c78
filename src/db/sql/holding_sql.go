package db

import (
	"context"
	"log"
	"time"

	"networth-server/src/models"
	"networth-server/src/provider"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReplaceHoldings swaps out the current positions for every account present
// in the fetch and appends day-keyed history rows, all in one transaction.
// Holdings for accounts this store has never seen are skipped and logged.
func ReplaceHoldings(ctx context.Context, pool *pgxpool.Pool, holdings []provider.HoldingData, day time.Time) (int, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	byAccount := make(map[string][]provider.HoldingData)
	for _, h := range holdings {
		byAccount[h.AccountID] = append(byAccount[h.AccountID], h)
	}

	updated := 0
	for plaidAccountID, accountHoldings := range byAccount {
		var accountID int64
		err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE plaid_account_id = $1`, plaidAccountID).Scan(&accountID)
		if err == pgx.ErrNoRows {
			log.Printf("ERROR: Skipping holdings for unknown account %s", plaidAccountID)
			continue
		}
		if err != nil {
			return 0, err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM holdings WHERE account_id = $1`, accountID); err != nil {
			return 0, err
		}

		for _, h := range accountHoldings {
			_, err := tx.Exec(ctx, `
				INSERT INTO holdings (account_id, plaid_security_id, symbol, name, quantity, cost_basis, current_price, current_value, currency, as_of_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (account_id, symbol) DO UPDATE SET
					plaid_security_id = EXCLUDED.plaid_security_id,
					name = EXCLUDED.name,
					quantity = EXCLUDED.quantity,
					cost_basis = EXCLUDED.cost_basis,
					current_price = EXCLUDED.current_price,
					current_value = EXCLUDED.current_value,
					as_of_date = EXCLUDED.as_of_date
			`,
				accountID, h.SecurityID, h.Symbol, h.Name, h.Quantity,
				nullDecimal(h.CostBasis), nullDecimal(h.CurrentPrice), nullDecimal(h.CurrentValue),
				h.Currency, day,
			)
			if err != nil {
				return 0, err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO holding_history (account_id, symbol, quantity, current_price, current_value, date)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (account_id, symbol, date) DO UPDATE SET
					quantity = EXCLUDED.quantity,
					current_price = EXCLUDED.current_price,
					current_value = EXCLUDED.current_value
			`, accountID, h.Symbol, h.Quantity, nullDecimal(h.CurrentPrice), nullDecimal(h.CurrentValue), day)
			if err != nil {
				return 0, err
			}
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return updated, nil
}

func GetAllHoldings(ctx context.Context, pool *pgxpool.Pool) ([]models.Holding, error) {
	query := `
		SELECT id, account_id, plaid_security_id, symbol, name, quantity, cost_basis, current_price, current_value, currency, as_of_date
		FROM holdings
		ORDER BY symbol
	`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		var costBasis, currentPrice, currentValue decimal.NullDecimal
		err := rows.Scan(&h.ID, &h.AccountID, &h.PlaidSecurityID, &h.Symbol, &h.Name, &h.Quantity,
			&costBasis, &currentPrice, &currentValue, &h.Currency, &h.AsOfDate)
		if err != nil {
			return nil, err
		}
		if costBasis.Valid {
			h.CostBasis = &costBasis.Decimal
		}
		if currentPrice.Valid {
			h.CurrentPrice = &currentPrice.Decimal
		}
		if currentValue.Valid {
			h.CurrentValue = &currentValue.Decimal
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

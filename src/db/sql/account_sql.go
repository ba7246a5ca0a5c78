package db

import (
	"context"
	"time"

	"networth-server/src/models"
	"networth-server/src/provider"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// UpsertAccounts writes accounts and their day-keyed balance rows in one
// transaction: either every account and balance commits, or none do.
func UpsertAccounts(ctx context.Context, pool *pgxpool.Pool, itemID int64, accounts []provider.AccountData, day time.Time) (int, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	updated := 0
	for _, acc := range accounts {
		query := `
			INSERT INTO accounts (item_id, plaid_account_id, name, official_name, type, subtype, mask, current_balance, available_balance, currency)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (plaid_account_id) DO UPDATE SET
				name = EXCLUDED.name,
				official_name = EXCLUDED.official_name,
				type = EXCLUDED.type,
				subtype = EXCLUDED.subtype,
				mask = EXCLUDED.mask,
				current_balance = EXCLUDED.current_balance,
				available_balance = EXCLUDED.available_balance,
				currency = EXCLUDED.currency,
				updated_at = NOW()
			RETURNING id
		`
		var accountID int64
		err := tx.QueryRow(ctx, query,
			itemID,
			acc.AccountID,
			acc.Name,
			acc.OfficialName,
			acc.Type,
			acc.Subtype,
			acc.Mask,
			acc.CurrentBalance,
			nullDecimal(acc.AvailableBalance),
			acc.Currency,
		).Scan(&accountID)
		if err != nil {
			return 0, err
		}

		// One balance row per account per day; intraday re-syncs overwrite.
		balanceQuery := `
			INSERT INTO balance_history (account_id, date, current_balance, available_balance, credit_limit)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (account_id, date) DO UPDATE SET
				current_balance = EXCLUDED.current_balance,
				available_balance = EXCLUDED.available_balance,
				credit_limit = EXCLUDED.credit_limit
		`
		_, err = tx.Exec(ctx, balanceQuery,
			accountID,
			day,
			acc.CurrentBalance,
			nullDecimal(acc.AvailableBalance),
			nullDecimal(acc.CreditLimit),
		)
		if err != nil {
			return 0, err
		}
		updated++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return updated, nil
}

func GetAllAccounts(ctx context.Context, pool *pgxpool.Pool) ([]models.Account, error) {
	query := `
		SELECT a.id, a.item_id, a.plaid_account_id, a.name, a.official_name, a.type, a.subtype, a.mask,
		       a.current_balance, a.available_balance, a.currency, p.institution_name, a.created_at, a.updated_at
		FROM accounts a
		JOIN plaid_items p ON a.item_id = p.id
		WHERE p.status <> 'revoked'
		ORDER BY a.id
	`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		var available decimal.NullDecimal
		err := rows.Scan(&account.ID, &account.ItemID, &account.PlaidAccountID, &account.Name, &account.OfficialName,
			&account.Type, &account.Subtype, &account.Mask, &account.CurrentBalance, &available,
			&account.Currency, &account.InstitutionName, &account.CreatedAt, &account.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if available.Valid {
			account.AvailableBalance = &available.Decimal
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func GetBalanceHistory(ctx context.Context, pool *pgxpool.Pool, accountID int64, days int) ([]models.BalanceHistory, error) {
	start := time.Now().AddDate(0, 0, -days)
	query := `
		SELECT id, account_id, date, current_balance, available_balance, credit_limit
		FROM balance_history
		WHERE account_id = $1 AND date >= $2
		ORDER BY date
	`
	rows, err := pool.Query(ctx, query, accountID, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.BalanceHistory
	for rows.Next() {
		var entry models.BalanceHistory
		var available, limit decimal.NullDecimal
		err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Date, &entry.CurrentBalance, &available, &limit)
		if err != nil {
			return nil, err
		}
		if available.Valid {
			entry.AvailableBalance = &available.Decimal
		}
		if limit.Valid {
			entry.CreditLimit = &limit.Decimal
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"networth-server/src/models"
	"networth-server/src/provider"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplyTransactionsDelta applies one accumulated change-stream window and its
// final cursor in a single transaction. The cursor only advances if every
// add, modification and removal in the window commits with it.
//
// Records referencing accounts this store has never seen are skipped and
// logged rather than failing the batch. tiers carries the initial
// classification per external transaction id.
func ApplyTransactionsDelta(ctx context.Context, pool *pgxpool.Pool, itemID int64, delta provider.TransactionsDelta, tiers map[string]models.Tier, cursor string) (added, updated, removed int, err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	defer tx.Rollback(ctx)

	upsert := func(txn provider.TransactionData) (bool, error) {
		tier := tiers[txn.TransactionID]
		if tier == "" {
			tier = models.TierDiscretionary
		}
		query := `
			INSERT INTO transactions (account_id, plaid_transaction_id, date, amount, merchant_name, description, category, category_detailed, tier, pending)
			SELECT a.id, $2, $3, $4, $5, $6, $7, $8, $9, $10
			FROM accounts a
			WHERE a.plaid_account_id = $1
			ON CONFLICT (plaid_transaction_id) DO UPDATE SET
				date = EXCLUDED.date,
				amount = EXCLUDED.amount,
				merchant_name = EXCLUDED.merchant_name,
				description = EXCLUDED.description,
				category = EXCLUDED.category,
				category_detailed = EXCLUDED.category_detailed,
				tier = EXCLUDED.tier,
				pending = EXCLUDED.pending,
				updated_at = NOW()
		`
		tag, err := tx.Exec(ctx, query,
			txn.AccountID,
			txn.TransactionID,
			txn.Date,
			txn.Amount,
			txn.MerchantName,
			txn.Description,
			txn.Category,
			txn.CategoryDetailed,
			string(tier),
			txn.Pending,
		)
		if err != nil {
			return false, err
		}
		if tag.RowsAffected() == 0 {
			log.Printf("ERROR: Skipping transaction %s for unknown account %s", txn.TransactionID, txn.AccountID)
			return false, nil
		}
		return true, nil
	}

	for _, txn := range delta.Added {
		ok, err := upsert(txn)
		if err != nil {
			return 0, 0, 0, err
		}
		if ok {
			added++
		}
	}
	for _, txn := range delta.Modified {
		ok, err := upsert(txn)
		if err != nil {
			return 0, 0, 0, err
		}
		if ok {
			updated++
		}
	}

	if len(delta.Removed) > 0 {
		tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE plaid_transaction_id = ANY($1)`, delta.Removed)
		if err != nil {
			return 0, 0, 0, err
		}
		removed = int(tag.RowsAffected())
	}

	if _, err := tx.Exec(ctx, `UPDATE plaid_items SET sync_cursor = $1, updated_at = NOW() WHERE id = $2`, cursor, itemID); err != nil {
		return 0, 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, 0, err
	}
	return added, updated, removed, nil
}

// TransactionFilter narrows GetTransactions. Zero values mean "no filter"
// except Year/Month, which the handlers default to the current month.
type TransactionFilter struct {
	Year          int
	Month         time.Month
	Category      string
	FrivolousOnly bool
}

func GetTransactions(ctx context.Context, pool *pgxpool.Pool, filter TransactionFilter) ([]models.Transaction, error) {
	start := time.Date(filter.Year, filter.Month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `
		SELECT id, account_id, plaid_transaction_id, date, amount, merchant_name, description, category, category_detailed, tier, pending, created_at, updated_at
		FROM transactions
		WHERE date >= $1 AND date < $2
	`
	args := []interface{}{start, end}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.FrivolousOnly {
		args = append(args, string(models.TierFrivolous))
		query += fmt.Sprintf(" AND tier = $%d", len(args))
	}
	query += " ORDER BY date, id"

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func GetTransactionsForMonth(ctx context.Context, pool *pgxpool.Pool, year int, month time.Month) ([]models.Transaction, error) {
	return GetTransactions(ctx, pool, TransactionFilter{Year: year, Month: month})
}

func scanTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	var transactions []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		var tier string
		err := rows.Scan(&txn.ID, &txn.AccountID, &txn.PlaidTransactionID, &txn.Date, &txn.Amount,
			&txn.MerchantName, &txn.Description, &txn.Category, &txn.CategoryDetailed, &tier,
			&txn.Pending, &txn.CreatedAt, &txn.UpdatedAt)
		if err != nil {
			return nil, err
		}
		txn.Tier = models.Tier(tier)
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

// UpdateTransactionTiers persists a re-classification as one transaction.
func UpdateTransactionTiers(ctx context.Context, pool *pgxpool.Pool, changes map[int64]models.Tier) error {
	if len(changes) == 0 {
		return nil
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for id, tier := range changes {
		if _, err := tx.Exec(ctx, `UPDATE transactions SET tier = $1, updated_at = NOW() WHERE id = $2`, string(tier), id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

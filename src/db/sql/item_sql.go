package db

import (
	"context"
	"time"

	"networth-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func SavePlaidItem(ctx context.Context, pool *pgxpool.Pool, plaidItemID, sealedToken, institutionID, institutionName string) (int64, error) {
	query := `
		INSERT INTO plaid_items (plaid_item_id, access_token, institution_id, institution_name, status)
		VALUES ($1, $2, $3, $4, 'active')
		ON CONFLICT (plaid_item_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			institution_id = EXCLUDED.institution_id,
			institution_name = EXCLUDED.institution_name,
			status = 'active',
			updated_at = NOW()
		RETURNING id
	`
	var id int64
	err := pool.QueryRow(ctx, query, plaidItemID, sealedToken, institutionID, institutionName).Scan(&id)
	return id, err
}

func GetActiveItems(ctx context.Context, pool *pgxpool.Pool) ([]models.PlaidItem, error) {
	return queryItems(ctx, pool, `
		SELECT id, plaid_item_id, access_token, institution_id, institution_name, sync_cursor, status, last_successful_sync, created_at
		FROM plaid_items WHERE status = 'active'
		ORDER BY id
	`)
}

func GetAllItems(ctx context.Context, pool *pgxpool.Pool) ([]models.PlaidItem, error) {
	return queryItems(ctx, pool, `
		SELECT id, plaid_item_id, access_token, institution_id, institution_name, sync_cursor, status, last_successful_sync, created_at
		FROM plaid_items
		ORDER BY id
	`)
}

func queryItems(ctx context.Context, pool *pgxpool.Pool, query string) ([]models.PlaidItem, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.PlaidItem
	for rows.Next() {
		var item models.PlaidItem
		err := rows.Scan(&item.ID, &item.PlaidItemID, &item.AccessToken, &item.InstitutionID, &item.InstitutionName, &item.SyncCursor, &item.Status, &item.LastSuccessfulSync, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func GetItemByID(ctx context.Context, pool *pgxpool.Pool, itemID int64) (*models.PlaidItem, error) {
	query := `
		SELECT id, plaid_item_id, access_token, institution_id, institution_name, sync_cursor, status, last_successful_sync, created_at
		FROM plaid_items WHERE id = $1
	`
	var item models.PlaidItem
	err := pool.QueryRow(ctx, query, itemID).Scan(&item.ID, &item.PlaidItemID, &item.AccessToken, &item.InstitutionID, &item.InstitutionName, &item.SyncCursor, &item.Status, &item.LastSuccessfulSync, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func GetItemByPlaidID(ctx context.Context, pool *pgxpool.Pool, plaidItemID string) (*models.PlaidItem, error) {
	query := `
		SELECT id, plaid_item_id, access_token, institution_id, institution_name, sync_cursor, status, last_successful_sync, created_at
		FROM plaid_items WHERE plaid_item_id = $1
	`
	var item models.PlaidItem
	err := pool.QueryRow(ctx, query, plaidItemID).Scan(&item.ID, &item.PlaidItemID, &item.AccessToken, &item.InstitutionID, &item.InstitutionName, &item.SyncCursor, &item.Status, &item.LastSuccessfulSync, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func SetItemStatus(ctx context.Context, pool *pgxpool.Pool, itemID int64, status string) error {
	query := `UPDATE plaid_items SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := pool.Exec(ctx, query, status, itemID)
	return err
}

func MarkItemSynced(ctx context.Context, pool *pgxpool.Pool, itemID int64, syncedAt time.Time) error {
	query := `
		UPDATE plaid_items
		SET status = 'active', last_successful_sync = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := pool.Exec(ctx, query, syncedAt, itemID)
	return err
}

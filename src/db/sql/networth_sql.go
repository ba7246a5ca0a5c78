package db

import (
	"context"
	"time"

	"networth-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UpsertNetWorthSnapshot writes the one snapshot row for the snapshot's
// date; re-running the same day replaces the values in place.
func UpsertNetWorthSnapshot(ctx context.Context, pool *pgxpool.Pool, snap *models.NetWorthSnapshot) error {
	query := `
		INSERT INTO net_worth_history (date, total_cash, total_investments, total_assets, total_liabilities, net_worth)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date) DO UPDATE SET
			total_cash = EXCLUDED.total_cash,
			total_investments = EXCLUDED.total_investments,
			total_assets = EXCLUDED.total_assets,
			total_liabilities = EXCLUDED.total_liabilities,
			net_worth = EXCLUDED.net_worth
	`
	_, err := pool.Exec(ctx, query, snap.Date, snap.TotalCash, snap.TotalInvestments, snap.TotalAssets, snap.TotalLiabilities, snap.NetWorth)
	return err
}

func GetNetWorthHistory(ctx context.Context, pool *pgxpool.Pool, days int) ([]models.NetWorthSnapshot, error) {
	start := time.Now().AddDate(0, 0, -days)
	query := `
		SELECT date, total_cash, total_investments, total_assets, total_liabilities, net_worth
		FROM net_worth_history
		WHERE date >= $1
		ORDER BY date
	`
	rows, err := pool.Query(ctx, query, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.NetWorthSnapshot
	for rows.Next() {
		var snap models.NetWorthSnapshot
		err := rows.Scan(&snap.Date, &snap.TotalCash, &snap.TotalInvestments, &snap.TotalAssets, &snap.TotalLiabilities, &snap.NetWorth)
		if err != nil {
			return nil, err
		}
		history = append(history, snap)
	}
	return history, rows.Err()
}

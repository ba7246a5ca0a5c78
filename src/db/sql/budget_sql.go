package db

import (
	"context"
	"fmt"

	"networth-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// UpsertMainBudget writes the single wallet-wide budget. The partial unique
// index on is_main guarantees at most one ever exists.
func UpsertMainBudget(ctx context.Context, pool *pgxpool.Pool, monthlyLimit decimal.Decimal) (*models.Budget, error) {
	if monthlyLimit.Sign() <= 0 {
		return nil, fmt.Errorf("monthly limit must be positive")
	}
	query := `
		INSERT INTO budgets (category, monthly_limit, is_main)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (is_main) WHERE is_main DO UPDATE SET
			monthly_limit = EXCLUDED.monthly_limit,
			updated_at = NOW()
		RETURNING id, category, monthly_limit, is_main, created_at, updated_at
	`
	var b models.Budget
	err := pool.QueryRow(ctx, query, models.MainBudgetCategory, monthlyLimit).
		Scan(&b.ID, &b.Category, &b.MonthlyLimit, &b.IsMain, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpsertCategoryBudget writes a per-category budget; at most one per category.
func UpsertCategoryBudget(ctx context.Context, pool *pgxpool.Pool, category string, monthlyLimit decimal.Decimal) (*models.Budget, error) {
	if category == "" || category == models.MainBudgetCategory {
		return nil, fmt.Errorf("invalid budget category %q", category)
	}
	if monthlyLimit.Sign() <= 0 {
		return nil, fmt.Errorf("monthly limit must be positive")
	}
	query := `
		INSERT INTO budgets (category, monthly_limit, is_main)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (category) WHERE NOT is_main DO UPDATE SET
			monthly_limit = EXCLUDED.monthly_limit,
			updated_at = NOW()
		RETURNING id, category, monthly_limit, is_main, created_at, updated_at
	`
	var b models.Budget
	err := pool.QueryRow(ctx, query, category, monthlyLimit).
		Scan(&b.ID, &b.Category, &b.MonthlyLimit, &b.IsMain, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func GetAllBudgets(ctx context.Context, pool *pgxpool.Pool) ([]models.Budget, error) {
	query := `
		SELECT id, category, monthly_limit, is_main, created_at, updated_at
		FROM budgets
		ORDER BY is_main DESC, category
	`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		var b models.Budget
		err := rows.Scan(&b.ID, &b.Category, &b.MonthlyLimit, &b.IsMain, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func DeleteBudget(ctx context.Context, pool *pgxpool.Pool, budgetID int64) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, budgetID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("budget not found")
	}
	return nil
}

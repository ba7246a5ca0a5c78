package db

import (
	"context"

	"networth-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Default provider-category nature, seeded once at startup. Users can flip
// individual rows later; seeding never overwrites an existing row.
var defaultDiscretionaryCategories = []string{
	"Food and Drink",
	"Restaurants",
	"Fast Food",
	"Coffee Shop",
	"Entertainment",
	"Recreation",
	"Shopping",
	"Clothing",
	"Electronics",
	"Sporting Goods",
	"Travel",
	"Airlines",
	"Hotels",
	"Bars",
	"Alcohol",
	"Tobacco",
	"Gambling",
	"Personal Care",
	"Gyms and Fitness Centers",
}

var defaultEssentialCategories = []string{
	"Groceries",
	"Supermarkets and Groceries",
	"Rent",
	"Mortgage",
	"Utilities",
	"Gas Stations",
	"Automotive",
	"Insurance",
	"Healthcare",
	"Pharmacy",
	"Medical",
	"Education",
	"Childcare",
	"Government and Non-Profit",
	"Taxes",
	"Bank Fees",
	"Interest",
	"Transfer",
	"Payment",
}

func SeedDefaultCategories(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		INSERT INTO category_config (category, display_name, discretionary)
		VALUES ($1, $1, $2)
		ON CONFLICT (category) DO NOTHING
	`
	for _, cat := range defaultDiscretionaryCategories {
		if _, err := pool.Exec(ctx, query, cat, true); err != nil {
			return err
		}
	}
	for _, cat := range defaultEssentialCategories {
		if _, err := pool.Exec(ctx, query, cat, false); err != nil {
			return err
		}
	}
	return nil
}

func GetAllCategoryConfigs(ctx context.Context, pool *pgxpool.Pool) ([]models.CategoryConfig, error) {
	rows, err := pool.Query(ctx, `SELECT id, category, display_name, discretionary FROM category_config ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []models.CategoryConfig
	for rows.Next() {
		var c models.CategoryConfig
		if err := rows.Scan(&c.ID, &c.Category, &c.DisplayName, &c.Discretionary); err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// GetCategoryConfigs returns category name -> discretionary. Categories
// absent from the map default to discretionary at classification time.
func GetCategoryConfigs(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT category, discretionary FROM category_config`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make(map[string]bool)
	for rows.Next() {
		var category string
		var discretionary bool
		if err := rows.Scan(&category, &discretionary); err != nil {
			return nil, err
		}
		configs[category] = discretionary
	}
	return configs, rows.Err()
}

package engine

import (
	"context"
	"testing"
	"time"

	"networth-server/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func txn(id int64, d int, amount float64, category string) models.Transaction {
	return models.Transaction{
		ID:       id,
		Date:     day(d),
		Amount:   decimal.NewFromFloat(amount),
		Category: category,
	}
}

func mainBudget(limit float64) models.Budget {
	return models.Budget{ID: 1, Category: models.MainBudgetCategory, MonthlyLimit: decimal.NewFromFloat(limit), IsMain: true}
}

func categoryBudget(id int64, category string, limit float64) models.Budget {
	return models.Budget{ID: id, Category: category, MonthlyLimit: decimal.NewFromFloat(limit)}
}

func TestBaseTier(t *testing.T) {
	configs := map[string]bool{
		"Rent":          false,
		"Entertainment": true,
	}

	require.Equal(t, models.TierNecessary, baseTier("Rent", configs))
	require.Equal(t, models.TierDiscretionary, baseTier("Entertainment", configs))
	// Unmapped and empty categories default to discretionary.
	require.Equal(t, models.TierDiscretionary, baseTier("Skydiving", configs))
	require.Equal(t, models.TierDiscretionary, baseTier("", configs))
}

func TestAssignTiersMainBudgetExceeded(t *testing.T) {
	configs := map[string]bool{"Shopping": true}
	budgets := []models.Budget{mainBudget(2000)}

	// 1800 stays within the 2000 limit; the 700 that follows crosses it.
	txns := []models.Transaction{
		txn(1, 5, 1800, "Shopping"),
		txn(2, 10, 700, "Shopping"),
	}

	tiers := assignTiers(txns, budgets, configs)
	require.Equal(t, models.TierDiscretionary, tiers[1])
	require.Equal(t, models.TierFrivolous, tiers[2])
}

func TestAssignTiersDateOrderNotStorageOrder(t *testing.T) {
	configs := map[string]bool{"Shopping": true}
	budgets := []models.Budget{mainBudget(2000)}

	// Same transactions, stored newest first. The later spend is still the
	// one past the limit.
	txns := []models.Transaction{
		txn(2, 10, 700, "Shopping"),
		txn(1, 5, 1800, "Shopping"),
	}

	tiers := assignTiers(txns, budgets, configs)
	require.Equal(t, models.TierDiscretionary, tiers[1])
	require.Equal(t, models.TierFrivolous, tiers[2])
}

func TestAssignTiersEssentialNeverFrivolous(t *testing.T) {
	configs := map[string]bool{"Rent": false, "Shopping": true}
	budgets := []models.Budget{mainBudget(1000)}

	txns := []models.Transaction{
		txn(1, 1, 1500, "Rent"),     // essential, blows the main budget
		txn(2, 2, 100, "Shopping"),  // discretionary past the limit
		txn(3, 3, 2000, "Rent"),     // essential stays necessary regardless
	}

	tiers := assignTiers(txns, budgets, configs)
	require.Equal(t, models.TierNecessary, tiers[1])
	require.Equal(t, models.TierFrivolous, tiers[2])
	require.Equal(t, models.TierNecessary, tiers[3])
}

func TestAssignTiersCategoryBudget(t *testing.T) {
	configs := map[string]bool{"Dining": true, "Shopping": true}
	budgets := []models.Budget{categoryBudget(2, "Dining", 300)}

	txns := []models.Transaction{
		txn(1, 1, 250, "Dining"),
		txn(2, 2, 100, "Dining"),   // category total 350 > 300
		txn(3, 3, 500, "Shopping"), // no budget on this category
	}

	tiers := assignTiers(txns, budgets, configs)
	require.Equal(t, models.TierDiscretionary, tiers[1])
	require.Equal(t, models.TierFrivolous, tiers[2])
	require.Equal(t, models.TierDiscretionary, tiers[3])
}

func TestAssignTiersInflowsIgnored(t *testing.T) {
	configs := map[string]bool{"Shopping": true}
	budgets := []models.Budget{mainBudget(1000)}

	txns := []models.Transaction{
		txn(1, 1, 900, "Shopping"),
		txn(2, 2, -5000, "Income"), // inflow: no budget relief
		txn(3, 3, 200, "Shopping"), // 1100 spent, over the limit
	}

	tiers := assignTiers(txns, budgets, configs)
	require.Equal(t, models.TierDiscretionary, tiers[1])
	require.Equal(t, models.TierDiscretionary, tiers[2])
	require.Equal(t, models.TierFrivolous, tiers[3])
}

func TestAssignTiersIdempotent(t *testing.T) {
	configs := map[string]bool{"Dining": true, "Rent": false}
	budgets := []models.Budget{mainBudget(2000), categoryBudget(2, "Dining", 300)}

	txns := []models.Transaction{
		txn(1, 1, 1200, "Rent"),
		txn(2, 3, 200, "Dining"),
		txn(3, 8, 150, "Dining"),
		txn(4, 20, 900, "Unmapped"),
	}

	first := assignTiers(txns, budgets, configs)
	second := assignTiers(txns, budgets, configs)
	require.Equal(t, first, second)
}

func TestReclassifyScopePersistsOnlyChanges(t *testing.T) {
	store := newMemStore()
	store.configs = map[string]bool{"Dining": true}
	storedTxn(store, 1, 1, 250, "Dining", models.TierDiscretionary)
	storedTxn(store, 2, 2, 100, "Dining", models.TierDiscretionary)

	eng := New(store, nil, nil)

	// A new category budget turns the spend past 300 frivolous.
	store.budgets = []models.Budget{categoryBudget(1, "Dining", 300)}
	changed, err := eng.ReclassifyScope(context.Background(), "Dining", 2026, time.March)
	require.NoError(t, err)
	require.Equal(t, 1, changed)
	require.Equal(t, models.TierFrivolous, store.transactions[string(rune('a'+2))].Tier)

	// Same inputs, second pass: nothing left to change.
	changed, err = eng.ReclassifyScope(context.Background(), "Dining", 2026, time.March)
	require.NoError(t, err)
	require.Zero(t, changed)
}

func TestClassifyUsesMonthContext(t *testing.T) {
	store := newMemStore()
	store.configs = map[string]bool{"Dining": true}
	store.budgets = []models.Budget{mainBudget(2000)}
	storedTxn(store, 1, 5, 1800, "Dining", models.TierDiscretionary)

	eng := New(store, nil, nil)

	// A transaction not yet stored is classified against the month's
	// running totals as if it were.
	candidate := txn(99, 10, 700, "Dining")
	tier, err := eng.Classify(context.Background(), candidate)
	require.NoError(t, err)
	require.Equal(t, models.TierFrivolous, tier)

	small := txn(98, 10, 100, "Dining")
	tier, err = eng.Classify(context.Background(), small)
	require.NoError(t, err)
	require.Equal(t, models.TierDiscretionary, tier)
}

func TestAssignTiersNoBudgets(t *testing.T) {
	configs := map[string]bool{"Shopping": true}

	txns := []models.Transaction{txn(1, 1, 99999, "Shopping")}

	tiers := assignTiers(txns, nil, configs)
	// Without any budget nothing can be exceeded.
	require.Equal(t, models.TierDiscretionary, tiers[1])
}

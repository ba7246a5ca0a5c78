package engine

import (
	"context"
	"testing"
	"time"

	"networth-server/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func storedTxn(s *memStore, id int64, d int, amount float64, category string, tier models.Tier) {
	s.transactions[string(rune('a'+id))] = models.Transaction{
		ID:       id,
		Date:     day(d),
		Amount:   decimal.NewFromFloat(amount),
		Category: category,
		Tier:     tier,
	}
}

func TestBudgetStatusUncappedPercentage(t *testing.T) {
	store := newMemStore()
	store.budgets = []models.Budget{mainBudget(1000), categoryBudget(2, "Dining", 200)}
	storedTxn(store, 1, 1, 900, "Rent", models.TierNecessary)
	storedTxn(store, 2, 2, 300, "Dining", models.TierFrivolous)
	storedTxn(store, 3, 3, -500, "Income", models.TierDiscretionary)

	eng := New(store, nil, nil)
	status, err := eng.BudgetStatus(context.Background(), 2026, time.March)
	require.NoError(t, err)

	// Inflows excluded; essential spend still counts against the main budget.
	require.True(t, status.TotalSpending.Equal(decimal.NewFromInt(1200)))

	require.NotNil(t, status.MainBudget)
	require.True(t, status.MainBudget.Spent.Equal(decimal.NewFromInt(1200)))
	require.True(t, status.MainBudget.Remaining.Equal(decimal.NewFromInt(-200)), "remaining = %s", status.MainBudget.Remaining)
	require.True(t, status.MainBudget.Percentage.Equal(decimal.NewFromInt(120)), "percentage = %s", status.MainBudget.Percentage)

	require.Len(t, status.CategoryBudgets, 1)
	dining := status.CategoryBudgets[0]
	require.Equal(t, "Dining", dining.Category)
	require.True(t, dining.Spent.Equal(decimal.NewFromInt(300)))
	require.True(t, dining.Percentage.Equal(decimal.NewFromInt(150)))
}

func TestBudgetStatusNoMainBudget(t *testing.T) {
	store := newMemStore()
	store.budgets = []models.Budget{categoryBudget(1, "Dining", 200)}
	storedTxn(store, 1, 1, 50, "Dining", models.TierDiscretionary)

	eng := New(store, nil, nil)
	status, err := eng.BudgetStatus(context.Background(), 2026, time.March)
	require.NoError(t, err)
	require.Nil(t, status.MainBudget)
	require.Len(t, status.CategoryBudgets, 1)
	require.True(t, status.CategoryBudgets[0].Remaining.Equal(decimal.NewFromInt(150)))
}

func TestSpendingByCategory(t *testing.T) {
	store := newMemStore()
	storedTxn(store, 1, 1, 900, "Rent", models.TierNecessary)
	storedTxn(store, 2, 2, 120, "Dining", models.TierDiscretionary)
	storedTxn(store, 3, 3, 80, "Dining", models.TierFrivolous)
	storedTxn(store, 4, 4, 60, "", models.TierDiscretionary)
	storedTxn(store, 5, 5, -200, "Income", models.TierDiscretionary)

	eng := New(store, nil, nil)
	spending, err := eng.SpendingByCategory(context.Background(), 2026, time.March)
	require.NoError(t, err)
	require.Len(t, spending, 3)

	// Largest total first.
	require.Equal(t, "Rent", spending[0].Category)
	require.True(t, spending[0].Total.Equal(decimal.NewFromInt(900)))

	require.Equal(t, "Dining", spending[1].Category)
	require.True(t, spending[1].Total.Equal(decimal.NewFromInt(200)))
	require.True(t, spending[1].Frivolous.Equal(decimal.NewFromInt(80)))
	require.True(t, spending[1].Necessary.Equal(decimal.NewFromInt(120)))
	require.Equal(t, 2, spending[1].Count)

	require.Equal(t, UncategorizedCategory, spending[2].Category)
	require.True(t, spending[2].Total.Equal(decimal.NewFromInt(60)))
}

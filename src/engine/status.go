package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"networth-server/src/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BudgetStatus reports month-to-date spend against every budget. Spent sums
// all outflows in scope regardless of tier; percentage is uncapped, so
// values over 100 signal over-budget; remaining may go negative.
func (e *Engine) BudgetStatus(ctx context.Context, year int, month time.Month) (*models.MonthStatus, error) {
	budgets, err := e.store.Budgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	txns, err := e.store.TransactionsForMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("load transactions for %d-%02d: %w", year, month, err)
	}

	totalSpent := decimal.Zero
	categorySpent := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		if txn.Amount.Sign() <= 0 {
			continue
		}
		category := txn.Category
		if category == "" {
			category = UncategorizedCategory
		}
		totalSpent = totalSpent.Add(txn.Amount)
		categorySpent[category] = categorySpent[category].Add(txn.Amount)
	}

	status := &models.MonthStatus{
		CategoryBudgets: []models.BudgetStatus{},
		TotalSpending:   totalSpent,
	}
	for _, budget := range budgets {
		if budget.IsMain {
			s := budgetStatus("", budget.MonthlyLimit, totalSpent)
			status.MainBudget = &s
		} else {
			spent := categorySpent[budget.Category]
			status.CategoryBudgets = append(status.CategoryBudgets, budgetStatus(budget.Category, budget.MonthlyLimit, spent))
		}
	}
	return status, nil
}

func budgetStatus(category string, limit, spent decimal.Decimal) models.BudgetStatus {
	percentage := decimal.Zero
	if limit.Sign() > 0 {
		percentage = spent.Div(limit).Mul(hundred).Round(2)
	}
	return models.BudgetStatus{
		Category:   category,
		Limit:      limit,
		Spent:      spent,
		Remaining:  limit.Sub(spent),
		Percentage: percentage,
	}
}

// SpendingByCategory breaks the month's outflows down per category, split by
// whether the spend was tiered frivolous. Sorted by total, largest first.
func (e *Engine) SpendingByCategory(ctx context.Context, year int, month time.Month) ([]models.CategorySpending, error) {
	txns, err := e.store.TransactionsForMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("load transactions for %d-%02d: %w", year, month, err)
	}

	byCategory := make(map[string]*models.CategorySpending)
	for _, txn := range txns {
		if txn.Amount.Sign() <= 0 {
			continue
		}
		category := txn.Category
		if category == "" {
			category = UncategorizedCategory
		}
		entry, ok := byCategory[category]
		if !ok {
			entry = &models.CategorySpending{Category: category}
			byCategory[category] = entry
		}
		entry.Total = entry.Total.Add(txn.Amount)
		entry.Count++
		if txn.Tier == models.TierFrivolous {
			entry.Frivolous = entry.Frivolous.Add(txn.Amount)
		} else {
			entry.Necessary = entry.Necessary.Add(txn.Amount)
		}
	}

	out := make([]models.CategorySpending, 0, len(byCategory))
	for _, entry := range byCategory {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

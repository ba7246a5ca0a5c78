package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"networth-server/src/models"

	"github.com/shopspring/decimal"
)

// UncategorizedCategory is the bucket for transactions the provider did not
// categorize. It is treated as discretionary: unknown spend can become
// frivolous but is never silently necessary.
const UncategorizedCategory = "Uncategorized"

// baseTier is the budget-independent half of classification: essential
// categories are necessary, everything else (including unmapped categories)
// is discretionary.
func baseTier(category string, discretionary map[string]bool) models.Tier {
	if category == "" {
		return models.TierDiscretionary
	}
	isDiscretionary, known := discretionary[category]
	if known && !isDiscretionary {
		return models.TierNecessary
	}
	return models.TierDiscretionary
}

// assignTiers computes the tier of every transaction in one month. Running
// totals must accumulate in chronological order, not storage order: whether
// a budget is exceeded "as of" a transaction depends on everything spent
// before it. Deterministic and idempotent for fixed inputs.
func assignTiers(txns []models.Transaction, budgets []models.Budget, discretionary map[string]bool) map[int64]models.Tier {
	var mainLimit *decimal.Decimal
	categoryLimits := make(map[string]decimal.Decimal)
	for _, b := range budgets {
		if b.IsMain {
			limit := b.MonthlyLimit
			mainLimit = &limit
		} else {
			categoryLimits[b.Category] = b.MonthlyLimit
		}
	}

	ordered := make([]models.Transaction, len(txns))
	copy(ordered, txns)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].ID < ordered[j].ID
	})

	mainSpent := decimal.Zero
	categorySpent := make(map[string]decimal.Decimal)

	tiers := make(map[int64]models.Tier, len(ordered))
	for _, txn := range ordered {
		category := txn.Category
		if category == "" {
			category = UncategorizedCategory
		}
		tier := baseTier(txn.Category, discretionary)

		// Inflows keep their base tier and never count toward any budget.
		if txn.Amount.Sign() <= 0 {
			tiers[txn.ID] = tier
			continue
		}

		mainSpent = mainSpent.Add(txn.Amount)
		categorySpent[category] = categorySpent[category].Add(txn.Amount)

		if tier == models.TierDiscretionary {
			exceeded := false
			if limit, ok := categoryLimits[category]; ok && categorySpent[category].GreaterThan(limit) {
				exceeded = true
			}
			if mainLimit != nil && mainSpent.GreaterThan(*mainLimit) {
				exceeded = true
			}
			if exceeded {
				tier = models.TierFrivolous
			}
		}
		tiers[txn.ID] = tier
	}
	return tiers
}

// Classify returns the tier one transaction would carry under the current
// budget state. The transaction's month provides the running-total context.
func (e *Engine) Classify(ctx context.Context, txn models.Transaction) (models.Tier, error) {
	monthTxns, err := e.store.TransactionsForMonth(ctx, txn.Date.Year(), txn.Date.Month())
	if err != nil {
		return "", err
	}
	found := false
	for _, t := range monthTxns {
		if t.ID == txn.ID {
			found = true
			break
		}
	}
	if !found {
		monthTxns = append(monthTxns, txn)
	}

	budgets, err := e.store.Budgets(ctx)
	if err != nil {
		return "", err
	}
	configs, err := e.store.CategoryConfigs(ctx)
	if err != nil {
		return "", err
	}

	tiers := assignTiers(monthTxns, budgets, configs)
	tier, ok := tiers[txn.ID]
	if !ok {
		return "", fmt.Errorf("transaction %d not classified", txn.ID)
	}
	return tier, nil
}

// ReclassifyScope re-runs classification for every transaction in the given
// month and persists only the tiers that changed. The scope the triggering
// budget belongs to is accepted for the caller's logging; the whole month is
// recomputed regardless, because a category budget shifts the main running
// total's exceed point too. Running it twice with unchanged inputs is a
// no-op.
func (e *Engine) ReclassifyScope(ctx context.Context, scope string, year int, month time.Month) (int, error) {
	txns, err := e.store.TransactionsForMonth(ctx, year, month)
	if err != nil {
		return 0, fmt.Errorf("load transactions for %d-%02d: %w", year, month, err)
	}
	if len(txns) == 0 {
		return 0, nil
	}

	budgets, err := e.store.Budgets(ctx)
	if err != nil {
		return 0, fmt.Errorf("load budgets: %w", err)
	}
	configs, err := e.store.CategoryConfigs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load category config: %w", err)
	}

	tiers := assignTiers(txns, budgets, configs)

	changes := make(map[int64]models.Tier)
	for _, txn := range txns {
		if tier, ok := tiers[txn.ID]; ok && tier != txn.Tier {
			changes[txn.ID] = tier
		}
	}
	if len(changes) == 0 {
		return 0, nil
	}
	if err := e.store.UpdateTransactionTiers(ctx, changes); err != nil {
		return 0, fmt.Errorf("persist tiers for %d-%02d: %w", year, month, err)
	}
	if scope != "" {
		log.Printf("INFO: Re-classified %d transactions in %d-%02d after %s budget change", len(changes), year, month, scope)
	}
	return len(changes), nil
}

package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"networth-server/src/models"

	"github.com/shopspring/decimal"
)

// computeNetWorth folds current account balances into the snapshot buckets:
// depository balances are cash, investment balances are investments, and
// credit/loan balances owed (negative here) are liabilities. A credit
// account sitting in credit (positive balance, e.g. an overpaid card) counts
// as cash, not as a negative liability.
func computeNetWorth(accounts []models.Account, asOf time.Time) *models.NetWorthSnapshot {
	cash := decimal.Zero
	investments := decimal.Zero
	liabilities := decimal.Zero

	for _, acc := range accounts {
		switch acc.Type {
		case models.AccountTypeDepository:
			cash = cash.Add(acc.CurrentBalance)
		case models.AccountTypeInvestment:
			investments = investments.Add(acc.CurrentBalance)
		case models.AccountTypeCredit, models.AccountTypeLoan:
			if acc.CurrentBalance.Sign() < 0 {
				liabilities = liabilities.Add(acc.CurrentBalance.Neg())
			} else {
				cash = cash.Add(acc.CurrentBalance)
			}
		default:
			log.Printf("ERROR: Account %d has unknown type %q, excluded from net worth", acc.ID, acc.Type)
		}
	}

	assets := cash.Add(investments)
	return &models.NetWorthSnapshot{
		Date:             asOf,
		TotalCash:        cash,
		TotalInvestments: investments,
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		NetWorth:         assets.Sub(liabilities),
	}
}

// CurrentNetWorth computes the breakdown from live account state without
// writing a snapshot.
func (e *Engine) CurrentNetWorth(ctx context.Context) (*models.NetWorthSnapshot, error) {
	accounts, err := e.store.ActiveAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	return computeNetWorth(accounts, e.today()), nil
}

// RecomputeNetWorth derives the snapshot for asOf from current account
// balances and upserts the one row keyed by that date. Pure function of
// account state plus the date: calling it twice leaves one unchanged row.
func (e *Engine) RecomputeNetWorth(ctx context.Context, asOf time.Time) (*models.NetWorthSnapshot, error) {
	accounts, err := e.store.ActiveAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	snap := computeNetWorth(accounts, asOf)
	if err := e.store.UpsertNetWorthSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("upsert snapshot for %s: %w", asOf.Format("2006-01-02"), err)
	}
	return snap, nil
}

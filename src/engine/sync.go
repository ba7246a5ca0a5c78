package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"networth-server/src/models"
	"networth-server/src/provider"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SyncItem runs one full incremental sync for an item: accounts and
// balances, then holdings, then the transaction change-stream. Concurrent
// calls for the same item share a single flight. Stage failures are
// item-scoped: whatever committed before the failure stays committed, and
// the transaction cursor only moves with its window.
func (e *Engine) SyncItem(ctx context.Context, itemID int64) (*models.SyncResult, error) {
	v, err, _ := e.group.Do(strconv.FormatInt(itemID, 10), func() (interface{}, error) {
		return e.syncItem(ctx, itemID)
	})
	if v == nil {
		return nil, err
	}
	return v.(*models.SyncResult), err
}

func (e *Engine) syncItem(ctx context.Context, itemID int64) (*models.SyncResult, error) {
	item, err := e.store.ItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", itemID, err)
	}
	if item.Status == models.ItemStatusRevoked {
		return nil, fmt.Errorf("item %d is revoked", itemID)
	}

	token, err := e.openToken(item.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("open access token for item %d: %w", itemID, err)
	}

	result := &models.SyncResult{ItemID: item.ID, InstitutionName: item.InstitutionName}
	day := e.today()

	// Accounts and balances. A terminal failure here means the credential
	// is unusable, so the later stages are not attempted.
	var accounts []provider.AccountData
	err = e.withRetry(ctx, "fetch_accounts", func() error {
		var fetchErr error
		accounts, fetchErr = e.gateway.FetchAccounts(ctx, token)
		return fetchErr
	})
	if err != nil {
		return result, e.stageFailed(ctx, item, result, "accounts", err)
	}
	result.AccountsUpdated, err = e.store.UpsertAccounts(ctx, item.ID, accounts, day)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("store accounts: %v", err))
		return result, fmt.Errorf("store accounts for item %d: %w", item.ID, err)
	}

	// Holdings. Items without investment accounts are normal; any other
	// failure is recorded but does not block transaction sync.
	var holdings []provider.HoldingData
	err = e.withRetry(ctx, "fetch_holdings", func() error {
		var fetchErr error
		holdings, fetchErr = e.gateway.FetchHoldings(ctx, token)
		return fetchErr
	})
	switch {
	case err == provider.ErrNoInvestments:
		// nothing to do
	case err != nil:
		log.Printf("ERROR: Holdings sync failed for item %d: %v", item.ID, err)
		result.Errors = append(result.Errors, fmt.Sprintf("holdings: %v", err))
	default:
		result.HoldingsUpdated, err = e.store.ReplaceHoldings(ctx, holdings, day)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("store holdings: %v", err))
			return result, fmt.Errorf("store holdings for item %d: %w", item.ID, err)
		}
	}

	// Transactions: pull the whole change-stream window before applying
	// anything, then commit the window and its final cursor as one unit.
	delta, cursor, err := e.fetchTransactionWindow(ctx, token, item.SyncCursor)
	if err != nil {
		return result, e.stageFailed(ctx, item, result, "transactions", err)
	}
	if !delta.Empty() || cursor != item.SyncCursor {
		tiers, err := e.initialTiers(ctx, delta)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("load category config: %v", err))
			return result, err
		}
		result.TransactionsAdded, result.TransactionsUpdated, result.TransactionsRemoved, err =
			e.store.ApplyTransactionsDelta(ctx, item.ID, delta, tiers, cursor)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("store transactions: %v", err))
			return result, fmt.Errorf("store transactions for item %d: %w", item.ID, err)
		}
	}

	if err := e.store.MarkItemSynced(ctx, item.ID, e.now()); err != nil {
		log.Printf("ERROR: Failed to mark item %d synced: %v", item.ID, err)
	}

	// Hand freshly ingested months to the classifier so every new
	// transaction carries a budget-consistent tier.
	for _, ym := range monthsTouched(delta) {
		if _, err := e.ReclassifyScope(ctx, "", ym.year, ym.month); err != nil {
			log.Printf("ERROR: Re-classification failed for %d-%02d after item %d sync: %v", ym.year, ym.month, item.ID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("reclassify %d-%02d: %v", ym.year, ym.month, err))
		}
	}

	log.Printf("INFO: Synced item %d (%s): %d accounts, %d holdings, +%d/~%d/-%d transactions",
		item.ID, item.InstitutionName, result.AccountsUpdated, result.HoldingsUpdated,
		result.TransactionsAdded, result.TransactionsUpdated, result.TransactionsRemoved)
	return result, nil
}

// fetchTransactionWindow pages through the change-stream until has_more is
// false. A failure mid-window discards the partial window so the stored
// cursor is never advanced past data that was not applied.
func (e *Engine) fetchTransactionWindow(ctx context.Context, token, cursor string) (provider.TransactionsDelta, string, error) {
	var delta provider.TransactionsDelta
	next := cursor
	for {
		var page provider.TransactionsPage
		err := e.withRetry(ctx, "fetch_transactions", func() error {
			var fetchErr error
			page, fetchErr = e.gateway.FetchTransactions(ctx, token, next)
			return fetchErr
		})
		if err != nil {
			return provider.TransactionsDelta{}, cursor, err
		}
		delta.Merge(page)
		next = page.NextCursor
		if !page.HasMore {
			return delta, next, nil
		}
	}
}

// initialTiers computes the budget-independent base tier for each incoming
// transaction; the per-month re-scan upgrades discretionary spend to
// frivolous where budgets are exceeded.
func (e *Engine) initialTiers(ctx context.Context, delta provider.TransactionsDelta) (map[string]models.Tier, error) {
	configs, err := e.store.CategoryConfigs(ctx)
	if err != nil {
		return nil, err
	}
	tiers := make(map[string]models.Tier, len(delta.Added)+len(delta.Modified))
	for _, txn := range delta.Added {
		tiers[txn.TransactionID] = baseTier(txn.Category, configs)
	}
	for _, txn := range delta.Modified {
		tiers[txn.TransactionID] = baseTier(txn.Category, configs)
	}
	return tiers, nil
}

func (e *Engine) stageFailed(ctx context.Context, item *models.PlaidItem, result *models.SyncResult, stage string, err error) error {
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", stage, err))
	if provider.IsTerminal(err) {
		log.Printf("ERROR: Terminal provider error for item %d during %s, marking errored: %v", item.ID, stage, err)
		if statusErr := e.store.SetItemStatus(ctx, item.ID, models.ItemStatusError); statusErr != nil {
			log.Printf("ERROR: Failed to mark item %d errored: %v", item.ID, statusErr)
		}
	} else {
		log.Printf("ERROR: Provider error for item %d during %s (will retry next sync): %v", item.ID, stage, err)
	}
	return fmt.Errorf("sync item %d %s: %w", item.ID, stage, err)
}

// withRetry retries transient provider errors with doubling backoff.
// Terminal and validation errors return immediately.
func (e *Engine) withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := e.retryBase
	var err error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		err = fn()
		if err == nil || !provider.IsTransient(err) {
			return err
		}
		if attempt == e.maxAttempts {
			break
		}
		log.Printf("ERROR: Transient error on %s (attempt %d/%d), retrying in %s: %v", op, attempt, e.maxAttempts, backoff, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

// SyncAll syncs every active item. Items run concurrently under a bounded
// group; one item's failure never aborts the others. The report carries one
// result per item, errors included.
func (e *Engine) SyncAll(ctx context.Context) (*models.SyncReport, error) {
	items, err := e.store.ActiveItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active items: %w", err)
	}

	report := &models.SyncReport{
		RunID:     uuid.NewString(),
		StartedAt: e.now(),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrentItems)
	for _, item := range items {
		item := item
		g.Go(func() error {
			result, err := e.SyncItem(gctx, item.ID)
			if result == nil {
				result = &models.SyncResult{ItemID: item.ID, InstitutionName: item.InstitutionName}
				if err != nil {
					result.Errors = append(result.Errors, err.Error())
				}
			}
			mu.Lock()
			report.Items = append(report.Items, *result)
			mu.Unlock()
			// Per-item errors live in the result; returning nil keeps the
			// group running for the remaining items.
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Items, func(i, j int) bool { return report.Items[i].ItemID < report.Items[j].ItemID })
	report.FinishedAt = e.now()
	return report, nil
}

// RunDailyRefresh is the scheduler entry point: sync everything, snapshot
// net worth for today, and re-scan the current month's classification.
// Every write is keyed by calendar date, so invoking it twice on the same
// day is a no-op beyond re-fetching current data.
func (e *Engine) RunDailyRefresh(ctx context.Context) (*models.SyncReport, error) {
	report, err := e.SyncAll(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := e.RecomputeNetWorth(ctx, e.today()); err != nil {
		return report, fmt.Errorf("recompute net worth: %w", err)
	}

	now := e.now().UTC()
	if _, err := e.ReclassifyScope(ctx, "", now.Year(), now.Month()); err != nil {
		return report, fmt.Errorf("reclassify current month: %w", err)
	}
	return report, nil
}

type yearMonth struct {
	year  int
	month time.Month
}

func monthsTouched(delta provider.TransactionsDelta) []yearMonth {
	seen := make(map[yearMonth]struct{})
	for _, txn := range delta.Added {
		seen[yearMonth{txn.Date.Year(), txn.Date.Month()}] = struct{}{}
	}
	for _, txn := range delta.Modified {
		seen[yearMonth{txn.Date.Year(), txn.Date.Month()}] = struct{}{}
	}
	months := make([]yearMonth, 0, len(seen))
	for ym := range seen {
		months = append(months, ym)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})
	return months
}

// Package engine is the aggregation and classification core: it orchestrates
// incremental provider syncs, derives daily net-worth snapshots, and keeps
// the three-tier spending classification consistent with budget state.
package engine

import (
	"context"
	"time"

	"networth-server/src/models"
	"networth-server/src/provider"

	"golang.org/x/sync/singleflight"
)

// Store is everything the engine needs from persistent storage. The pgx
// implementation lives in src/db; tests use an in-memory fake.
type Store interface {
	ActiveItems(ctx context.Context) ([]models.PlaidItem, error)
	ItemByID(ctx context.Context, itemID int64) (*models.PlaidItem, error)
	SetItemStatus(ctx context.Context, itemID int64, status string) error
	MarkItemSynced(ctx context.Context, itemID int64, syncedAt time.Time) error

	// UpsertAccounts applies accounts plus their day-keyed balance rows
	// atomically and returns how many accounts were written.
	UpsertAccounts(ctx context.Context, itemID int64, accounts []provider.AccountData, day time.Time) (int, error)

	// ReplaceHoldings applies current positions plus day-keyed history rows
	// atomically.
	ReplaceHoldings(ctx context.Context, holdings []provider.HoldingData, day time.Time) (int, error)

	// ApplyTransactionsDelta applies a full change-stream window and its
	// final cursor atomically: on error nothing, including the cursor, may
	// have moved.
	ApplyTransactionsDelta(ctx context.Context, itemID int64, delta provider.TransactionsDelta, tiers map[string]models.Tier, cursor string) (added, updated, removed int, err error)

	ActiveAccounts(ctx context.Context) ([]models.Account, error)
	TransactionsForMonth(ctx context.Context, year int, month time.Month) ([]models.Transaction, error)
	UpdateTransactionTiers(ctx context.Context, changes map[int64]models.Tier) error
	Budgets(ctx context.Context) ([]models.Budget, error)
	CategoryConfigs(ctx context.Context) (map[string]bool, error)
	UpsertNetWorthSnapshot(ctx context.Context, snap *models.NetWorthSnapshot) error
}

// TokenOpener unseals access tokens read from storage. Nil means tokens are
// stored in the clear (tests only).
type TokenOpener interface {
	Open(sealed string) (string, error)
}

type Engine struct {
	store   Store
	gateway provider.Gateway
	opener  TokenOpener

	// group serializes syncs per item: cursor advancement is not safely
	// parallelizable, so concurrent triggers for the same item share one
	// flight. Different items sync concurrently.
	group singleflight.Group

	maxConcurrentItems int
	maxAttempts        int
	retryBase          time.Duration
	now                func() time.Time
}

type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRetry overrides the transient-error retry policy.
func WithRetry(attempts int, base time.Duration) Option {
	return func(e *Engine) {
		e.maxAttempts = attempts
		e.retryBase = base
	}
}

func New(store Store, gateway provider.Gateway, opener TokenOpener, opts ...Option) *Engine {
	e := &Engine{
		store:              store,
		gateway:            gateway,
		opener:             opener,
		maxConcurrentItems: 4,
		maxAttempts:        3,
		retryBase:          time.Second,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) openToken(sealed string) (string, error) {
	if e.opener == nil {
		return sealed, nil
	}
	return e.opener.Open(sealed)
}

// today returns the engine clock's date truncated to midnight UTC, the
// idempotency key for balance history and net-worth snapshots.
func (e *Engine) today() time.Time {
	t := e.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

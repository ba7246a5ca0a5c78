package db

import (
	"context"
	"time"

	sqldb "networth-server/src/db/sql"
	"networth-server/src/models"
	"networth-server/src/provider"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store adapts the pool-backed SQL layer to the engine's storage interface.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

func (s *Store) ActiveItems(ctx context.Context) ([]models.PlaidItem, error) {
	return sqldb.GetActiveItems(ctx, s.Pool)
}

func (s *Store) ItemByID(ctx context.Context, itemID int64) (*models.PlaidItem, error) {
	return sqldb.GetItemByID(ctx, s.Pool, itemID)
}

func (s *Store) SetItemStatus(ctx context.Context, itemID int64, status string) error {
	return sqldb.SetItemStatus(ctx, s.Pool, itemID, status)
}

func (s *Store) MarkItemSynced(ctx context.Context, itemID int64, syncedAt time.Time) error {
	return sqldb.MarkItemSynced(ctx, s.Pool, itemID, syncedAt)
}

func (s *Store) UpsertAccounts(ctx context.Context, itemID int64, accounts []provider.AccountData, day time.Time) (int, error) {
	return sqldb.UpsertAccounts(ctx, s.Pool, itemID, accounts, day)
}

func (s *Store) ReplaceHoldings(ctx context.Context, holdings []provider.HoldingData, day time.Time) (int, error) {
	return sqldb.ReplaceHoldings(ctx, s.Pool, holdings, day)
}

func (s *Store) ApplyTransactionsDelta(ctx context.Context, itemID int64, delta provider.TransactionsDelta, tiers map[string]models.Tier, cursor string) (int, int, int, error) {
	return sqldb.ApplyTransactionsDelta(ctx, s.Pool, itemID, delta, tiers, cursor)
}

func (s *Store) ActiveAccounts(ctx context.Context) ([]models.Account, error) {
	return sqldb.GetAllAccounts(ctx, s.Pool)
}

func (s *Store) TransactionsForMonth(ctx context.Context, year int, month time.Month) ([]models.Transaction, error) {
	return sqldb.GetTransactionsForMonth(ctx, s.Pool, year, month)
}

func (s *Store) UpdateTransactionTiers(ctx context.Context, changes map[int64]models.Tier) error {
	return sqldb.UpdateTransactionTiers(ctx, s.Pool, changes)
}

func (s *Store) Budgets(ctx context.Context) ([]models.Budget, error) {
	return sqldb.GetAllBudgets(ctx, s.Pool)
}

func (s *Store) CategoryConfigs(ctx context.Context) (map[string]bool, error) {
	return sqldb.GetCategoryConfigs(ctx, s.Pool)
}

func (s *Store) UpsertNetWorthSnapshot(ctx context.Context, snap *models.NetWorthSnapshot) error {
	return sqldb.UpsertNetWorthSnapshot(ctx, s.Pool, snap)
}

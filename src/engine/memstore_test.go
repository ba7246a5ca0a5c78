package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"networth-server/src/models"
	"networth-server/src/provider"
)

// memStore is the in-memory Store used by engine tests.
type memStore struct {
	mu sync.Mutex

	items        map[int64]*models.PlaidItem
	accounts     []models.Account
	transactions map[string]models.Transaction // keyed by provider transaction id
	budgets      []models.Budget
	configs      map[string]bool
	snapshots    map[time.Time]*models.NetWorthSnapshot

	nextTxnID     int64
	nextAccountID int64
	applyErr      error // injected ApplyTransactionsDelta failure
}

func newMemStore() *memStore {
	return &memStore{
		items:        make(map[int64]*models.PlaidItem),
		transactions: make(map[string]models.Transaction),
		configs:      make(map[string]bool),
		snapshots:    make(map[time.Time]*models.NetWorthSnapshot),
	}
}

func (s *memStore) addItem(id int64, token, cursor string) {
	s.items[id] = &models.PlaidItem{
		ID:          id,
		AccessToken: token,
		SyncCursor:  cursor,
		Status:      models.ItemStatusActive,
	}
}

func (s *memStore) ActiveItems(ctx context.Context) ([]models.PlaidItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PlaidItem
	for _, item := range s.items {
		if item.Status != models.ItemStatusRevoked {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *memStore) ItemByID(ctx context.Context, itemID int64) (*models.PlaidItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %d not found", itemID)
	}
	copied := *item
	return &copied, nil
}

func (s *memStore) SetItemStatus(ctx context.Context, itemID int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[itemID].Status = status
	return nil
}

func (s *memStore) MarkItemSynced(ctx context.Context, itemID int64, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[itemID].LastSuccessfulSync = &syncedAt
	s.items[itemID].Status = models.ItemStatusActive
	return nil
}

func (s *memStore) UpsertAccounts(ctx context.Context, itemID int64, accounts []provider.AccountData, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range accounts {
		found := false
		for i := range s.accounts {
			if s.accounts[i].PlaidAccountID == acc.AccountID {
				s.accounts[i].Name = acc.Name
				s.accounts[i].Type = acc.Type
				s.accounts[i].CurrentBalance = acc.CurrentBalance
				found = true
				break
			}
		}
		if found {
			continue
		}
		s.nextAccountID++
		s.accounts = append(s.accounts, models.Account{
			ID:             s.nextAccountID,
			ItemID:         itemID,
			PlaidAccountID: acc.AccountID,
			Name:           acc.Name,
			Type:           acc.Type,
			CurrentBalance: acc.CurrentBalance,
		})
	}
	return len(accounts), nil
}

func (s *memStore) ReplaceHoldings(ctx context.Context, holdings []provider.HoldingData, day time.Time) (int, error) {
	return len(holdings), nil
}

func (s *memStore) ApplyTransactionsDelta(ctx context.Context, itemID int64, delta provider.TransactionsDelta, tiers map[string]models.Tier, cursor string) (int, int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return 0, 0, 0, s.applyErr
	}

	var added, updated, removed int
	for _, txn := range delta.Added {
		s.nextTxnID++
		s.transactions[txn.TransactionID] = models.Transaction{
			ID:                 s.nextTxnID,
			PlaidTransactionID: txn.TransactionID,
			Date:               txn.Date,
			Amount:             txn.Amount,
			Category:           txn.Category,
			Tier:               tiers[txn.TransactionID],
		}
		added++
	}
	for _, txn := range delta.Modified {
		existing, ok := s.transactions[txn.TransactionID]
		if !ok {
			continue
		}
		existing.Date = txn.Date
		existing.Amount = txn.Amount
		existing.Category = txn.Category
		existing.Tier = tiers[txn.TransactionID]
		s.transactions[txn.TransactionID] = existing
		updated++
	}
	for _, id := range delta.Removed {
		if _, ok := s.transactions[id]; ok {
			delete(s.transactions, id)
			removed++
		}
	}
	s.items[itemID].SyncCursor = cursor
	return added, updated, removed, nil
}

func (s *memStore) ActiveAccounts(ctx context.Context) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts, nil
}

func (s *memStore) TransactionsForMonth(ctx context.Context, year int, month time.Month) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, txn := range s.transactions {
		if txn.Date.Year() == year && txn.Date.Month() == month {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (s *memStore) UpdateTransactionTiers(ctx context.Context, changes map[int64]models.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, txn := range s.transactions {
		if tier, ok := changes[txn.ID]; ok {
			txn.Tier = tier
			s.transactions[key] = txn
		}
	}
	return nil
}

func (s *memStore) Budgets(ctx context.Context) ([]models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgets, nil
}

func (s *memStore) CategoryConfigs(ctx context.Context) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configs, nil
}

func (s *memStore) UpsertNetWorthSnapshot(ctx context.Context, snap *models.NetWorthSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Date] = snap
	return nil
}

func (s *memStore) cursor(itemID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[itemID].SyncCursor
}

func (s *memStore) status(itemID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[itemID].Status
}

// fakeGateway scripts provider responses per access token.
type fakeGateway struct {
	mu sync.Mutex

	accounts    map[string][]provider.AccountData
	accountsErr map[string]error
	holdings    map[string][]provider.HoldingData
	holdingsErr map[string]error
	pages       map[string][]provider.TransactionsPage // token -> ordered pages
	pageErrAt   map[string]int                         // token -> page index that fails
	pageErr     error

	accountCalls map[string]int
	pageIdx      map[string]int

	accountsGate chan struct{} // when set, FetchAccounts blocks until closed
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		accounts:     make(map[string][]provider.AccountData),
		accountsErr:  make(map[string]error),
		holdings:     make(map[string][]provider.HoldingData),
		holdingsErr:  make(map[string]error),
		pages:        make(map[string][]provider.TransactionsPage),
		pageErrAt:    make(map[string]int),
		accountCalls: make(map[string]int),
		pageIdx:      make(map[string]int),
	}
}

func (g *fakeGateway) ExchangePublicToken(ctx context.Context, publicToken string) (provider.Credential, error) {
	return provider.Credential{AccessToken: "access-" + publicToken}, nil
}

func (g *fakeGateway) FetchAccounts(ctx context.Context, token string) ([]provider.AccountData, error) {
	g.mu.Lock()
	g.accountCalls[token]++
	gate := g.accountsGate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.accountsErr[token]; err != nil {
		return nil, err
	}
	return g.accounts[token], nil
}

func (g *fakeGateway) FetchHoldings(ctx context.Context, token string) ([]provider.HoldingData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.holdingsErr[token]; err != nil {
		return nil, err
	}
	if len(g.holdings[token]) == 0 {
		return nil, provider.ErrNoInvestments
	}
	return g.holdings[token], nil
}

func (g *fakeGateway) FetchTransactions(ctx context.Context, token, cursor string) (provider.TransactionsPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.pageIdx[token]
	if at, ok := g.pageErrAt[token]; ok && idx == at {
		return provider.TransactionsPage{}, g.pageErr
	}
	pages := g.pages[token]
	if idx >= len(pages) {
		return provider.TransactionsPage{NextCursor: cursor, HasMore: false}, nil
	}
	g.pageIdx[token] = idx + 1
	return pages[idx], nil
}

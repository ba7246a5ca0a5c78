package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"networth-server/src/models"
	"networth-server/src/provider"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func added(id string, d int, amount float64, category string) provider.TransactionData {
	return provider.TransactionData{
		TransactionID: id,
		Date:          day(d),
		Amount:        decimal.NewFromFloat(amount),
		Category:      category,
	}
}

func transientErr() error {
	return &provider.Error{Kind: provider.KindTransient, Op: "fetch", Err: errors.New("rate limited")}
}

func terminalErr() error {
	return &provider.Error{Kind: provider.KindTerminal, Op: "fetch", Err: errors.New("ITEM_LOGIN_REQUIRED")}
}

func TestSyncItemAppliesMultiPageWindowOnce(t *testing.T) {
	store := newMemStore()
	store.addItem(1, "tok", "")

	gw := newFakeGateway()
	gw.accounts["tok"] = []provider.AccountData{{AccountID: "acc-1", Type: "depository"}}
	gw.pages["tok"] = []provider.TransactionsPage{
		{Added: []provider.TransactionData{added("t1", 1, 50, "Dining"), added("t2", 2, 20, "Dining")}, NextCursor: "c1", HasMore: true},
		{Added: []provider.TransactionData{added("t3", 3, 30, "Dining")}, NextCursor: "c2", HasMore: true},
		{Added: []provider.TransactionData{added("t4", 4, 10, "Dining")}, NextCursor: "c3", HasMore: false},
	}

	eng := New(store, gw, nil, WithRetry(1, time.Millisecond))
	result, err := eng.SyncItem(context.Background(), 1)
	require.NoError(t, err)

	require.Equal(t, 4, result.TransactionsAdded)
	require.Equal(t, 1, result.AccountsUpdated)
	require.Empty(t, result.Errors)
	require.Equal(t, "c3", store.cursor(1))
	require.Len(t, store.transactions, 4)
}

func TestSyncItemTerminalErrorMarksItem(t *testing.T) {
	store := newMemStore()
	store.addItem(1, "tok", "")

	gw := newFakeGateway()
	gw.accountsErr["tok"] = terminalErr()

	eng := New(store, gw, nil, WithRetry(1, time.Millisecond))
	result, err := eng.SyncItem(context.Background(), 1)
	require.Error(t, err)
	require.NotEmpty(t, result.Errors)
	require.Equal(t, models.ItemStatusError, store.status(1))
}

func TestSyncItemCursorUnmovedOnMidWindowFailure(t *testing.T) {
	store := newMemStore()
	store.addItem(1, "tok", "start")

	gw := newFakeGateway()
	gw.accounts["tok"] = []provider.AccountData{{AccountID: "acc-1", Type: "depository"}}
	gw.pages["tok"] = []provider.TransactionsPage{
		{Added: []provider.TransactionData{added("t1", 1, 50, "Dining")}, NextCursor: "c1", HasMore: true},
	}
	// Second page fails: the whole window must be discarded.
	gw.pageErrAt["tok"] = 1
	gw.pageErr = transientErr()

	eng := New(store, gw, nil, WithRetry(2, time.Millisecond))
	_, err := eng.SyncItem(context.Background(), 1)
	require.Error(t, err)

	require.Equal(t, "start", store.cursor(1))
	require.Empty(t, store.transactions)
	// Transient failure never errors the item.
	require.Equal(t, models.ItemStatusActive, store.status(1))
}

func TestSyncItemCursorUnmovedOnApplyFailure(t *testing.T) {
	store := newMemStore()
	store.addItem(1, "tok", "start")
	store.applyErr = errors.New("db down")

	gw := newFakeGateway()
	gw.accounts["tok"] = []provider.AccountData{{AccountID: "acc-1", Type: "depository"}}
	gw.pages["tok"] = []provider.TransactionsPage{
		{Added: []provider.TransactionData{added("t1", 1, 50, "Dining")}, NextCursor: "c1", HasMore: false},
	}

	eng := New(store, gw, nil, WithRetry(1, time.Millisecond))
	_, err := eng.SyncItem(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, "start", store.cursor(1))
	require.Empty(t, store.transactions)
}

func TestSyncAllIsolatesItemFailures(t *testing.T) {
	store := newMemStore()
	store.addItem(1, "bad", "")
	store.addItem(2, "good", "")

	gw := newFakeGateway()
	gw.accountsErr["bad"] = terminalErr()
	gw.accounts["good"] = []provider.AccountData{{AccountID: "acc-1", Type: "depository"}}
	gw.pages["good"] = []provider.TransactionsPage{
		{Added: []provider.TransactionData{added("t1", 1, 50, "Dining")}, NextCursor: "c1", HasMore: false},
	}

	eng := New(store, gw, nil, WithRetry(1, time.Millisecond))
	report, err := eng.SyncAll(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Len(t, report.Items, 2)

	// Sorted by item id: the failed item first, the clean one after.
	require.Equal(t, int64(1), report.Items[0].ItemID)
	require.NotEmpty(t, report.Items[0].Errors)
	require.Equal(t, int64(2), report.Items[1].ItemID)
	require.Empty(t, report.Items[1].Errors)

	require.Equal(t, models.ItemStatusError, store.status(1))
	require.Equal(t, "c1", store.cursor(2))
	require.False(t, report.Failed())
}

func TestSyncItemConcurrentTriggersShareOneFlight(t *testing.T) {
	store := newMemStore()
	store.addItem(1, "tok", "")

	gw := newFakeGateway()
	gw.accounts["tok"] = []provider.AccountData{{AccountID: "acc-1", Type: "depository"}}
	gate := make(chan struct{})
	gw.accountsGate = gate

	eng := New(store, gw, nil, WithRetry(1, time.Millisecond))

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := eng.SyncItem(context.Background(), 1)
			require.NoError(t, err)
		}()
	}
	close(start)

	// Let both callers reach the flight before the gateway unblocks.
	deadline := time.After(2 * time.Second)
	for {
		gw.mu.Lock()
		calls := gw.accountCalls["tok"]
		gw.mu.Unlock()
		if calls >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("gateway never reached")
		case <-time.After(time.Millisecond):
		}
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	gw.mu.Lock()
	defer gw.mu.Unlock()
	require.Equal(t, 1, gw.accountCalls["tok"])
}

func TestSyncReflectsAccountTypeChange(t *testing.T) {
	store := newMemStore()
	store.addItem(1, "tok", "")

	gw := newFakeGateway()
	gw.accounts["tok"] = []provider.AccountData{
		{AccountID: "acc-1", Type: models.AccountTypeCredit, CurrentBalance: decimal.NewFromInt(-2000)},
	}

	eng := New(store, gw, nil, WithRetry(1, time.Millisecond))
	_, err := eng.SyncItem(context.Background(), 1)
	require.NoError(t, err)

	snap, err := eng.CurrentNetWorth(context.Background())
	require.NoError(t, err)
	require.True(t, snap.TotalLiabilities.Equal(decimal.NewFromInt(2000)))
	require.True(t, snap.TotalCash.IsZero())

	// The provider reclassifies the account; the partition must follow.
	gw.accounts["tok"] = []provider.AccountData{
		{AccountID: "acc-1", Type: models.AccountTypeDepository, CurrentBalance: decimal.NewFromInt(2000)},
	}
	_, err = eng.SyncItem(context.Background(), 1)
	require.NoError(t, err)

	snap, err = eng.CurrentNetWorth(context.Background())
	require.NoError(t, err)
	require.True(t, snap.TotalCash.Equal(decimal.NewFromInt(2000)))
	require.True(t, snap.TotalLiabilities.IsZero())
}

func TestRunDailyRefreshSnapshotsAndReclassifies(t *testing.T) {
	fixed := time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)
	today := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	store := newMemStore()
	store.addItem(1, "tok", "")
	store.accounts = []models.Account{account(1, models.AccountTypeDepository, 5000)}
	store.budgets = []models.Budget{mainBudget(60)}
	store.configs = map[string]bool{"Dining": true}

	gw := newFakeGateway()
	gw.accounts["tok"] = []provider.AccountData{{AccountID: "acc-1", Type: "depository"}}
	gw.pages["tok"] = []provider.TransactionsPage{
		{Added: []provider.TransactionData{
			added("t1", 1, 50, "Dining"),
			added("t2", 2, 40, "Dining"),
		}, NextCursor: "c1", HasMore: false},
	}

	eng := New(store, gw, nil, WithClock(func() time.Time { return fixed }), WithRetry(1, time.Millisecond))
	report, err := eng.RunDailyRefresh(context.Background())
	require.NoError(t, err)
	require.False(t, report.Failed())

	snap, ok := store.snapshots[today]
	require.True(t, ok, "daily snapshot missing")
	require.True(t, snap.NetWorth.Equal(decimal.NewFromInt(5000)))

	// The second spend crossed the main budget limit.
	require.Equal(t, models.TierDiscretionary, store.transactions["t1"].Tier)
	require.Equal(t, models.TierFrivolous, store.transactions["t2"].Tier)
}

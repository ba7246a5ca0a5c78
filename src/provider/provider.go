package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway is the capability set this system consumes from the external
// account aggregator. Implemented against Plaid; the sync orchestrator and
// handlers only ever see this interface.
type Gateway interface {
	// ExchangePublicToken trades a Link public token for a long-lived
	// access credential and the provider's item id.
	ExchangePublicToken(ctx context.Context, publicToken string) (Credential, error)

	// FetchAccounts returns every account on the credential, with current
	// balances.
	FetchAccounts(ctx context.Context, accessToken string) ([]AccountData, error)

	// FetchHoldings returns current investment positions. Credentials with
	// no investment accounts return ErrNoInvestments.
	FetchHoldings(ctx context.Context, accessToken string) ([]HoldingData, error)

	// FetchTransactions returns one page of the transaction change-stream
	// starting at cursor. Callers loop while HasMore is set.
	FetchTransactions(ctx context.Context, accessToken, cursor string) (TransactionsPage, error)
}

type Credential struct {
	AccessToken     string
	ItemID          string
	InstitutionID   string
	InstitutionName string
}

type AccountData struct {
	AccountID        string
	Name             string
	OfficialName     *string
	Type             string
	Subtype          *string
	Mask             *string
	CurrentBalance   decimal.Decimal
	AvailableBalance *decimal.Decimal
	CreditLimit      *decimal.Decimal
	Currency         string
}

type HoldingData struct {
	AccountID    string
	SecurityID   string
	Symbol       string
	Name         *string
	Quantity     decimal.Decimal
	CostBasis    *decimal.Decimal
	CurrentPrice *decimal.Decimal
	CurrentValue *decimal.Decimal
	Currency     string
}

type TransactionData struct {
	TransactionID    string
	AccountID        string
	Date             time.Time
	Amount           decimal.Decimal
	MerchantName     *string
	Description      string
	Category         string
	CategoryDetailed string
	Pending          bool
}

// TransactionsPage is one page of added/modified/removed transactions plus
// the cursor describing the stream position after this page.
type TransactionsPage struct {
	Added      []TransactionData
	Modified   []TransactionData
	Removed    []string
	NextCursor string
	HasMore    bool
}

// TransactionsDelta is a full change-stream window accumulated across pages.
// It is applied to storage as one unit together with the window's final
// cursor, so a crash mid-window never advances the cursor past unapplied
// data.
type TransactionsDelta struct {
	Added    []TransactionData
	Modified []TransactionData
	Removed  []string
}

// Merge folds one page into the delta.
func (d *TransactionsDelta) Merge(page TransactionsPage) {
	d.Added = append(d.Added, page.Added...)
	d.Modified = append(d.Modified, page.Modified...)
	d.Removed = append(d.Removed, page.Removed...)
}

// Empty reports whether the window carried no changes at all.
func (d *TransactionsDelta) Empty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types, following the provider's top-level taxonomy.
const (
	AccountTypeDepository = "depository"
	AccountTypeCredit     = "credit"
	AccountTypeInvestment = "investment"
	AccountTypeLoan       = "loan"
)

type Account struct {
	ID               int64            `json:"id"`
	ItemID           int64            `json:"item_id"`
	PlaidAccountID   string           `json:"plaid_account_id"`
	Name             string           `json:"name"`
	OfficialName     *string          `json:"official_name"`
	Type             string           `json:"type"`
	Subtype          *string          `json:"subtype"`
	Mask             *string          `json:"mask"`
	CurrentBalance   decimal.Decimal  `json:"current_balance"`
	AvailableBalance *decimal.Decimal `json:"available_balance"`
	Currency         string           `json:"currency"`
	InstitutionName  string           `json:"institution_name"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// BalanceHistory is one balance observation per account per calendar day.
// Intraday re-syncs overwrite the day's row; only the latest value matters.
type BalanceHistory struct {
	ID               int64            `json:"id"`
	AccountID        int64            `json:"account_id"`
	Date             time.Time        `json:"date"`
	CurrentBalance   decimal.Decimal  `json:"current_balance"`
	AvailableBalance *decimal.Decimal `json:"available_balance"`
	CreditLimit      *decimal.Decimal `json:"credit_limit"`
}

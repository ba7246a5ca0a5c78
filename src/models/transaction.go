package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction mirrors a provider transaction record. Amount follows the
// provider convention: positive = money out, negative = money in.
type Transaction struct {
	ID                 int64           `json:"id"`
	AccountID          int64           `json:"account_id"`
	PlaidTransactionID string          `json:"plaid_transaction_id"`
	Date               time.Time       `json:"date"`
	Amount             decimal.Decimal `json:"amount"`
	MerchantName       *string         `json:"merchant_name"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	CategoryDetailed   string          `json:"category_detailed"`
	Tier               Tier            `json:"tier"`
	Pending            bool            `json:"pending"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

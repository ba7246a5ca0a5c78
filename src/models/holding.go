package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Holding struct {
	ID              int64            `json:"id"`
	AccountID       int64            `json:"account_id"`
	PlaidSecurityID string           `json:"plaid_security_id"`
	Symbol          string           `json:"symbol"`
	Name            *string          `json:"name"`
	Quantity        decimal.Decimal  `json:"quantity"`
	CostBasis       *decimal.Decimal `json:"cost_basis"`
	CurrentPrice    *decimal.Decimal `json:"current_price"`
	CurrentValue    *decimal.Decimal `json:"current_value"`
	Currency        string           `json:"currency"`
	AsOfDate        time.Time        `json:"as_of_date"`
}

// HoldingView is the read-API shape with derived gain/loss fields.
type HoldingView struct {
	Symbol          string           `json:"symbol"`
	Name            *string          `json:"name"`
	Quantity        decimal.Decimal  `json:"quantity"`
	CostBasis       *decimal.Decimal `json:"cost_basis"`
	CurrentPrice    *decimal.Decimal `json:"current_price"`
	CurrentValue    *decimal.Decimal `json:"current_value"`
	GainLoss        *decimal.Decimal `json:"gain_loss"`
	GainLossPercent *decimal.Decimal `json:"gain_loss_percent"`
}

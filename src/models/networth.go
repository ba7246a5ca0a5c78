package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NetWorthSnapshot is one immutable daily net-worth row. At most one exists
// per calendar date; recomputing a date replaces its values in place.
type NetWorthSnapshot struct {
	Date             time.Time       `json:"date"`
	TotalCash        decimal.Decimal `json:"total_cash"`
	TotalInvestments decimal.Decimal `json:"total_investments"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	NetWorth         decimal.Decimal `json:"net_worth"`
}

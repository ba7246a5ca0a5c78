package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MainBudgetCategory is the category label reserved for the single
// wallet-wide budget.
const MainBudgetCategory = "MAIN"

type Budget struct {
	ID           int64           `json:"id"`
	Category     string          `json:"category"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	IsMain       bool            `json:"is_main"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BudgetStatus is the month-to-date spend report for one budget.
type BudgetStatus struct {
	Category   string          `json:"category,omitempty"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage decimal.Decimal `json:"percentage"`
}

// MonthStatus aggregates the main budget and every category budget for one
// calendar month. MainBudget is nil when no main budget exists.
type MonthStatus struct {
	MainBudget      *BudgetStatus   `json:"main_budget"`
	CategoryBudgets []BudgetStatus  `json:"category_budgets"`
	TotalSpending   decimal.Decimal `json:"total_spending"`
}

// CategorySpending is one row of the spending-by-category breakdown.
type CategorySpending struct {
	Category  string          `json:"category"`
	Total     decimal.Decimal `json:"total"`
	Necessary decimal.Decimal `json:"necessary"`
	Frivolous decimal.Decimal `json:"frivolous"`
	Count     int             `json:"count"`
}

package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"networth-server/src/db"
	sqldb "networth-server/src/db/sql"
	"networth-server/src/engine"
	"networth-server/src/models"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type upsertBudgetRequest struct {
	Category     string          `json:"category"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	IsMain       bool            `json:"is_main"`
}

// UpsertBudget creates or replaces the main budget or a category budget,
// then re-classifies the current month so tiers reflect the new limit.
func UpsertBudget(pool *pgxpool.Pool, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertBudgetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var budget *models.Budget
		var err error
		if req.IsMain {
			budget, err = sqldb.UpsertMainBudget(r.Context(), pool, req.MonthlyLimit)
		} else {
			budget, err = sqldb.UpsertCategoryBudget(r.Context(), pool, req.Category, req.MonthlyLimit)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			log.Printf("ERROR: Failed to upsert budget: %v", err)
			return
		}

		scope := budget.Category
		if budget.IsMain {
			scope = models.MainBudgetCategory
		}
		now := time.Now().UTC()
		if _, err := eng.ReclassifyScope(r.Context(), scope, now.Year(), now.Month()); err != nil {
			log.Printf("ERROR: Failed to re-classify after budget change: %v", err)
		}
		db.ClearSyncDerivedCaches()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(budget)
	}
}

func GetBudgets(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		budgets, err := sqldb.GetAllBudgets(r.Context(), pool)
		if err != nil {
			http.Error(w, "Failed to retrieve budgets", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get budgets: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(budgets)
	}
}

func DeleteBudget(pool *pgxpool.Pool, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		budgetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid budget ID", http.StatusBadRequest)
			return
		}

		if err := sqldb.DeleteBudget(r.Context(), pool, budgetID); err != nil {
			http.Error(w, "Failed to delete budget", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to delete budget %d: %v", budgetID, err)
			return
		}

		now := time.Now().UTC()
		if _, err := eng.ReclassifyScope(r.Context(), "removed", now.Year(), now.Month()); err != nil {
			log.Printf("ERROR: Failed to re-classify after budget delete: %v", err)
		}
		db.ClearSyncDerivedCaches()

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetBudgetStatus(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, month := monthScope(r)

		status, err := eng.BudgetStatus(r.Context(), year, month)
		if err != nil {
			http.Error(w, "Failed to compute budget status", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get budget status: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}

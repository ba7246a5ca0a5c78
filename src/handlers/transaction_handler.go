package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	sqldb "networth-server/src/db/sql"
	"networth-server/src/engine"

	"github.com/jackc/pgx/v5/pgxpool"
)

// monthScope reads year/month query params, defaulting to the current month.
func monthScope(r *http.Request) (int, time.Month) {
	now := time.Now().UTC()
	year, month := now.Year(), now.Month()
	if y := r.URL.Query().Get("year"); y != "" {
		if parsed, err := strconv.Atoi(y); err == nil && parsed > 0 {
			year = parsed
		}
	}
	if m := r.URL.Query().Get("month"); m != "" {
		if parsed, err := strconv.Atoi(m); err == nil && parsed >= 1 && parsed <= 12 {
			month = time.Month(parsed)
		}
	}
	return year, month
}

func GetTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, month := monthScope(r)
		filter := sqldb.TransactionFilter{
			Year:          year,
			Month:         month,
			Category:      r.URL.Query().Get("category"),
			FrivolousOnly: r.URL.Query().Get("frivolous_only") == "true",
		}

		transactions, err := sqldb.GetTransactions(r.Context(), pool, filter)
		if err != nil {
			http.Error(w, "Failed to retrieve transactions", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get transactions: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(transactions)
	}
}

func GetSpendingByCategory(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, month := monthScope(r)

		spending, err := eng.SpendingByCategory(r.Context(), year, month)
		if err != nil {
			http.Error(w, "Failed to compute spending breakdown", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get spending by category: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(spending)
	}
}

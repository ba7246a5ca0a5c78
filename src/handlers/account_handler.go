package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"networth-server/src/db"
	sqldb "networth-server/src/db/sql"
	"networth-server/src/models"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountsCacheKey = "accounts:all"

func GetAccounts(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, found := db.Cache.Get(accountsCacheKey); found {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(cached.([]models.Account))
			return
		}

		accounts, err := sqldb.GetAllAccounts(r.Context(), pool)
		if err != nil {
			http.Error(w, "Failed to retrieve accounts", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get accounts: %v", err)
			return
		}
		if accounts == nil {
			accounts = []models.Account{}
		}
		db.SetAccountCache(accountsCacheKey, accounts)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(accounts)
	}
}

func GetBalanceHistory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid account ID", http.StatusBadRequest)
			return
		}
		days := 30
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid days", http.StatusBadRequest)
				return
			}
			days = n
		}

		history, err := sqldb.GetBalanceHistory(r.Context(), pool, accountID, days)
		if err != nil {
			http.Error(w, "Failed to retrieve balance history", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get balance history for account %d: %v", accountID, err)
			return
		}
		if history == nil {
			history = []models.BalanceHistory{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(history)
	}
}

func GetItems(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := sqldb.GetAllItems(r.Context(), pool)
		if err != nil {
			http.Error(w, "Failed to retrieve items", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get items: %v", err)
			return
		}
		if items == nil {
			items = []models.PlaidItem{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(items)
	}
}

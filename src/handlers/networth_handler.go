package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"networth-server/src/db"
	sqldb "networth-server/src/db/sql"
	"networth-server/src/engine"
	"networth-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const netWorthCurrentCacheKey = "networth:current"

func GetCurrentNetWorth(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, found := db.Cache.Get(netWorthCurrentCacheKey); found {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(cached.(*models.NetWorthSnapshot))
			return
		}

		snap, err := eng.CurrentNetWorth(r.Context())
		if err != nil {
			http.Error(w, "Failed to compute net worth", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to compute current net worth: %v", err)
			return
		}
		db.SetNetWorthCache(netWorthCurrentCacheKey, snap)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	}
}

func GetNetWorthHistory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 30
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid days", http.StatusBadRequest)
				return
			}
			days = n
		}

		history, err := sqldb.GetNetWorthHistory(r.Context(), pool, days)
		if err != nil {
			http.Error(w, "Failed to retrieve net worth history", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get net worth history: %v", err)
			return
		}
		if history == nil {
			history = []models.NetWorthSnapshot{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(history)
	}
}

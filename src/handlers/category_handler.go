package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	sqldb "networth-server/src/db/sql"
	"networth-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func GetCategories(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		configs, err := sqldb.GetAllCategoryConfigs(r.Context(), pool)
		if err != nil {
			http.Error(w, "Failed to retrieve categories", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get category config: %v", err)
			return
		}
		if configs == nil {
			configs = []models.CategoryConfig{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(configs)
	}
}

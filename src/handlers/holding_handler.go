package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	sqldb "networth-server/src/db/sql"
	"networth-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

func GetHoldings(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holdings, err := sqldb.GetAllHoldings(r.Context(), pool)
		if err != nil {
			http.Error(w, "Failed to retrieve holdings", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to get holdings: %v", err)
			return
		}

		views := make([]models.HoldingView, 0, len(holdings))
		for _, h := range holdings {
			view := models.HoldingView{
				Symbol:       h.Symbol,
				Name:         h.Name,
				Quantity:     h.Quantity,
				CostBasis:    h.CostBasis,
				CurrentPrice: h.CurrentPrice,
				CurrentValue: h.CurrentValue,
			}
			if h.CostBasis != nil && h.CurrentValue != nil {
				gain := h.CurrentValue.Sub(*h.CostBasis)
				view.GainLoss = &gain
				if h.CostBasis.Sign() > 0 {
					pct := gain.Div(*h.CostBasis).Mul(oneHundred).Round(2)
					view.GainLossPercent = &pct
				}
			}
			views = append(views, view)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(views)
	}
}

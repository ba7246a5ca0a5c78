package api

import (
	"net/http"

	"networth-server/src/engine"
	"networth-server/src/handlers"
	"networth-server/src/middleware"
	"networth-server/src/provider"
	"networth-server/src/util"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"
)

func NewRouter(pool *pgxpool.Pool, plaidClient *plaid.APIClient, gateway provider.Gateway, sealer *util.TokenSealer, eng *engine.Engine, plaidEnv string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		// Plaid
		r.Post("/plaid/create-link-token", handlers.CreateLinkToken(plaidClient))
		r.Post("/plaid/exchange-public-token", handlers.ExchangePublicToken(gateway, pool, sealer, eng))
		r.Post("/plaid/webhook", handlers.PlaidWebhook(plaidClient, pool, eng))
		if plaidEnv == "sandbox" {
			r.Post("/plaid/sandbox/fire_webhook", handlers.FireSandboxWebhook(plaidClient, pool, sealer))
		}

		// Sync
		r.Post("/sync", handlers.TriggerSync(eng))

		// Accounts
		r.Get("/accounts", handlers.GetAccounts(pool))
		r.Get("/accounts/{id}/balance-history", handlers.GetBalanceHistory(pool))
		r.Get("/items", handlers.GetItems(pool))

		// Net worth
		r.Get("/net-worth/current", handlers.GetCurrentNetWorth(eng))
		r.Get("/net-worth/history", handlers.GetNetWorthHistory(pool))

		// Holdings
		r.Get("/holdings", handlers.GetHoldings(pool))

		// Transactions
		r.Get("/transactions", handlers.GetTransactions(pool))
		r.Get("/spending/by-category", handlers.GetSpendingByCategory(eng))
		r.Get("/categories", handlers.GetCategories(pool))

		// Budgets
		r.Post("/budgets", handlers.UpsertBudget(pool, eng))
		r.Get("/budgets", handlers.GetBudgets(pool))
		r.Delete("/budgets/{id}", handlers.DeleteBudget(pool, eng))
		r.Get("/budgets/status", handlers.GetBudgetStatus(eng))
	})

	return r
}

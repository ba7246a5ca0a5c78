package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"networth-server/src/db"
	sqldb "networth-server/src/db/sql"
	"networth-server/src/engine"
	"networth-server/src/provider"
	"networth-server/src/util"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"
)

func CreateLinkToken(plaidClient *plaid.APIClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := plaid.LinkTokenCreateRequestUser{
			ClientUserId: "user-1",
		}
		request := plaid.NewLinkTokenCreateRequest(
			"NetWorth Calculator",
			"en",
			[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		)
		request.SetUser(user)
		request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS, plaid.PRODUCTS_INVESTMENTS})
		resp, _, err := plaidClient.PlaidApi.LinkTokenCreate(r.Context()).LinkTokenCreateRequest(*request).Execute()
		if err != nil {
			http.Error(w, "Failed to create link token", http.StatusInternalServerError)
			log.Printf("ERROR: Plaid link token creation failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"link_token": resp.GetLinkToken()})
	}
}

func ExchangePublicToken(gateway provider.Gateway, pool *pgxpool.Pool, sealer *util.TokenSealer, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PublicToken     string `json:"public_token"`
			InstitutionName string `json:"institution_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode exchange public token request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.PublicToken == "" {
			http.Error(w, "public_token is required", http.StatusBadRequest)
			return
		}

		cred, err := gateway.ExchangePublicToken(r.Context(), req.PublicToken)
		if err != nil {
			http.Error(w, "Failed to exchange public token", http.StatusInternalServerError)
			log.Printf("ERROR: Plaid public token exchange failed: %v", err)
			return
		}

		institutionName := req.InstitutionName
		if institutionName == "" {
			institutionName = cred.InstitutionName
		}

		sealed, err := sealer.Seal(cred.AccessToken)
		if err != nil {
			http.Error(w, "Failed to store credentials", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to seal access token for item %s: %v", cred.ItemID, err)
			return
		}

		itemID, err := sqldb.SavePlaidItem(r.Context(), pool, cred.ItemID, sealed, cred.InstitutionID, institutionName)
		if err != nil {
			http.Error(w, "Failed to save plaid item", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to save plaid item %s: %v", cred.ItemID, err)
			return
		}
		log.Printf("INFO: Exchanged public token and saved item %d (%s)", itemID, institutionName)

		// Initial sync so the new item shows up with data immediately.
		if _, err := eng.SyncItem(r.Context(), itemID); err != nil {
			log.Printf("ERROR: Initial sync failed for item %d: %v", itemID, err)
		}
		if _, err := eng.RecomputeNetWorth(r.Context(), time.Now().UTC().Truncate(24*time.Hour)); err != nil {
			log.Printf("ERROR: Net worth snapshot after linking item %d failed: %v", itemID, err)
		}
		db.ClearSyncDerivedCaches()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"item_id": itemID,
		})
	}
}

// PlaidWebhook handles provider webhooks. Deliveries are verified against
// Plaid's signing key; duplicate deliveries are harmless because the item's
// sync path is serialized and cursor-idempotent.
func PlaidWebhook(plaidClient *plaid.APIClient, pool *pgxpool.Pool, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		if err := util.VerifyWebhook(r.Context(), plaidClient, body, r.Header.Get("Plaid-Verification")); err != nil {
			log.Printf("ERROR: Webhook verification failed: %v", err)
			http.Error(w, "verification failed", http.StatusUnauthorized)
			return
		}

		var payload struct {
			WebhookType string `json:"webhook_type"`
			WebhookCode string `json:"webhook_code"`
			ItemID      string `json:"item_id"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			log.Printf("ERROR: Failed to decode webhook payload: %v", err)
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		if payload.WebhookType == "TRANSACTIONS" &&
			(payload.WebhookCode == "SYNC_UPDATES_AVAILABLE" || payload.WebhookCode == "DEFAULT_UPDATE") {
			item, err := sqldb.GetItemByPlaidID(r.Context(), pool, payload.ItemID)
			if err != nil {
				log.Printf("ERROR: Webhook for unknown item %s: %v", payload.ItemID, err)
				http.Error(w, "unknown item", http.StatusNotFound)
				return
			}
			go func(itemID int64) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()
				if _, err := eng.SyncItem(ctx, itemID); err != nil {
					log.Printf("ERROR: Webhook-triggered sync failed for item %d: %v", itemID, err)
					return
				}
				db.ClearSyncDerivedCaches()
			}(item.ID)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "acknowledged"})
	}
}

// FireSandboxWebhook asks Plaid's sandbox to deliver a webhook for an item.
// Only routed when PLAID_ENV is sandbox.
func FireSandboxWebhook(plaidClient *plaid.APIClient, pool *pgxpool.Pool, sealer *util.TokenSealer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ItemID int64 `json:"item_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		item, err := sqldb.GetItemByID(r.Context(), pool, req.ItemID)
		if err != nil {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		token, err := sealer.Open(item.AccessToken)
		if err != nil {
			http.Error(w, "failed to open credentials", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to open access token for item %d: %v", item.ID, err)
			return
		}

		fireReq := plaid.NewSandboxItemFireWebhookRequest(token, "SYNC_UPDATES_AVAILABLE")
		_, _, err = plaidClient.PlaidApi.SandboxItemFireWebhook(r.Context()).SandboxItemFireWebhookRequest(*fireReq).Execute()
		if err != nil {
			http.Error(w, "failed to fire webhook", http.StatusInternalServerError)
			log.Printf("ERROR: Failed to fire sandbox webhook for item %d: %v", item.ID, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "fired"})
	}
}

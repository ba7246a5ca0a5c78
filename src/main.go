package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"networth-server/src/api"
	"networth-server/src/config"
	"networth-server/src/db"
	sqldb "networth-server/src/db/sql"
	"networth-server/src/engine"
	"networth-server/src/plaid"
	"networth-server/src/provider"
	"networth-server/src/util"
)

func main() {
	cfg := config.Load()

	// Connect to database
	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}
	db.InitCache()

	if err := sqldb.SeedDefaultCategories(context.Background(), pool); err != nil {
		log.Fatalf("Category seeding failed: %v", err)
	}

	sealer, err := util.NewTokenSealer(cfg.TokenKey)
	if err != nil {
		log.Fatalf("Invalid TOKEN_ENC_KEY: %v", err)
	}

	plaidClient := plaid.NewPlaidClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
	gateway := provider.NewPlaidGateway(plaidClient)
	eng := engine.New(db.NewStore(pool), gateway, sealer)

	go runDailyRefresh(eng, cfg.RefreshHour, cfg.RefreshMinute)

	// Router
	router := api.NewRouter(pool, plaidClient, gateway, sealer, eng, cfg.PlaidEnv)

	log.Println("API server running on port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}

// runDailyRefresh fires the full refresh once per calendar day at the
// configured wall-clock time. The last-run date guards against a double run
// when the ticker and a restart land close together.
func runDailyRefresh(eng *engine.Engine, hour, minute int) {
	var lastRun string
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		time.Sleep(time.Until(next))

		today := time.Now().Format("2006-01-02")
		if today == lastRun {
			continue
		}
		lastRun = today

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		report, err := eng.RunDailyRefresh(ctx)
		cancel()
		if err != nil {
			log.Printf("ERROR: Daily refresh failed: %v", err)
			continue
		}
		db.ClearSyncDerivedCaches()
		if report.Failed() {
			log.Printf("ERROR: Daily refresh finished with failures: %d item(s)", len(report.Items))
		} else {
			log.Printf("INFO: Daily refresh complete: %d item(s) synced", len(report.Items))
		}
	}
}

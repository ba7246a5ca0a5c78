package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"networth-server/src/db"
	"networth-server/src/engine"
)

// TriggerSync runs a full refresh on demand: sync every item, snapshot net
// worth, re-scan the current month's classification. Safe to race with the
// scheduler; the per-item sync path is serialized and every derived write is
// date-keyed.
func TriggerSync(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := eng.RunDailyRefresh(r.Context())
		if err != nil {
			http.Error(w, "sync failed", http.StatusInternalServerError)
			log.Printf("ERROR: Manual sync failed: %v", err)
			return
		}
		db.ClearSyncDerivedCaches()

		status := http.StatusOK
		if report.Failed() {
			// Nothing synced; the caller can safely retry the whole run.
			status = http.StatusBadGateway
		}
		log.Printf("INFO: Manual sync run %s finished with %d items", report.RunID, len(report.Items))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(report)
	}
}

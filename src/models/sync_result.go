package models

import "time"

// SyncResult reports what one item sync accomplished. A non-empty Errors
// slice with non-zero counters means the item partially synced: whatever
// committed stays committed and the cursor reflects it.
type SyncResult struct {
	ItemID              int64    `json:"item_id"`
	InstitutionName     string   `json:"institution_name"`
	AccountsUpdated     int      `json:"accounts_updated"`
	HoldingsUpdated     int      `json:"holdings_updated"`
	TransactionsAdded   int      `json:"transactions_added"`
	TransactionsUpdated int      `json:"transactions_updated"`
	TransactionsRemoved int      `json:"transactions_removed"`
	Errors              []string `json:"errors,omitempty"`
}

// SyncReport collects per-item results for one sync_all run.
type SyncReport struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Items      []SyncResult `json:"items"`
}

// Failed reports whether every item in the run errored.
func (r *SyncReport) Failed() bool {
	if len(r.Items) == 0 {
		return false
	}
	for _, item := range r.Items {
		if len(item.Errors) == 0 {
			return false
		}
	}
	return true
}

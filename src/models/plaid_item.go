package models

import "time"

// Item statuses. An item moves to "error" on a terminal provider failure and
// back to "active" on the next successful sync. "revoked" is set by explicit
// user action and is never synced again.
const (
	ItemStatusActive  = "active"
	ItemStatusError   = "error"
	ItemStatusRevoked = "revoked"
)

// PlaidItem is one credential grant to a financial institution.
type PlaidItem struct {
	ID                 int64      `json:"id"`
	PlaidItemID        string     `json:"plaid_item_id"`
	AccessToken        string     `json:"-"` // sealed at rest, never serialized
	InstitutionID      string     `json:"institution_id"`
	InstitutionName    string     `json:"institution_name"`
	SyncCursor         string     `json:"-"`
	Status             string     `json:"status"`
	LastSuccessfulSync *time.Time `json:"last_successful_sync"`
	CreatedAt          time.Time  `json:"created_at"`
}

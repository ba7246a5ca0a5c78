package models

// CategoryConfig maps a provider category name to its spending nature.
// Discretionary categories can be tiered frivolous once a budget is
// exceeded; essential categories never are.
type CategoryConfig struct {
	ID            int64  `json:"id"`
	Category      string `json:"category"`
	DisplayName   string `json:"display_name"`
	Discretionary bool   `json:"discretionary"`
}

package models

// Tier is the three-level spending classification carried by every
// transaction.
type Tier string

const (
	// TierNecessary marks essential spend. Never escalated regardless of
	// budget state.
	TierNecessary Tier = "necessary"
	// TierDiscretionary marks optional spend within budget.
	TierDiscretionary Tier = "discretionary"
	// TierFrivolous marks discretionary spend that landed past an exceeded
	// budget limit.
	TierFrivolous Tier = "frivolous"
)

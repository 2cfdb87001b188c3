package repository

// Page sizes shared by the list endpoints and the queries behind them.
const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 200

	DefaultActivityLimit = 50
	MaxActivityLimit     = 200

	DefaultLeadLimit = 100
	MaxLeadLimit     = 500
)

// clampLimit falls back to def for non-positive limits and caps the rest at max.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

package store

// priorityMap assigns handling priority by category. Categories not
// listed default to Medium.
var priorityMap = map[string]string{
	"Allergy violation":  "Critical",
	"Cockroach":          "Critical",
	"Expired item":       "Critical",
	"No hygiene":         "Critical",
	"Hair in food":       "High",
	"Dietary violation":  "High",
	"Fraud cancellation": "High",
	"Non-delivery":       "High",
	"Stale food":         "High",
	"Stale roti":         "Medium",
}

// PriorityFor maps a complaint category to its handling priority.
func PriorityFor(category string) string {
	if p, ok := priorityMap[category]; ok {
		return p
	}
	return "Medium"
}

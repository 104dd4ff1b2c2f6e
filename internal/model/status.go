package model

// Item statuses.
const (
	ItemStatusActive    = "active"
	ItemStatusMatched   = "matched"
	ItemStatusRecovered = "recovered"
	ItemStatusClosed    = "closed"
	ItemStatusArchived  = "archived"
)

// transitions lists the allowed status edges. Recovered, closed, and
// archived are terminal.
var transitions = map[string][]string{
	ItemStatusActive:  {ItemStatusMatched, ItemStatusClosed, ItemStatusArchived},
	ItemStatusMatched: {ItemStatusRecovered, ItemStatusClosed, ItemStatusArchived},
}

// ValidItemStatus reports whether s is a known item status.
func ValidItemStatus(s string) bool {
	switch s {
	case ItemStatusActive, ItemStatusMatched, ItemStatusRecovered, ItemStatusClosed, ItemStatusArchived:
		return true
	}
	return false
}

// CanTransition reports whether an item may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transitions leave the status.
func IsTerminal(status string) bool {
	return ValidItemStatus(status) && len(transitions[status]) == 0
}

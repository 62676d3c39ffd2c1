package orders

import "strings"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var transitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func IsKnownStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func IsTerminal(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesOf lists the statuses that may move directly to `to`.
func SourcesOf(to string) []string {
	var out []string
	for _, from := range []string{StatusPending, StatusProcessing} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

package model

// Priority ranks a prescription. Higher fires earlier in the report.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// String returns the report label for the priority.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Prescription is a rule-triggered security recommendation.
type Prescription struct {
	RuleID          string
	Finding         string
	Priority        Priority
	Recommendations []string
}

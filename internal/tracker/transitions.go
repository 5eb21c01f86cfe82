// Package tracker implements the job pipeline the scout promotes into: the
// status state machine and the HTTP surfaces for the tracked jobs.
//
// Valid status graph:
//
//	Tracking ──► Applied ──► Interview ──► Offer ──► Hired
//	    │           │             │           │
//	    └───────────┴─────────────┴───────────┴──► Rejected
//
// Hired and Rejected are terminal states. Scout promotions always enter at
// Tracking.
package tracker

import "fmt"

// Status values mirror the jobs.status column.
type Status string

const (
	StatusTracking  Status = "Tracking"
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
	StatusHired     Status = "Hired"
	StatusRejected  Status = "Rejected"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusTracking:  {StatusApplied, StatusRejected},
	StatusApplied:   {StatusInterview, StatusRejected},
	StatusInterview: {StatusOffer, StatusRejected},
	StatusOffer:     {StatusHired, StatusRejected},
	// Hired and Rejected are terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusTracking, StatusApplied, StatusInterview, StatusOffer, StatusHired, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions.
func IsTerminal(s Status) bool {
	_, ok := validTransitions[s]
	return !ok
}

// Package lifecycle owns the ticket status state machine and the
// merge-eligibility rule the dedup engine consults.
package lifecycle

import "github.com/nagriksetu/report-service/internal/domain"

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusPending:    {domain.TicketStatusInProgress, domain.TicketStatusResolved},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved},
	domain.TicketStatusResolved:   {domain.TicketStatusDisputed},
	domain.TicketStatusDisputed:   {domain.TicketStatusInProgress, domain.TicketStatusResolved},
}

// CanTransition reports whether moving from current to next is a legal
// status change. Unknown statuses never transition.
func CanTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// MergeEligible reports whether a ticket in the given status may absorb
// a new duplicate submission. A resolved incident is presumed fixed, so
// a fresh report near it opens a new ticket instead of merging.
func MergeEligible(status domain.TicketStatus) bool {
	return status != domain.TicketStatusResolved
}

// MergeExcludedStatuses lists the statuses the store must filter out of
// candidate queries for the dedup engine.
func MergeExcludedStatuses() []domain.TicketStatus {
	return []domain.TicketStatus{domain.TicketStatusResolved}
}

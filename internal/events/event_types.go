package events

import (
	"time"

	"github.com/nagriksetu/report-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReportCreated       EventType = "report_created"
	EventReportMerged        EventType = "report_merged"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketUpvoted       EventType = "ticket_upvoted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ReportCreatedPayload payload.
type ReportCreatedPayload struct {
	Category  domain.TicketCategory `json:"category"`
	Latitude  float64               `json:"latitude"`
	Longitude float64               `json:"longitude"`
}

// ReportMergedPayload payload.
type ReportMergedPayload struct {
	Category       domain.TicketCategory `json:"category"`
	DistanceMeters float64               `json:"distance_meters"`
	ReportCount    int                   `json:"report_count"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketUpvotedPayload payload.
type TicketUpvotedPayload struct {
	Upvotes int `json:"upvotes"`
}

package domain

import "time"

// TicketStatus enumerates lifecycle states for civic tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusDisputed   TicketStatus = "DISPUTED"
)

// KnownStatuses lists every valid status value.
var KnownStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusDisputed,
}

// ValidStatus reports whether s belongs to the closed enumeration.
func ValidStatus(s TicketStatus) bool {
	for _, known := range KnownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// TicketCategory enumerates the kinds of civic issues citizens can report.
type TicketCategory string

const (
	CategoryPothole     TicketCategory = "POTHOLE"
	CategoryGarbage     TicketCategory = "GARBAGE"
	CategoryWaterLeak   TicketCategory = "WATER_LEAK"
	CategoryStreetLight TicketCategory = "STREET_LIGHT"
)

// KnownCategories lists every valid category value.
var KnownCategories = []TicketCategory{
	CategoryPothole,
	CategoryGarbage,
	CategoryWaterLeak,
	CategoryStreetLight,
}

// ValidCategory reports whether c belongs to the closed enumeration.
func ValidCategory(c TicketCategory) bool {
	for _, known := range KnownCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for one civic-incident cluster. Category and
// location are write-once; ReportCount and Upvotes only ever grow.
type Ticket struct {
	ID          string
	Category    TicketCategory
	Latitude    float64
	Longitude   float64
	Description string
	Status      TicketStatus
	ReportCount int
	Upvotes     int
	ImagePath   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

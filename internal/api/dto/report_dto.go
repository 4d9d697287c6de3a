package dto

import (
	"time"

	"github.com/nagriksetu/report-service/internal/domain"
)

// TicketResponse is the wire form of a ticket for map and dashboard
// consumers.
type TicketResponse struct {
	ID          string                `json:"id"`
	Category    domain.TicketCategory `json:"category"`
	Lat         float64               `json:"lat"`
	Lng         float64               `json:"lng"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	ReportCount int                   `json:"report_count"`
	Upvotes     int                   `json:"upvotes"`
	ImagePath   *string               `json:"image_path,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// SubmitReportResponse tells the caller whether their report opened a
// new ticket or was absorbed into an existing one.
type SubmitReportResponse struct {
	Merged  bool           `json:"merged"`
	Message string         `json:"message"`
	Ticket  TicketResponse `json:"ticket"`
}

// SetStatusRequest payload.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// AdminLoginRequest payload.
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// AdminLoginResponse payload.
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/nagriksetu/report-service/internal/api/dto"
	"github.com/nagriksetu/report-service/internal/domain"
	"github.com/nagriksetu/report-service/internal/geo"
	"github.com/nagriksetu/report-service/internal/intake"
	"github.com/nagriksetu/report-service/internal/service"
	"github.com/nagriksetu/report-service/pkg/util"
)

// ReportsHandler manages citizen report endpoints.
type ReportsHandler struct {
	dedup   *service.DedupService
	tickets *service.TicketService
	uploads *intake.UploadStore
}

// NewReportsHandler constructs handler.
func NewReportsHandler(dedup *service.DedupService, tickets *service.TicketService, uploads *intake.UploadStore) *ReportsHandler {
	return &ReportsHandler{dedup: dedup, tickets: tickets, uploads: uploads}
}

// SubmitReport POST /api/report. Multipart form: category, description,
// lat, lng, optional image.
func (h *ReportsHandler) SubmitReport(c *fiber.Ctx) error {
	category, ok := domain.ParseCategory(c.FormValue("category"))
	if !ok {
		return util.NewInvalidInput("unknown category", map[string]any{"category": c.FormValue("category")})
	}
	lat, err := strconv.ParseFloat(c.FormValue("lat"), 64)
	if err != nil {
		return util.NewInvalidInput("lat must be a number", nil)
	}
	lng, err := strconv.ParseFloat(c.FormValue("lng"), 64)
	if err != nil {
		return util.NewInvalidInput("lng must be a number", nil)
	}

	var imagePath *string
	if header, err := c.FormFile("image"); err == nil && header != nil {
		filename, err := h.uploads.SaveImage(header)
		if err != nil {
			return err
		}
		imagePath = &filename
	}

	result, err := h.dedup.Submit(c.UserContext(), service.SubmitInput{
		Category:    category,
		Coordinate:  geo.Coordinate{Lat: lat, Lng: lng},
		Description: c.FormValue("description"),
		ImagePath:   imagePath,
	})
	if err != nil {
		h.discardImage(imagePath)
		return err
	}
	if result.Merged {
		// A merge leaves the existing ticket's fields untouched, so the
		// stored image would never be referenced.
		h.discardImage(imagePath)
	}
	h.tickets.InvalidateListCache(c.UserContext())

	response := dto.SubmitReportResponse{
		Merged: result.Merged,
		Ticket: ticketResponse(result.Ticket),
	}
	status := http.StatusCreated
	response.Message = "Report submitted. New ticket created."
	if result.Merged {
		status = http.StatusOK
		response.Message = "A similar issue already exists nearby. Your report was added to it."
	}
	return c.Status(status).JSON(response)
}

// ListReports GET /api/reports.
func (h *ReportsHandler) ListReports(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListTickets(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(items)
}

// Vote POST /api/report/:id/vote.
func (h *ReportsHandler) Vote(c *fiber.Ctx) error {
	ticket, err := h.tickets.Vote(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// SetStatus POST /api/report/:id/status. Admin only.
func (h *ReportsHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewInvalidInput("invalid payload", nil)
	}
	status, ok := domain.ParseStatus(req.Status)
	if !ok {
		return util.NewInvalidInput("unknown status", map[string]any{"status": req.Status})
	}
	ticket, err := h.tickets.SetStatus(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

func (h *ReportsHandler) discardImage(imagePath *string) {
	if imagePath == nil {
		return
	}
	_ = h.uploads.Discard(*imagePath)
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		Category:    ticket.Category,
		Lat:         ticket.Latitude,
		Lng:         ticket.Longitude,
		Description: ticket.Description,
		Status:      ticket.Status,
		ReportCount: ticket.ReportCount,
		Upvotes:     ticket.Upvotes,
		ImagePath:   ticket.ImagePath,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

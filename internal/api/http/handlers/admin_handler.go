package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nagriksetu/report-service/internal/api/dto"
	"github.com/nagriksetu/report-service/internal/auth"
	"github.com/nagriksetu/report-service/internal/config"
	"github.com/nagriksetu/report-service/pkg/util"
)

// AdminHandler issues admin tokens for the status-management endpoints.
type AdminHandler struct {
	cfg    config.AuthConfig
	tokens *auth.TokenManager
}

// NewAdminHandler constructs handler.
func NewAdminHandler(cfg config.AuthConfig, tokens *auth.TokenManager) *AdminHandler {
	return &AdminHandler{cfg: cfg, tokens: tokens}
}

// Login POST /api/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	if h.cfg.AdminPasswordHash == "" {
		return util.NewUnauthorized("admin login disabled")
	}
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewInvalidInput("invalid payload", nil)
	}
	if err := auth.ComparePassword(h.cfg.AdminPasswordHash, req.Password); err != nil {
		return util.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := h.tokens.GenerateAdminToken()
	if err != nil {
		return util.NewInternalError(err)
	}
	return c.JSON(dto.AdminLoginResponse{Token: token, ExpiresAt: expiresAt})
}

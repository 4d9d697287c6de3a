package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nagriksetu/report-service/pkg/util"
)

const adminKey = "auth_admin"

// AdminMiddleware validates bearer tokens for admin-only routes.
type AdminMiddleware struct {
	tokens *TokenManager
}

// NewAdminMiddleware constructs middleware.
func NewAdminMiddleware(tokens *TokenManager) *AdminMiddleware {
	return &AdminMiddleware{tokens: tokens}
}

// Handle enforces admin authentication.
func (m *AdminMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil || !claims.Admin {
		return util.NewUnauthorized("invalid token")
	}

	c.Locals(adminKey, true)
	return c.Next()
}

// IsAdmin reports whether the request passed admin authentication.
func IsAdmin(c *fiber.Ctx) bool {
	val, ok := c.Locals(adminKey).(bool)
	return ok && val
}

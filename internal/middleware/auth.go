package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/stocki/internal/utils"
)

const (
	userContextKey    = "currentUserID"
	sessionContextKey = "currentSession"
)

// AuthMiddleware validates bearer session tokens and loads the authenticated
// user ID into context.
func AuthMiddleware(sessions *utils.SessionIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := sessions.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(userContextKey, claims.UserUUID())
		c.Locals(sessionContextKey, claims)
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// GetSession returns the verified token claims.
func GetSession(c *fiber.Ctx) (*utils.SessionClaims, bool) {
	claims, ok := c.Locals(sessionContextKey).(*utils.SessionClaims)
	return claims, ok
}

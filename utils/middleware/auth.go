package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
	"github.com/hearthchat/api/utils/response"
)

// AuthMiddleware validates opaque session tokens against the session store.
// Tokens are matched exactly; a session past its absolute expiry is rejected
// without being refreshed.
type AuthMiddleware struct {
	store database.Storage
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(store database.Storage) *AuthMiddleware {
	return &AuthMiddleware{store: store}
}

// extractToken pulls the bearer token out of the Authorization header
func extractToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Required rejects requests without a valid, unexpired session token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := extractToken(c)
		if !ok {
			return response.Unauthorized(c, "Missing authorization token")
		}

		session, err := m.store.GetSessionByToken(c.Context(), token)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return response.Unauthorized(c, "Invalid token")
			}
			return response.InternalServerError(c, "Failed to check token status")
		}

		if session.Expired(time.Now()) {
			return response.Unauthorized(c, "Token has expired")
		}

		c.Locals("user_id", session.UserID)
		c.Locals("user", &session.User)
		c.Locals("session_token", session.Token)

		return c.Next()
	}
}

// RequireAdmin rejects authenticated users without the admin role. Must run
// after Required.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok {
			return response.Unauthorized(c, "Missing authorization token")
		}
		if !user.IsAdmin() {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetSessionToken extracts the session token from context
func GetSessionToken(c *fiber.Ctx) (string, bool) {
	token := c.Locals("session_token")
	if token == nil {
		return "", false
	}
	t, ok := token.(string)
	return t, ok
}

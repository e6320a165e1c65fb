package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
	"github.com/hearthchat/api/utils/auth"
	"github.com/hearthchat/api/utils/middleware"
	"github.com/hearthchat/api/utils/response"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Login verifies credentials and issues an opaque 24h session token
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	ip := c.IP()

	user, err := h.store.GetUserByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Failed attempts count even when the account does not exist so
			// enumeration costs the same as wrong passwords.
			if h.bruteForce != nil {
				h.bruteForce.RecordFailedAttempt(c, ip)
			}
			return response.Unauthorized(c, "Invalid email or password")
		}
		return response.InternalServerError(c, "Failed to log in")
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if h.bruteForce != nil {
			h.bruteForce.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	if user.Status != model.StatusActive {
		return response.Forbidden(c, "Account is not verified")
	}

	if h.bruteForce != nil {
		h.bruteForce.RecordSuccessfulAttempt(c, ip)
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return response.InternalServerError(c, "Failed to create session")
	}

	now := time.Now()
	session := &model.Session{
		Token:      token,
		UserID:     user.ID,
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		IPAddress:  ip,
		UserAgent:  c.Get("User-Agent"),
		ExpiresAt:  now.Add(model.SessionTTL),
	}
	if err := h.store.CreateSession(c.Context(), session); err != nil {
		return response.InternalServerError(c, "Failed to create session")
	}

	user.LastLoginAt = &now
	if err := h.store.UpdateUser(c.Context(), user); err != nil {
		h.logger.Warn("failed to stamp last login")
	}

	return response.Success(c, LoginResponse{
		User:      toUserResponse(user),
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout deletes the current session
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, ok := middleware.GetSessionToken(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	if err := h.store.DeleteSessionByToken(c.Context(), token); err != nil && !errors.Is(err, database.ErrNotFound) {
		return response.InternalServerError(c, "Failed to log out")
	}

	return response.Success(c, fiber.Map{"message": "Logged out"})
}

package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
	"github.com/hearthchat/api/services"
	"github.com/hearthchat/api/utils/auth"
	"github.com/hearthchat/api/utils/middleware"
	"github.com/hearthchat/api/utils/response"
	"github.com/hearthchat/api/utils/validation"
	"go.uber.org/zap"
)

// AuthHandler handles registration, verification and session endpoints
type AuthHandler struct {
	store        database.Storage
	emailService *services.EmailService
	bruteForce   *middleware.BruteForceProtection
	validator    *validation.Validator
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store database.Storage, emailService *services.EmailService, bruteForce *middleware.BruteForceProtection, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		store:        store,
		emailService: emailService,
		bruteForce:   bruteForce,
		validator:    validation.NewValidator(),
		logger:       logger,
	}
}

// UserResponse is the public shape of a user account
type UserResponse struct {
	ID            uint       `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	DailyMessages int        `json:"daily_messages"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.Role,
		Status:        user.Status,
		DailyMessages: user.DailyMessages,
		AvatarURL:     user.AvatarURL,
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// RegisterRequest represents a new account request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

// Register creates a pending account and emails a verification code. A mail
// delivery failure does not fail registration; the code is logged instead.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = validation.SanitizeString(req.Email)
	req.Name = validation.SanitizeString(req.Name)

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	if _, err := h.store.GetUserByEmail(c.Context(), req.Email); err == nil {
		return response.Conflict(c, "An account with this email already exists")
	} else if !errors.Is(err, database.ErrNotFound) {
		return response.InternalServerError(c, "Failed to check existing accounts")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}

	user := &model.User{
		Email:         req.Email,
		PasswordHash:  passwordHash,
		Name:          req.Name,
		Role:          model.RolePending,
		Status:        model.StatusPending,
		DailyMessages: model.DefaultDailyMessages,
	}
	if err := h.store.CreateUser(c.Context(), user); err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}

	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return response.InternalServerError(c, "Failed to create verification code")
	}

	verification := &model.VerificationCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(model.VerificationCodeTTL),
	}
	if err := h.store.CreateVerificationCode(c.Context(), verification); err != nil {
		return response.InternalServerError(c, "Failed to create verification code")
	}

	if err := h.emailService.SendVerificationEmail(user.Email, user.Name, code); err != nil {
		h.logger.Warn("verification email delivery failed",
			zap.String("email", user.Email),
			zap.Error(err))
	}

	return response.Created(c, fiber.Map{
		"user":    toUserResponse(user),
		"message": "Account created. Check your email for the verification code.",
	})
}

// VerifyRequest represents an account verification request
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// Verify consumes a verification code and activates the account
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = validation.SanitizeString(req.Email)
	req.Code = validation.SanitizeString(req.Code)

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	user, err := h.store.GetUserByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.BadRequest(c, "Invalid verification code")
		}
		return response.InternalServerError(c, "Failed to verify account")
	}

	if user.Status == model.StatusActive {
		return response.Success(c, fiber.Map{
			"user":    toUserResponse(user),
			"message": "Account already verified",
		})
	}

	now := time.Now()
	code, err := h.store.GetUsableVerificationCode(c.Context(), user.ID, req.Code, now)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return response.BadRequest(c, "Invalid verification code")
		}
		return response.InternalServerError(c, "Failed to verify account")
	}

	if err := h.store.MarkVerificationCodeUsed(c.Context(), code.ID, now); err != nil {
		return response.InternalServerError(c, "Failed to verify account")
	}

	user.Status = model.StatusActive
	if user.Role == model.RolePending {
		user.Role = model.RoleChild
	}
	if err := h.store.UpdateUser(c.Context(), user); err != nil {
		return response.InternalServerError(c, "Failed to verify account")
	}

	return response.Success(c, fiber.Map{
		"user":    toUserResponse(user),
		"message": "Account verified",
	})
}

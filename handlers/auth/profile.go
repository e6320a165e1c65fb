package auth

import (
	"encoding/json"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/services/storage"
	"github.com/hearthchat/api/utils/middleware"
	"github.com/hearthchat/api/utils/response"
	"github.com/hearthchat/api/utils/validation"
	"gorm.io/datatypes"
)

// maxAvatarSize caps avatar uploads at 5 MB
const maxAvatarSize = 5 * 1024 * 1024

// GetProfile returns the authenticated user's account
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	return response.Success(c, fiber.Map{"user": toUserResponse(user)})
}

// UpdateProfileRequest represents a profile update. All fields are optional;
// only provided fields change.
type UpdateProfileRequest struct {
	Name             *string         `json:"name" validate:"omitempty,min=1,max=100"`
	AgentPersonality *string         `json:"agent_personality" validate:"omitempty,max=2000"`
	Settings         json.RawMessage `json:"settings"`
}

// UpdateProfile changes name, agent personality or settings
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Name != nil {
		user.Name = validation.SanitizeString(*req.Name)
	}
	if req.AgentPersonality != nil {
		user.AgentPersonality = validation.SanitizeString(*req.AgentPersonality)
	}
	if len(req.Settings) > 0 {
		if !json.Valid(req.Settings) {
			return response.BadRequest(c, "settings must be valid JSON")
		}
		user.Settings = datatypes.JSON(req.Settings)
	}

	if err := h.store.UpdateUser(c.Context(), user); err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.Success(c, fiber.Map{"user": toUserResponse(user)})
}

// UploadAvatar stores a new avatar image and updates the profile URL.
// Requires an S3-compatible store to be configured.
func (h *AuthHandler) UploadAvatar(spaces *storage.SpacesClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := middleware.GetUser(c)
		if !ok {
			return response.Unauthorized(c, "Missing authorization token")
		}

		if spaces == nil {
			return response.InternalServerError(c, "Avatar storage is not configured")
		}

		fileHeader, err := c.FormFile("avatar")
		if err != nil {
			return response.BadRequest(c, "avatar file is required")
		}
		if fileHeader.Size > maxAvatarSize {
			return response.BadRequest(c, "Avatar must be 5MB or smaller")
		}

		contentType := fileHeader.Header.Get("Content-Type")
		key, err := storage.AvatarKey(user.ID, contentType)
		if err != nil {
			return response.BadRequest(c, "Avatar must be a JPEG, PNG, GIF or WebP image")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return response.InternalServerError(c, "Failed to read avatar")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return response.InternalServerError(c, "Failed to read avatar")
		}

		url, err := spaces.UploadBytes(c.Context(), key, data, contentType)
		if err != nil {
			return response.InternalServerError(c, "Failed to store avatar")
		}

		user.AvatarURL = url
		if err := h.store.UpdateUser(c.Context(), user); err != nil {
			return response.InternalServerError(c, "Failed to update profile")
		}

		return response.Success(c, fiber.Map{"avatar_url": url})
	}
}

package chat

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/services"
	"github.com/hearthchat/api/utils/middleware"
	"github.com/hearthchat/api/utils/response"
	"github.com/hearthchat/api/utils/validation"
)

// ChatHandler exposes the chat pipeline over HTTP
type ChatHandler struct {
	service *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// SendMessageRequest represents one chat turn
type SendMessageRequest struct {
	Message  string `json:"message"`
	ThreadID uint   `json:"thread_id"`
}

// SendMessageResponse is the assistant's reply
type SendMessageResponse struct {
	Response string `json:"response"`
	ThreadID uint   `json:"thread_id"`
}

// SendMessage runs one chat turn through the pipeline
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}
	if !user.CanChat() {
		return response.Forbidden(c, "Account is not verified")
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Message = validation.SanitizeString(req.Message)
	if req.Message == "" {
		return response.BadRequest(c, "message is required")
	}

	result, err := h.service.SendMessage(c.Context(), user, req.ThreadID, req.Message)
	if err != nil {
		return mapChatError(c, err)
	}

	return response.Success(c, SendMessageResponse{
		Response: result.Response,
		ThreadID: result.ThreadID,
	})
}

// mapChatError translates pipeline sentinels into the HTTP error envelope
func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrRateLimited):
		return response.TooManyRequests(c, "Daily message limit reached")
	case errors.Is(err, services.ErrContentRejected):
		return response.BadRequest(c, "Message contains blocked content")
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "Thread not found")
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return response.BadGateway(c, "AI service is unavailable. Please try again.")
	default:
		return response.InternalServerError(c, "Failed to process message")
	}
}

// ListThreads returns the user's threads, newest activity first
func (h *ChatHandler) ListThreads(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	threads, total, err := h.service.ListThreads(c.Context(), user.ID, pagination.PerPage, offset)
	if err != nil {
		return response.InternalServerError(c, "Failed to list threads")
	}

	return response.Paginated(c, threads, response.CalculatePagination(page, limit, total))
}

// ListMessages returns a thread's messages in order
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	threadID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid thread id")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	messages, total, err := h.service.ListMessages(c.Context(), user.ID, threadID, pagination.PerPage, offset)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Thread not found")
		}
		return response.InternalServerError(c, "Failed to list messages")
	}

	return response.Paginated(c, messages, response.CalculatePagination(page, limit, total))
}

// DeleteThread removes a thread the user owns
func (h *ChatHandler) DeleteThread(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	threadID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid thread id")
	}

	if err := h.service.DeleteThread(c.Context(), user.ID, threadID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Thread not found")
		}
		return response.InternalServerError(c, "Failed to delete thread")
	}

	return response.Success(c, fiber.Map{"message": "Thread deleted"})
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

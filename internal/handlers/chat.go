package handlers

import (
	"errors"

	"daybook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatHandler feeds user messages into the conversation session
type ChatHandler struct {
	session *services.SessionService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(session *services.SessionService) *ChatHandler {
	return &ChatHandler{session: session}
}

// Send submits one user message through the pipeline and returns the
// resulting assistant turn (plus the persisted entry, if the turn produced
// one). A submission while another is pending is rejected with 409.
// POST /api/chat
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.session.Submit(c.Context(), req.Message)
	if err != nil {
		if errors.Is(err, services.ErrSubmissionInFlight) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A message is already being processed",
			})
		}
		if errors.Is(err, services.ErrConstraintViolation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "message is required",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process message",
		})
	}

	response := fiber.Map{
		"turn": result.Turn,
	}
	if result.Entry != nil {
		response["entry"] = result.Entry
	}

	return c.JSON(response)
}

// History returns the session's ordered turn sequence
// GET /api/chat/history
func (h *ChatHandler) History(c *fiber.Ctx) error {
	return c.JSON(h.session.History())
}

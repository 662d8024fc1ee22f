package handlers

import (
	"errors"

	"daybook/internal/models"
	"daybook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// EntryHandler handles diary entry HTTP requests
type EntryHandler struct {
	entryService *services.EntryService
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(entryService *services.EntryService) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// List returns all diary entries, most recent first
// GET /api/entries
func (h *EntryHandler) List(c *fiber.Ctx) error {
	entries, err := h.entryService.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to list entries",
		})
	}

	return c.JSON(entries)
}

// Create persists a new diary entry
// POST /api/entries
func (h *EntryHandler) Create(c *fiber.Ctx) error {
	var req models.CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	entry, err := h.entryService.Create(c.Context(), req.Content, req.Summary, req.Learning)
	if err != nil {
		if errors.Is(err, services.ErrConstraintViolation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "content, summary and learning are required",
			})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to create entry",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": entry.ID,
	})
}

package handlers

import (
	"errors"

	"daybook/internal/models"
	"daybook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PreferenceHandler handles preference HTTP requests
type PreferenceHandler struct {
	preferenceService *services.PreferenceService
}

// NewPreferenceHandler creates a new preference handler
func NewPreferenceHandler(preferenceService *services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService}
}

// List returns the full preference mapping
// GET /api/preferences
func (h *PreferenceHandler) List(c *fiber.Ctx) error {
	prefs, err := h.preferenceService.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to list preferences",
		})
	}

	return c.JSON(prefs)
}

// Upsert inserts or replaces one preference pair
// POST /api/preferences
func (h *PreferenceHandler) Upsert(c *fiber.Ctx) error {
	var req models.UpsertPreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.preferenceService.Upsert(c.Context(), req.Key, req.Value); err != nil {
		if errors.Is(err, services.ErrConstraintViolation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "key is required",
			})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Failed to save preference",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

package handlers

import (
	"time"

	"daybook/internal/database"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	databaseStatus := "ok"
	if err := h.db.Ping(); err != nil {
		databaseStatus = "unreachable"
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"database":  databaseStatus,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/database"
)

var startedAt = time.Now()

type healthStatus struct {
	Database       string  `json:"database"`
	ResponseTimeMs int64   `json:"response_time_ms"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// HealthHandler reports whether the API can reach its database.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	start := time.Now()
	status := healthStatus{Database: "up", UptimeSeconds: time.Since(startedAt).Seconds()}

	err := database.Ping(h.db.WithContext(c.UserContext()))
	status.ResponseTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		status.Database = "down"
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "data": status})
	}
	return sendData(c, fiber.StatusOK, status)
}

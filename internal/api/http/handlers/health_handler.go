package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civicchain/civic-service/internal/persistence"
)

// HealthHandler exposes liveness/readiness probes.
type HealthHandler struct {
	pg    *persistence.Postgres
	redis *persistence.Redis
}

// NewHealthHandler constructs handler.
func NewHealthHandler(pg *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{pg: pg, redis: redis}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	checks := fiber.Map{}
	healthy := true

	if h.pg != nil && h.pg.Pool != nil {
		if err := h.pg.Pool.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"checks": checks})
}

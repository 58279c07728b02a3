package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"jobscout/internal/pkg/response"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

type healthResponse struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// Health reports 503 only when the database is down. The cache is optional.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	res := healthResponse{Database: pingStatus(ctx, h.db), Cache: pingStatus(ctx, h.cache)}
	if res.Database != "up" {
		return response.Error(c, fiber.StatusServiceUnavailable, response.MessageServiceUnavailable, res)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}

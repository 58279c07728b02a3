package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobscout/internal/delivery/http/handler"
	"jobscout/internal/delivery/http/middleware"
	"jobscout/internal/ws"
)

// Handlers groups everything the registry mounts. Nil handlers are skipped.
type Handlers struct {
	Health        *handler.HealthHandler
	Embeddings    *handler.EmbeddingHandler
	Matches       *handler.MatchHandler
	Notifications *handler.NotificationHandler
	Resumes       *handler.ResumeHandler
	Realtime      *ws.Handler
}

type Registry struct {
	handlers Handlers
	auth     *middleware.AuthMiddleware
}

func NewRegistry(handlers Handlers, auth *middleware.AuthMiddleware) *Registry {
	return &Registry{handlers: handlers, auth: auth}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(app)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	if r.auth == nil {
		return
	}
	v1 := app.Group("/api/v1", r.auth.Middleware())

	if h := r.handlers.Matches; h != nil {
		h.RegisterRoutes(v1)
	}
	if h := r.handlers.Resumes; h != nil {
		h.RegisterRoutes(v1)
	}
	if h := r.handlers.Realtime; h != nil {
		v1.Get("/ws/matches", h.HandleMatchesWS)
	}

	admin := v1.Group("/admin", r.auth.RequireAdmin())
	if h := r.handlers.Embeddings; h != nil {
		h.RegisterRoutes(admin)
	}
	if h := r.handlers.Matches; h != nil {
		h.RegisterAdminRoutes(admin)
	}
	if h := r.handlers.Notifications; h != nil {
		h.RegisterRoutes(admin)
	}
}

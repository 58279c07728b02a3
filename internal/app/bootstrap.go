package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"jobscout/internal/config"
	"jobscout/internal/delivery/http/handler"
	"jobscout/internal/delivery/http/middleware"
	"jobscout/internal/delivery/http/routes"
	"jobscout/internal/pkg/jwt"
	"jobscout/internal/schedule"
	"jobscout/internal/ws"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
	Scheduler *schedule.CronScheduler
}

// New builds the HTTP surface over an assembled container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)

	auth := middleware.NewAuthMiddleware(jwt.NewHMACService(c.Config.JWT.AccessSecret, 0))
	routes.NewRegistry(routes.Handlers{
		Health:        handler.NewHealthHandler(c.DB, c.Cache),
		Embeddings:    handler.NewEmbeddingHandler(c.Pipeline, c.Embeddings),
		Matches:       handler.NewMatchHandler(c.Matching, c.Config.Matching.DefaultMinScore),
		Notifications: handler.NewNotificationHandler(c.Notifications, c.Matching, c.Config.Notification.SweepLimit),
		Resumes:       handler.NewResumeHandler(c.Resumes, c.Pipeline),
		Realtime:      ws.NewHandler(c.Hub, middleware.UserID, c.Logger),
	}, auth).Register(f)

	return &App{Fiber: f, Container: c}
}

// Bootstrap assembles the container, starts the websocket hub and the
// notification sweep, and returns the app with its cleanup.
func Bootstrap(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, log, Options{})
	if err != nil {
		return nil, nil, err
	}

	app := New(c)

	hubCtx, stopHub := context.WithCancel(context.Background())
	go c.Hub.Run(hubCtx)

	sched := schedule.NewCronScheduler(log)
	if err := sched.AddJob(schedule.NewSweepJob(c.Notifications, cfg.Notification.SweepLimit), cfg.Notification.SweepCron); err != nil {
		stopHub()
		_ = c.Close()
		return nil, nil, fmt.Errorf("schedule notification sweep: %w", err)
	}
	sched.Start(ctx)
	app.Scheduler = sched

	cleanup := func() error {
		sched.Stop()
		stopHub()
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, log *zap.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(log).Middleware())
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 10 * time.Second

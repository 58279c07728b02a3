package ws

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"jobscout/internal/pkg/logger"
)

// RecipientFunc resolves the authenticated recipient of a request.
type RecipientFunc func(c fiber.Ctx) (uuid.UUID, bool)

type Handler struct {
	hub       *Hub
	recipient RecipientFunc
	logger    *zap.Logger
}

func NewHandler(hub *Hub, recipient RecipientFunc, log *zap.Logger) *Handler {
	return &Handler{hub: hub, recipient: recipient, logger: logger.Component(log, "ws")}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleMatchesWS upgrades the request and streams the caller's match
// notifications.
func (h *Handler) HandleMatchesWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}
	if h.recipient == nil {
		return fiber.ErrUnauthorized
	}
	recipientID, ok := h.recipient(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("ws upgrade failed", zap.String(logger.FieldStatus, "error"), zap.Error(err))
			return
		}

		client := NewClient(h.hub, conn, recipientID)
		if !h.hub.Register(client) {
			_ = conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}

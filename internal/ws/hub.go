package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobscout/internal/pkg/logger"
)

const outboxSize = 1024

type frame struct {
	to   uuid.UUID
	data []byte
}

// Hub fans notification frames out to every open connection of their
// recipient. A connection that cannot keep up is dropped rather than
// allowed to stall the others.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Client]struct{}

	outbox chan frame
	joins  chan *Client
	leaves chan *Client
	done   chan struct{}
	stop   sync.Once
	log    *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Client]struct{}),
		outbox: make(chan frame, outboxSize),
		joins:  make(chan *Client, 128),
		leaves: make(chan *Client, 128),
		done:   make(chan struct{}),
		log:    logger.Component(log, "ws"),
	}
}

// Run owns membership changes and delivery until ctx is done, then closes
// every connection. Register and Unregister stop blocking once it returns.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.joins:
			h.join(c)
		case c := <-h.leaves:
			h.leave(c)
		case f := <-h.outbox:
			h.deliver(f)
		}
	}
}

func (h *Hub) join(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	room := h.rooms[c.recipientID]
	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[c.recipientID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("ws connected", zap.String("recipient_id", c.recipientID.String()), zap.Int("total_clients", h.ClientCount()))
}

func (h *Hub) leave(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	if room, ok := h.rooms[c.recipientID]; ok {
		if _, ok := room[c]; ok {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, c.recipientID)
		}
	}
	h.mu.Unlock()
	h.log.Debug("ws disconnected", zap.String("recipient_id", c.recipientID.String()))
}

func (h *Hub) deliver(f frame) {
	h.mu.RLock()
	var slow []*Client
	delivered := 0
	for c := range h.rooms[f.to] {
		select {
		case c.send <- f.data:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("ws client too slow, dropping", zap.String(logger.FieldStatus, "dropped"), zap.String("recipient_id", f.to.String()))
		h.leave(c)
	}
	h.log.Debug("ws delivered", zap.String("recipient_id", f.to.String()), zap.Int("clients", delivered))
}

func (h *Hub) shutdown() {
	h.stop.Do(func() { close(h.done) })
	h.closeAll()
	for {
		select {
		case c := <-h.joins:
			if c != nil {
				close(c.send)
			}
		default:
			return
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for c := range room {
			close(c.send)
		}
		delete(h.rooms, id)
	}
}

// Register queues c for membership. It reports false when the hub has
// stopped, in which case c was not added.
func (h *Hub) Register(c *Client) bool {
	if h == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.joins <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	if h == nil {
		return
	}
	select {
	case h.leaves <- c:
	case <-h.done:
	}
}

// SendTo queues data for every connection of recipient without blocking. It
// reports false when the outbox is full and the frame was dropped.
func (h *Hub) SendTo(recipient uuid.UUID, data []byte) bool {
	if h == nil {
		return false
	}
	select {
	case h.outbox <- frame{to: recipient, data: data}:
		return true
	default:
		h.log.Warn("ws frame dropped", zap.String(logger.FieldStatus, "dropped"), zap.String("reason", "outbox_full"))
		return false
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

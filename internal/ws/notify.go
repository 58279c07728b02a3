package ws

import (
	"encoding/json"

	"jobscout/internal/domain/notification"
)

// Event is the frame pushed to websocket clients.
type Event struct {
	Type    string               `json:"type"`
	Payload notification.Payload `json:"payload"`
}

// Publish pushes p to the recipient's open connections. It reports whether the
// frame was queued.
func (h *Hub) Publish(p notification.Payload) bool {
	if h == nil {
		return false
	}
	b, err := json.Marshal(Event{Type: p.Type, Payload: p})
	if err != nil {
		return false
	}
	return h.SendTo(p.RecipientID, b)
}

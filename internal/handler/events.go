package handler

import (
	"log/slog"
	"net/http"
	gosync "sync"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/zenjispace/zenjid/internal/sync"
)

// Event is one pushed frame, same shape as request replies.
type Event struct {
	Command string `json:"command"`
	Payload any    `json:"payload,omitempty"`
}

// EventHub pushes events to every connected dashboard over websocket. It is
// the daemon's half of the host→UI message channel: completion of a sync run
// (auto or explicit) arrives here as a syncComplete frame.
//
// Slow consumers are dropped rather than allowed to block a broadcast.
type EventHub struct {
	logger *slog.Logger

	mu   gosync.Mutex
	subs map[chan Event]struct{}
}

var _ sync.Publisher = (*EventHub)(nil)

// NewEventHub creates the hub.
func NewEventHub(logger *slog.Logger) *EventHub {
	return &EventHub{
		logger: logger,
		subs:   make(map[chan Event]struct{}),
	}
}

// SyncCompleted implements sync.Publisher.
func (h *EventHub) SyncCompleted(result sync.Result) {
	h.Broadcast(Event{Command: "syncComplete", Payload: result})
}

// Broadcast sends an event to every subscriber. Non-blocking: a subscriber
// whose buffer is full misses the event.
func (h *EventHub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *EventHub) subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// HandleEvents upgrades the connection and streams events until the client
// disconnects.
//
// GET /api/events
func (h *EventHub) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event := <-ch:
			if err := wsjson.Write(ctx, conn, event); err != nil {
				h.logger.Debug("event subscriber dropped", slog.String("error", err.Error()))
				return
			}
		}
	}
}

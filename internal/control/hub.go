package control

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultHistorySize = 50

// StatusEvent is one observability event shown on the operator console.
type StatusEvent struct {
	Kind      string    `json:"kind"`
	MessageID string    `json:"messageId,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Category  string    `json:"category,omitempty"`
	Lang      string    `json:"lang,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Event kinds emitted by the pipeline and the operator API.
const (
	EventMessageReceived  = "message-received"
	EventCycleSkipped     = "cycle-skipped"
	EventExtractionFailed = "extraction-failed"
	EventDispatchSent     = "dispatch-sent"
	EventDispatchSkipped  = "dispatch-skipped"
	EventDispatchError    = "dispatch-error"
	EventBroadcastSent    = "broadcast-sent"
	EventBroadcastSkipped = "broadcast-skipped"
	EventCycleDone        = "cycle-done"
	EventAutomationSet    = "automation-set"
)

// Hub fans status events out to connected operator consoles and keeps a
// short replay history for consoles that connect mid-stream.
type Hub struct {
	mu          sync.Mutex
	conns       map[*websocket.Conn]struct{}
	history     []StatusEvent
	historySize int
}

// NewHub builds a hub keeping historySize events for replay.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Hub{
		conns:       make(map[*websocket.Conn]struct{}),
		historySize: historySize,
	}
}

// Join replays the recent history to a console connection and registers it.
// Replay and registration happen under the hub lock so a concurrent Broadcast
// can neither interleave with the replay writes nor slip an event between
// them. A replay write failure leaves the connection unregistered.
func (h *Hub) Join(ws *websocket.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range h.history {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			return err
		}
	}
	h.conns[ws] = struct{}{}
	return nil
}

// Leave drops and closes a console connection.
func (h *Hub) Leave(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Broadcast records the event and writes it to every console. A connection
// that fails the write is closed and dropped.
func (h *Hub) Broadcast(ev StatusEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, ev)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}

	for ws := range h.conns {
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = ws.Close()
			delete(h.conns, ws)
		}
	}
}

// History returns a copy of the replay buffer.
func (h *Hub) History() []StatusEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]StatusEvent(nil), h.history...)
}

package controlplane

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/engine"
	"github.com/fentz26/worldtime/internal/models"
)

const writeWait = 10 * time.Second

// ClockSnapshot is pushed to watchers after every processed phase.
type ClockSnapshot struct {
	SessionID string         `json:"session_id"`
	Phase     engine.Phase   `json:"phase"`
	Mode      models.Mode    `json:"mode"`
	Anchor    anchor.Anchor  `json:"anchor"`
	Current   anchor.Moment  `json:"current"`
	Marker    string         `json:"marker"`
	Events    []engine.Event `json:"events,omitempty"`
	At        time.Time      `json:"at"`
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteMessage sends a websocket message guarded by the subscriber's mutex and write deadline.
func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

// Hub fans clock snapshots out to the websocket watchers of each session.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[string]map[*subscriber]struct{}), logger: logger}
}

// Subscribe registers conn for a session and returns the function that
// removes it again.
func (h *Hub) Subscribe(sessionID string, conn *websocket.Conn) func() {
	sub := &subscriber{conn: conn}
	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		h.remove(sessionID, sub)
		h.mu.Unlock()
		conn.Close()
	}
}

// remove assumes h.mu is held.
func (h *Hub) remove(sessionID string, sub *subscriber) {
	set := h.subs[sessionID]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sessionID)
	}
}

// Watchers returns the number of connections watching a session.
func (h *Hub) Watchers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}

// Broadcast sends snap to every watcher of its session. Watchers whose
// write fails are dropped.
func (h *Hub) Broadcast(snap ClockSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("failed to marshal clock snapshot", "error", err)
		return
	}

	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs[snap.SessionID]))
	for sub := range h.subs[snap.SessionID] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("dropping watcher", "session", snap.SessionID, "error", err)
			h.mu.Lock()
			h.remove(snap.SessionID, sub)
			h.mu.Unlock()
			sub.conn.Close()
		}
	}
}

// Close disconnects every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.subs {
		for sub := range set {
			sub.conn.Close()
		}
		delete(h.subs, id)
	}
}

package controlplane

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fentz26/worldtime/internal/engine"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

const maxBodyBytes = 4 << 20

// Server provides the HTTP API of the daemon.
type Server struct {
	service  *Service
	store    *store.Store
	addr     string
	server   *http.Server
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, st *store.Store, addr string) *Server {
	return &Server{
		service: service,
		store:   st,
		addr:    addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: service.logger,
	}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Session endpoints
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/sessions/", s.handleSessionByID)

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("starting worldtime daemon", "addr", s.addr, "version", Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.service.hub.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		resp.OK = false
		resp.DB = "error: " + err.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// handleSessions handles POST /sessions and GET /sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createSession(w, r)
	case http.MethodGet:
		s.listSessions(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSessionByID handles /sessions/{id}/*
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.Split(path, "/")

	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "session id required", http.StatusBadRequest)
		return
	}

	sessionID := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getSession(w, sessionID)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteSession(w, sessionID)
	case action == "cards" && r.Method == http.MethodGet:
		s.listCards(w, sessionID)
	case action == "cards" && r.Method == http.MethodPut:
		s.putCard(w, r, sessionID)
	case action == "ledger" && r.Method == http.MethodGet:
		s.getLedger(w, sessionID)
	case action == "decisions" && r.Method == http.MethodGet:
		s.listDecisions(w, r, sessionID)
	case action == "watch" && r.Method == http.MethodGet:
		s.watch(w, r, sessionID)
	case r.Method == http.MethodPost:
		phase, ok := engine.ParsePhase(action)
		if !ok {
			http.Error(w, ErrInvalidPhase.Error()+": "+action, http.StatusNotFound)
			return
		}
		s.runPhase(w, r, sessionID, phase)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type createSessionRequest struct {
	Mode models.Mode `json:"mode"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && err != io.EOF {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	sess, err := s.service.CreateSession(req.Mode)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sess)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, sessions)
}

func (s *Server) getSession(w http.ResponseWriter, id string) {
	sess, err := s.service.GetSession(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, id string) {
	if err := s.service.DeleteSession(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runPhase(w http.ResponseWriter, r *http.Request, id string, phase engine.Phase) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	var turn engine.Turn
	if err := decodeValidated(turnSchema, raw, &turn); err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.service.RunPhase(id, phase, turn)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if res.Events == nil {
		res.Events = []engine.Event{}
	}
	writeJSON(w, res)
}

func (s *Server) listCards(w http.ResponseWriter, id string) {
	list, err := s.service.Cards(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Card{}
	}
	writeJSON(w, list)
}

func (s *Server) putCard(w http.ResponseWriter, r *http.Request, id string) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	var card models.Card
	if err := decodeValidated(cardSchema, raw, &card); err != nil {
		s.writeError(w, err)
		return
	}

	saved, err := s.service.PutCard(id, card)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, saved)
}

func (s *Server) getLedger(w http.ResponseWriter, id string) {
	view, err := s.service.Ledger(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) listDecisions(w http.ResponseWriter, r *http.Request, id string) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	decisions, err := s.service.Decisions(id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if decisions == nil {
		decisions = []models.Decision{}
	}
	writeJSON(w, decisions)
}

// watch upgrades the request to a websocket that receives a clock
// snapshot after every processed phase of the session.
func (s *Server) watch(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.service.GetSession(id); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session", id, "error", err)
		return
	}
	unsubscribe := s.service.hub.Subscribe(id, conn)
	defer unsubscribe()

	// Watchers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeError maps service errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrInvalidMode), errors.Is(err, ErrCardTitle):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("request failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

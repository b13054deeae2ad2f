// Package controlplane provides the HTTP API and service layer of the
// worldtime daemon.
package controlplane

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fentz26/worldtime/internal/audit"
	"github.com/fentz26/worldtime/internal/cards"
	"github.com/fentz26/worldtime/internal/engine"
	"github.com/fentz26/worldtime/internal/ledger"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/session"
	"github.com/fentz26/worldtime/internal/store"
)

// Service provides the control plane business logic.
type Service struct {
	store       *store.Store
	pdr         *audit.PDRWriter
	engine      *engine.Engine
	hub         *Hub
	defaultMode models.Mode
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new control plane service.
func NewService(s *store.Store, pdr *audit.PDRWriter, eng *engine.Engine, hub *Hub, defaultMode models.Mode, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = NewHub(logger)
	}
	if !defaultMode.Valid() {
		defaultMode = models.ModeLightweight
	}
	return &Service{
		store:       s,
		pdr:         pdr,
		engine:      eng,
		hub:         hub,
		defaultMode: defaultMode,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
	}
}

// Hub returns the watcher hub.
func (s *Service) Hub() *Hub { return s.hub }

// lockFor returns the mutex that serializes phases of one session.
func (s *Service) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// --- Session Operations ---

// CreateSession starts a session with a fresh clock. An empty mode uses
// the configured default.
func (s *Service) CreateSession(mode models.Mode) (*models.Session, error) {
	if mode == "" {
		mode = s.defaultMode
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	state, err := json.Marshal(session.New(mode))
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	sess, err := s.store.CreateSession(mode, state)
	if err != nil {
		return nil, err
	}

	if _, err := s.pdr.Record(sess.ID, "session.create", map[string]string{"mode": string(mode)}, "success", ""); err != nil {
		s.logger.Warn("failed to record decision", "session", sess.ID, "error", err)
	}
	s.logger.Info("session created", "session", sess.ID, "mode", mode)
	return sess, nil
}

// GetSession retrieves a session by ID.
func (s *Service) GetSession(id string) (*models.Session, error) {
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// ListSessions returns every session.
func (s *Service) ListSessions() ([]models.Session, error) {
	return s.store.ListSessions()
}

// DeleteSession removes a session and everything recorded for it.
func (s *Service) DeleteSession(id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.DeleteSession(id); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
	s.logger.Info("session deleted", "session", id)
	return nil
}

// load reads the state and cards of a session. Callers hold its lock.
func (s *Service) load(id string) (*models.Session, session.State, *cards.Deck, error) {
	sess, err := s.GetSession(id)
	if err != nil {
		return nil, session.State{}, nil, err
	}
	st := session.New(sess.Mode)
	if len(sess.State) > 0 {
		if err := json.Unmarshal(sess.State, &st); err != nil {
			return nil, session.State{}, nil, fmt.Errorf("decode state of %s: %w", id, err)
		}
	}
	list, err := s.store.ListCards(id)
	if err != nil {
		return nil, session.State{}, nil, err
	}
	return sess, st, cards.NewDeck(list), nil
}

func (s *Service) save(id string, st session.State, deck *cards.Deck, d *models.Decision) error {
	state, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	err = s.store.SaveTurn(store.Snapshot{
		SessionID: id,
		Mode:      st.Mode,
		State:     state,
		Cards:     deck.Cards(),
		Decision:  d,
	})
	if errors.Is(err, store.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// --- Phase Operations ---

// RunPhase runs one engine phase for a session and persists the result.
// Phases of the same session never overlap.
func (s *Service) RunPhase(id string, phase engine.Phase, turn engine.Turn) (*engine.Result, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	_, st, deck, err := s.load(id)
	if err != nil {
		return nil, err
	}

	res := s.engine.Run(phase, st, deck, turn)

	kinds := make([]string, 0, len(res.Events))
	for _, ev := range res.Events {
		kinds = append(kinds, string(ev.Kind))
	}
	decision := s.pdr.Prepare(id, "phase."+string(phase), turn, "success", strings.Join(kinds, ","))
	if err := s.save(id, res.State, deck, decision); err != nil {
		return nil, fmt.Errorf("save %s phase: %w", phase, err)
	}

	s.logger.Debug("phase processed", "session", id, "phase", phase, "events", len(res.Events), "current", res.State.Current.String())
	s.hub.Broadcast(ClockSnapshot{
		SessionID: id,
		Phase:     phase,
		Mode:      res.State.Mode,
		Anchor:    res.State.Anchor,
		Current:   res.State.Current,
		Marker:    res.State.Marker(),
		Events:    res.Events,
		At:        time.Now().UTC(),
	})
	return &res, nil
}

// --- Card Operations ---

// Cards returns the cards of a session.
func (s *Service) Cards(id string) ([]models.Card, error) {
	if _, err := s.GetSession(id); err != nil {
		return nil, err
	}
	return s.store.ListCards(id)
}

// PutCard creates or replaces the card with the same title.
func (s *Service) PutCard(id string, card models.Card) (*models.Card, error) {
	if strings.TrimSpace(card.Title) == "" {
		return nil, ErrCardTitle
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	_, st, deck, err := s.load(id)
	if err != nil {
		return nil, err
	}
	saved := *deck.Upsert(card)
	decision := s.pdr.Prepare(id, "card.put", card, "success", saved.Title)
	if err := s.save(id, st, deck, decision); err != nil {
		return nil, err
	}
	return &saved, nil
}

// LedgerView is the decoded ledger of a session.
type LedgerView struct {
	Initialized bool            `json:"initialized"`
	Records     []ledger.Record `json:"records"`
}

// Ledger decodes a session's turn ledger.
func (s *Service) Ledger(id string) (*LedgerView, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	_, st, deck, err := s.load(id)
	if err != nil {
		return nil, err
	}
	l := s.engine.Ledger(st, deck)
	records := l.ParseAll()
	if records == nil {
		records = []ledger.Record{}
	}
	return &LedgerView{Initialized: l.Initialized(), Records: records}, nil
}

// Decisions returns the newest decision records of a session.
func (s *Service) Decisions(id string, limit int) ([]models.Decision, error) {
	if _, err := s.GetSession(id); err != nil {
		return nil, err
	}
	return s.store.ListDecisions(id, limit)
}

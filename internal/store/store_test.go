package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fentz26/worldtime/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestSessionCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	sess, err := s.CreateSession(models.ModeNormal, json.RawMessage(`{"mode":"normal"}`))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.ID == "" {
		t.Error("Session ID should not be empty")
	}

	got, err := s.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil || got.Mode != models.ModeNormal || string(got.State) != `{"mode":"normal"}` {
		t.Errorf("GetSession = %+v", got)
	}

	missing, err := s.GetSession("nope")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing session, got %+v", missing)
	}

	sessions, err := s.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("Expected 1 session, got %d", len(sessions))
	}

	if err := s.DeleteSession(sess.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if err := s.DeleteSession(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSaveTurn(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	sess, err := s.CreateSession(models.ModeLightweight, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	cards := []models.Card{
		{Title: "WTG Data", Type: "system", Entry: "[SETTIME_INITIALIZED]"},
		{ID: "c2", Title: "Mira", Type: "character", Keys: "Mira", Entry: "A smuggler."},
	}
	err = s.SaveTurn(Snapshot{
		SessionID: sess.ID,
		Mode:      models.ModeNormal,
		State:     json.RawMessage(`{"mode":"normal"}`),
		Cards:     cards,
		Decision:  &models.Decision{SessionID: sess.ID, Action: "output", InputsHash: "abc", Outcome: "ok"},
	})
	if err != nil {
		t.Fatalf("SaveTurn failed: %v", err)
	}

	got, err := s.ListCards(sess.ID)
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(got) != 2 || got[0].Title != "WTG Data" || got[1].ID != "c2" || got[1].Keys != "Mira" {
		t.Errorf("ListCards = %+v", got)
	}
	if got[0].ID == "" {
		t.Error("card ID should be assigned")
	}

	updated, _ := s.GetSession(sess.ID)
	if updated.Mode != models.ModeNormal {
		t.Errorf("Mode = %s, want normal", updated.Mode)
	}

	// A second save replaces the card set.
	if err := s.SaveTurn(Snapshot{SessionID: sess.ID, Mode: models.ModeNormal, State: json.RawMessage(`{}`), Cards: cards[1:]}); err != nil {
		t.Fatalf("SaveTurn failed: %v", err)
	}
	got, _ = s.ListCards(sess.ID)
	if len(got) != 1 {
		t.Errorf("Expected 1 card after replace, got %d", len(got))
	}

	decisions, err := s.ListDecisions(sess.ID, 0)
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(decisions) != 1 || decisions[0].Action != "output" {
		t.Errorf("ListDecisions = %+v", decisions)
	}
}

func TestSaveTurnMissingSession(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	err := s.SaveTurn(Snapshot{
		SessionID: "ghost",
		State:     json.RawMessage(`{}`),
		Cards:     []models.Card{{Title: "x"}},
		Decision:  &models.Decision{SessionID: "ghost", Action: "input", InputsHash: "h", Outcome: "ok"},
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound, got %v", err)
	}
	if cards, _ := s.ListCards("ghost"); len(cards) != 0 {
		t.Error("cards persisted for a failed save")
	}
	if decisions, _ := s.ListDecisions("ghost", 0); len(decisions) != 0 {
		t.Error("decision persisted for a failed save")
	}
}

func TestListDecisionsLimit(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	for i := 0; i < 3; i++ {
		if _, err := s.WriteDecision("s1", "context", "h", "ok", ""); err != nil {
			t.Fatalf("WriteDecision failed: %v", err)
		}
	}
	decisions, err := s.ListDecisions("s1", 2)
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(decisions) != 2 {
		t.Errorf("Expected 2 decisions, got %d", len(decisions))
	}
}

func newTestStore(t *testing.T) *Store {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}

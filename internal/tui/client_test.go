package tui

import (
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fentz26/worldtime/internal/audit"
	"github.com/fentz26/worldtime/internal/controlplane"
	"github.com/fentz26/worldtime/internal/engine"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	service := controlplane.NewService(st, audit.NewPDRWriter(st), engine.New(), nil, models.ModeNormal, nil)
	ts := httptest.NewServer(controlplane.NewServer(service, st, "").Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL)
}

func TestClientTurn(t *testing.T) {
	c := newTestClient(t)
	if !c.Ping() {
		t.Fatal("Ping failed")
	}

	info, err := c.CreateSession("")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if info.State.Mode != models.ModeNormal || info.State.Initialized {
		t.Errorf("fresh state = %+v", info.State)
	}

	story := &Story{}
	in, err := c.RunPhase(info.ID, engine.PhaseInput, story.Turn("[settime 02/14/2025 7:00 pm]"))
	if err != nil {
		t.Fatalf("RunPhase failed: %v", err)
	}
	if !strings.HasPrefix(in.Text, "[SYSTEM]") {
		t.Errorf("input text = %q", in.Text)
	}

	got, err := c.GetSession(info.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.State.Current.String() != "02/14/2025 7:00 PM" {
		t.Errorf("Current = %s", got.State.Current)
	}

	if _, err := c.PutCard(info.ID, models.Card{Title: "Harbor", Keys: "harbor", Entry: "Salt air."}); err != nil {
		t.Fatalf("PutCard failed: %v", err)
	}
	led, err := c.Ledger(info.ID)
	if err != nil {
		t.Fatalf("Ledger failed: %v", err)
	}
	if !led.Initialized {
		t.Error("expected initialized ledger")
	}
}

func TestClientErrors(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.GetSession("missing"); err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("GetSession(missing) = %v", err)
	}
	if _, err := c.CreateSession("epic"); err == nil {
		t.Error("expected error for invalid mode")
	}
}

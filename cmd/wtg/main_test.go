package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fentz26/worldtime/internal/config"
	"github.com/fentz26/worldtime/internal/engine"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a much longer action", 10, "a much ..."},
		{"über große Stadt", 8, "über ..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestTurnPayload(t *testing.T) {
	defer func() { turnText, turnFile, turnCount = "", "", 0 }()

	turnText, turnCount = "[sleep]", 4
	raw, err := turnPayload()
	if err != nil {
		t.Fatalf("turnPayload failed: %v", err)
	}
	var turn engine.Turn
	if err := json.Unmarshal(raw, &turn); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if turn.Text != "[sleep]" || turn.ActionCount != 4 {
		t.Errorf("turn = %+v", turn)
	}

	path := filepath.Join(t.TempDir(), "turn.json")
	body := `{"text":"x","history":[{"type":"do","text":"wait"}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	turnFile = path
	raw, err = turnPayload()
	if err != nil {
		t.Fatalf("turnPayload failed: %v", err)
	}
	if string(raw) != body {
		t.Errorf("payload = %s", raw)
	}
}

func TestNewEngineFromConfig(t *testing.T) {
	c := config.DefaultConfig()
	c.LedgerFormat = config.LedgerJSON
	if newEngine(c, nil) == nil {
		t.Fatal("newEngine returned nil")
	}
}

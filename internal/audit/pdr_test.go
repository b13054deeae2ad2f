package audit

import (
	"path/filepath"
	"testing"

	"github.com/fentz26/worldtime/internal/store"
)

func TestHashInputsStable(t *testing.T) {
	a := HashInputs(map[string]string{"text": "[sleep]"})
	b := HashInputs(map[string]string{"text": "[sleep]"})
	c := HashInputs(map[string]string{"text": "[reset]"})
	if a != b || a == c || len(a) != 64 {
		t.Errorf("unexpected hashes: %s %s %s", a, b, c)
	}
	if got := HashInputs(make(chan int)); got != "hash_error" {
		t.Errorf("HashInputs(chan) = %s", got)
	}
}

func TestRecord(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	w := NewPDRWriter(s)
	d, err := w.Record("s1", "session.create", map[string]string{"mode": "normal"}, "ok", "")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if d.ID == "" || d.InputsHash == "" {
		t.Errorf("decision = %+v", d)
	}

	p := w.Prepare("s1", "input", "x", "ok", "command")
	if p.SessionID != "s1" || p.InputsHash != HashInputs("x") || p.Timestamp.IsZero() {
		t.Errorf("Prepare = %+v", p)
	}
}

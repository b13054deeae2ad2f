// Package audit builds decision records for processed phases.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/store"
)

// PDRWriter writes decision records for audit trails.
type PDRWriter struct {
	store *store.Store
}

// NewPDRWriter creates a new decision writer.
func NewPDRWriter(s *store.Store) *PDRWriter {
	return &PDRWriter{store: s}
}

// Record writes a decision for an action taken outside a turn.
func (w *PDRWriter) Record(sessionID, action string, inputs interface{}, outcome, details string) (*models.Decision, error) {
	return w.store.WriteDecision(sessionID, action, HashInputs(inputs), outcome, details)
}

// Prepare builds a decision to be saved together with a turn.
func (w *PDRWriter) Prepare(sessionID, action string, inputs interface{}, outcome, details string) *models.Decision {
	return &models.Decision{
		SessionID:  sessionID,
		Action:     action,
		InputsHash: HashInputs(inputs),
		Outcome:    outcome,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}
}

// HashInputs creates a SHA256 hash of the inputs for reproducibility.
func HashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Package rollback recovers the authoritative clock from history and
// detects when the player has edited or rewound turns the ledger already
// recorded.
package rollback

import (
	"github.com/fentz26/worldtime/internal/ledger"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/turntime"
)

// Source says where a recovered duration came from.
type Source string

const (
	SourceMarker Source = "marker"
	SourceLedger Source = "ledger"
	SourceNone   Source = "none"
)

// Scan is the clock recovered from history. Chars is the text volume not
// yet accounted for by Elapsed.
type Scan struct {
	Elapsed turntime.Duration
	Chars   int
	Source  Source
	// InLast is true when the newest history entry itself carries the
	// marker.
	InLast bool
}

// Found reports whether any authoritative duration was recovered.
func (s Scan) Found() bool { return s.Source != SourceNone }

// ScanHistory walks history newest first for a checkpoint marker, summing
// the length of every entry passed over. Without a marker it falls back
// to the ledger's last timestamp and counts only the newest entry; with
// neither it counts all of history.
func ScanHistory(history []models.HistoryEntry, l ledger.Ledger) Scan {
	var s Scan
	for i := len(history) - 1; i >= 0; i-- {
		if d, ok := turntime.FindLast(history[i].Text); ok {
			s.Elapsed = d
			s.Source = SourceMarker
			s.InLast = i == len(history)-1
			return s
		}
		s.Chars += len(history[i].Text)
	}

	if l != nil {
		if d, ok := l.LastTimestamp(); ok {
			s.Elapsed = d
			s.Source = SourceLedger
			s.Chars = 0
			if n := len(history); n > 0 {
				s.Chars = len(history[n-1].Text)
			}
			return s
		}
	}
	s.Source = SourceNone
	return s
}

// PreviousAction returns the newest player action before the current
// entry.
func PreviousAction(history []models.HistoryEntry) (models.HistoryEntry, bool) {
	for i := len(history) - 2; i >= 0; i-- {
		if history[i].Type.IsPlayerAction() {
			return history[i], true
		}
	}
	return models.HistoryEntry{}, false
}

// Outcome reports what a rollback check found and did.
type Outcome struct {
	Erased    bool              `json:"erased"`
	Recovered turntime.Duration `json:"recovered"`
	Pruned    int               `json:"pruned"`
}

// Detector compares history against the ledger.
type Detector struct {
	ledger ledger.Ledger
}

// NewDetector returns a detector over l.
func NewDetector(l ledger.Ledger) *Detector {
	return &Detector{ledger: l}
}

// Check treats any difference between the previous player action and the
// last recorded action as an erasure. On erasure the ledger is pruned to
// the duration recovered from history; nothing is pruned when that
// duration is zero.
func (d *Detector) Check(history []models.HistoryEntry) Outcome {
	var out Outcome
	records := d.ledger.ParseAll()
	if len(records) == 0 || len(history) < 2 {
		return out
	}
	prev, ok := PreviousAction(history)
	if !ok || prev.Text == records[len(records)-1].ActionText {
		return out
	}

	out.Erased = true
	scan := ScanHistory(history, d.ledger)
	out.Recovered = scan.Elapsed
	if scan.Found() && !scan.Elapsed.IsZero() {
		out.Pruned = d.ledger.PruneFuture(scan.Elapsed)
	}
	return out
}

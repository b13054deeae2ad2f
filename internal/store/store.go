// Package store provides SQLite-backed persistence for sessions, their
// cards and the decision records of processed phases.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/worldtime/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to the session database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL DEFAULT 'lightweight',
		state TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cards (
		id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		type TEXT,
		keys TEXT,
		entry TEXT,
		description TEXT,
		PRIMARY KEY (session_id, id),
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cards_session ON cards(session_id, position);
	CREATE INDEX IF NOT EXISTS idx_decisions_session ON decisions(session_id, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ErrSessionNotFound is returned by writes addressed to a missing session.
var ErrSessionNotFound = fmt.Errorf("session not found")

// --- Session Operations ---

// CreateSession inserts a new session with its initial engine state.
func (s *Store) CreateSession(mode models.Mode, state json.RawMessage) (*models.Session, error) {
	now := time.Now().UTC()
	sess := &models.Session{
		ID:        uuid.New().String(),
		Mode:      mode,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, mode, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Mode, string(sess.State), sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by ID. It returns nil when none exists.
func (s *Store) GetSession(id string) (*models.Session, error) {
	sess := &models.Session{}
	var state string

	err := s.db.QueryRow(
		`SELECT id, mode, state, created_at, updated_at FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.Mode, &state, &sess.CreatedAt, &sess.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	sess.State = json.RawMessage(state)
	return sess, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *Store) ListSessions() ([]models.Session, error) {
	rows, err := s.db.Query(`SELECT id, mode, state, created_at, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		var state string
		if err := rows.Scan(&sess.ID, &sess.Mode, &state, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.State = json.RawMessage(state)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session with its cards and decisions.
func (s *Store) DeleteSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM cards WHERE session_id = ?`,
		`DELETE FROM decisions WHERE session_id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("delete session rows: %w", err)
		}
	}
	result, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	} else if n == 0 {
		return ErrSessionNotFound
	}
	return tx.Commit()
}

// --- Card Operations ---

// ListCards returns a session's cards in host order.
func (s *Store) ListCards(sessionID string) ([]models.Card, error) {
	rows, err := s.db.Query(
		`SELECT id, title, type, keys, entry, description FROM cards WHERE session_id = ? ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		var typ, keys, entry, desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Title, &typ, &keys, &entry, &desc); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		c.Type, c.Keys, c.Entry, c.Description = typ.String, keys.String, entry.String, desc.String
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Snapshot is everything one processed phase persists.
type Snapshot struct {
	SessionID string
	Mode      models.Mode
	State     json.RawMessage
	Cards     []models.Card
	Decision  *models.Decision
}

// SaveTurn atomically replaces a session's state and cards and records
// the phase decision. On any error nothing is persisted.
func (s *Store) SaveTurn(snap Snapshot) error {
	tx, err := s.db.BeginTx(context.Background(), &sql.TxOptions{Isolation: sql.LevelDefault})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.Exec(
		`UPDATE sessions SET mode = ?, state = ?, updated_at = ? WHERE id = ?`,
		snap.Mode, string(snap.State), now, snap.SessionID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	} else if n == 0 {
		return ErrSessionNotFound
	}

	if _, err := tx.Exec(`DELETE FROM cards WHERE session_id = ?`, snap.SessionID); err != nil {
		return fmt.Errorf("clear cards: %w", err)
	}
	for i, c := range snap.Cards {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		_, err := tx.Exec(
			`INSERT INTO cards (id, session_id, position, title, type, keys, entry, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, snap.SessionID, i, c.Title, c.Type, c.Keys, c.Entry, c.Description,
		)
		if err != nil {
			return fmt.Errorf("insert card %q: %w", c.Title, err)
		}
	}

	if d := snap.Decision; d != nil {
		if err := insertDecision(tx, d); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- Decision Operations ---

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertDecision(x execer, d *models.Decision) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now().UTC()
	}
	_, err := x.Exec(
		`INSERT INTO decisions (id, session_id, action, inputs_hash, outcome, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SessionID, d.Action, d.InputsHash, d.Outcome, d.Details, d.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// WriteDecision records a decision outside of a turn.
func (s *Store) WriteDecision(sessionID, action, inputsHash, outcome, details string) (*models.Decision, error) {
	d := &models.Decision{
		SessionID:  sessionID,
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		Details:    details,
	}
	if err := insertDecision(s.db, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListDecisions returns a session's newest decisions first. A limit of
// zero or less returns all of them.
func (s *Store) ListDecisions(sessionID string, limit int) ([]models.Decision, error) {
	query := `SELECT id, session_id, action, inputs_hash, outcome, details, timestamp FROM decisions WHERE session_id = ? ORDER BY timestamp DESC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []models.Decision
	for rows.Next() {
		var d models.Decision
		var details sql.NullString
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Action, &d.InputsHash, &d.Outcome, &details, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Details = details.String
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

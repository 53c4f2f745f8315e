package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// DefaultRecentLimit caps Recent when no positive limit is given.
const DefaultRecentLimit = 50

// Event is one accepted emote switch.
type Event struct {
	ID            int64           `json:"id"`
	SessionID     string          `json:"session_id"`
	Label         string          `json:"label"`
	PreviousLabel string          `json:"previous_label"`
	SwitchedAt    time.Time       `json:"switched_at"`
	Metrics       json.RawMessage `json:"metrics"`
}

// EventRepository provides operations for emote events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an event and sets its ID.
func (r *EventRepository) Create(e *Event) error {
	if e.SwitchedAt.IsZero() {
		e.SwitchedAt = time.Now().UTC()
	}
	metrics := string(e.Metrics)
	if metrics == "" {
		metrics = "{}"
	}

	result, err := r.db.Exec(
		`INSERT INTO emote_events (session_id, label, previous_label, switched_at, metrics)
		 VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, e.Label, e.PreviousLabel, e.SwitchedAt, metrics,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id

	return nil
}

// ListBySession retrieves every event of a session in switch order.
func (r *EventRepository) ListBySession(sessionID string) ([]Event, error) {
	return r.query(
		`SELECT id, session_id, label, previous_label, switched_at, metrics
		 FROM emote_events WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
}

// Recent retrieves the latest events across all sessions, newest first.
func (r *EventRepository) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return r.query(
		`SELECT id, session_id, label, previous_label, switched_at, metrics
		 FROM emote_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
}

// CountByLabel returns how many times each label was switched to during a session.
func (r *EventRepository) CountByLabel(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT label, COUNT(*) FROM emote_events WHERE session_id = ? GROUP BY label`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *EventRepository) query(query string, args ...any) ([]Event, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var metrics string

		if err := rows.Scan(&e.ID, &e.SessionID, &e.Label, &e.PreviousLabel, &e.SwitchedAt, &metrics); err != nil {
			return nil, err
		}

		e.Metrics = json.RawMessage(metrics)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

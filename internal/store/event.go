package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ModeEvent is a confirmed tree mode transition.
type ModeEvent struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	Mode           string    `json:"mode"`
	ExtensionRatio float64   `json:"extensionRatio"`
	CreatedAt      time.Time `json:"createdAt"`
}

// EventRepository records and lists mode events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the mode event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record inserts a mode event. ID and CreatedAt are filled in when empty.
func (r *EventRepository) Record(e *ModeEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO mode_events (id, session_id, mode, extension_ratio, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Mode, e.ExtensionRatio, e.CreatedAt,
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]*ModeEvent, error) {
	return r.query(
		`SELECT id, session_id, mode, extension_ratio, created_at
		 FROM mode_events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
}

// BySession returns all events of a session in the order they happened.
func (r *EventRepository) BySession(sessionID string) ([]*ModeEvent, error) {
	return r.query(
		`SELECT id, session_id, mode, extension_ratio, created_at
		 FROM mode_events WHERE session_id = ? ORDER BY created_at, rowid`,
		sessionID,
	)
}

func (r *EventRepository) query(query string, args ...any) ([]*ModeEvent, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*ModeEvent
	for rows.Next() {
		e := &ModeEvent{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Mode, &e.ExtensionRatio, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

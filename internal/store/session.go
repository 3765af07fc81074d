package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the app, from start to stop.
type Session struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	AiReady   bool       `json:"aiReady"`
}

// SessionRepository provides operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create starts a new session and returns it.
func (r *SessionRepository) Create() (*Session, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at, ai_ready) VALUES (?, ?, 0)`,
		sess.ID, sess.StartedAt,
	)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// SetAiReady records whether camera and detector came up for the session.
func (r *SessionRepository) SetAiReady(id string, ready bool) error {
	v := 0
	if ready {
		v = 1
	}
	return r.exec(`UPDATE sessions SET ai_ready = ? WHERE id = ?`, v, id)
}

// End marks the session as finished.
func (r *SessionRepository) End(id string) error {
	return r.exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, time.Now(), id)
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime
	var ready int

	err := r.db.QueryRow(
		`SELECT id, started_at, ended_at, ai_ready FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.StartedAt, &ended, &ready)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	sess.AiReady = ready != 0
	return sess, nil
}

func (r *SessionRepository) exec(query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

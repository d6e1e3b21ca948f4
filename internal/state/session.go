package state

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SessionStatus represents the status of a recorded session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionDismissed SessionStatus = "dismissed"
)

// Session is one recorded agent session.
type Session struct {
	ID          string        `json:"id"`
	Prompt      string        `json:"prompt"`
	Model       string        `json:"model"`
	Status      SessionStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
	Respawns    int           `json:"respawns"`
}

// FileTouch is one file an agent read or modified during a session.
type FileTouch struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// FollowUp is one follow-up prompt sent to a session.
type FollowUp struct {
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSession records the start of a new agent session.
func (db *DB) CreateSession(id, prompt string, startedAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO sessions (id, prompt, status, started_at)
		VALUES (?, ?, ?, ?)
	`, id, prompt, string(SessionActive), formatTime(startedAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// RecordModel stores the model identifier the agent process announced.
func (db *DB) RecordModel(id, model string) error {
	_, err := db.Exec(`
		UPDATE sessions SET model = ? WHERE id = ?
	`, model, id)
	if err != nil {
		return fmt.Errorf("record model: %w", err)
	}
	return nil
}

// AppendCaption appends one transcript delta to the session.
func (db *DB) AppendCaption(id, delta string) error {
	_, err := db.Exec(`
		INSERT INTO transcript (session_id, delta, created_at)
		VALUES (?, ?, ?)
	`, id, delta, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("append caption: %w", err)
	}
	return nil
}

// RecordFileTouch records a file the agent read or modified. Repeated
// touches of the same path with the same kind are ignored.
func (db *DB) RecordFileTouch(id, path, kind string) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO file_touches (session_id, path, kind, created_at)
		VALUES (?, ?, ?, ?)
	`, id, path, kind, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("record file touch: %w", err)
	}
	return nil
}

// RecordFollowUp records a follow-up prompt and bumps the session's
// respawn count.
func (db *DB) RecordFollowUp(id, prompt string) error {
	if _, err := db.Exec(`
		INSERT INTO follow_ups (session_id, prompt, created_at)
		VALUES (?, ?, ?)
	`, id, prompt, formatTime(time.Now())); err != nil {
		return fmt.Errorf("record follow-up: %w", err)
	}

	if _, err := db.Exec(`
		UPDATE sessions SET status = ?, respawns = respawns + 1 WHERE id = ?
	`, string(SessionActive), id); err != nil {
		return fmt.Errorf("bump respawns: %w", err)
	}
	return nil
}

// CompleteSession marks the session completed with its reported duration.
func (db *DB) CompleteSession(id string, duration time.Duration) error {
	_, err := db.Exec(`
		UPDATE sessions SET status = ?, duration_ms = ?, completed_at = ? WHERE id = ?
	`, string(SessionCompleted), duration.Milliseconds(), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}

// MarkDismissed marks the session dismissed.
func (db *DB) MarkDismissed(id string) error {
	_, err := db.Exec(`
		UPDATE sessions
		SET status = ?, completed_at = COALESCE(completed_at, ?)
		WHERE id = ?
	`, string(SessionDismissed), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark dismissed: %w", err)
	}
	return nil
}

// Session retrieves a session by ID. Returns nil when not found.
func (db *DB) Session(id string) (*Session, error) {
	row := db.QueryRow(`
		SELECT id, prompt, model, status, started_at, completed_at, duration_ms, respawns
		FROM sessions WHERE id = ?
	`, id)
	return scanSession(row)
}

// RecentSessions returns the most recently started sessions, newest first.
func (db *DB) RecentSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, prompt, model, status, started_at, completed_at, duration_ms, respawns
		FROM sessions
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Transcript returns the session's accumulated output, reassembled from
// its transcript deltas.
func (db *DB) Transcript(id string) (string, error) {
	rows, err := db.Query(`
		SELECT delta FROM transcript WHERE session_id = ? ORDER BY id
	`, id)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var delta string
		if err := rows.Scan(&delta); err != nil {
			return "", fmt.Errorf("scan transcript: %w", err)
		}
		b.WriteString(delta)
	}
	return b.String(), rows.Err()
}

// FileTouches returns the files touched during the session in first-touch
// order.
func (db *DB) FileTouches(id string) ([]FileTouch, error) {
	rows, err := db.Query(`
		SELECT path, kind FROM file_touches WHERE session_id = ? ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load file touches: %w", err)
	}
	defer rows.Close()

	var touches []FileTouch
	for rows.Next() {
		var t FileTouch
		if err := rows.Scan(&t.Path, &t.Kind); err != nil {
			return nil, fmt.Errorf("scan file touch: %w", err)
		}
		touches = append(touches, t)
	}
	return touches, rows.Err()
}

// FollowUps returns the follow-up prompts sent to the session in order.
func (db *DB) FollowUps(id string) ([]FollowUp, error) {
	rows, err := db.Query(`
		SELECT prompt, created_at FROM follow_ups WHERE session_id = ? ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load follow-ups: %w", err)
	}
	defer rows.Close()

	var followUps []FollowUp
	for rows.Next() {
		var f FollowUp
		var createdAt string
		if err := rows.Scan(&f.Prompt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		f.CreatedAt, _ = parseTime(createdAt)
		followUps = append(followUps, f)
	}
	return followUps, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for session scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row *sql.Row) (*Session, error) {
	s, err := scanSessionFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func scanSessionRow(rows *sql.Rows) (*Session, error) {
	return scanSessionFrom(rows)
}

func scanSessionFrom(sc scanner) (*Session, error) {
	var s Session
	var startedAt string
	var completedAt sql.NullString
	var durationMs int64

	err := sc.Scan(&s.ID, &s.Prompt, &s.Model, &s.Status, &startedAt, &completedAt, &durationMs, &s.Respawns)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	s.StartedAt, _ = parseTime(startedAt)
	s.CompletedAt = parseNullableTime(completedAt)
	s.Duration = time.Duration(durationMs) * time.Millisecond
	return &s, nil
}

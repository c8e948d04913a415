// Package session persists conversation sessions and their message
// history in PostgreSQL, so a chat can resume across requests and the
// agent can replay prior turns to the model.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Message roles. They match the CHECK constraint on the messages table and
// map onto the model API's user/model turn structure.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Sentinel errors. Callers check them with errors.Is().
var (
	ErrNotFound    = errors.New("session: not found")
	ErrInvalidRole = errors.New("session: invalid message role")
)

// Session is one conversation.
type Session struct {
	ID        uuid.UUID
	Title     string
	CreatedAt time.Time
}

// Message is one turn in a conversation.
type Message struct {
	ID        int64
	SessionID uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

// DefaultHistoryLimit bounds how many recent messages History returns when
// the caller passes a non-positive limit.
const DefaultHistoryLimit = 50

// Store persists sessions and messages.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a session Store backed by the given pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Create starts a new session.
func (s *Store) Create(ctx context.Context, title string) (Session, error) {
	sess := Session{ID: uuid.New(), Title: title}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, title) VALUES ($1, $2) RETURNING created_at`,
		sess.ID, sess.Title).Scan(&sess.CreatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Debug("created session", "session_id", sess.ID)
	return sess, nil
}

// Get loads a session by ID. Returns ErrNotFound for unknown IDs.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, created_at FROM sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.Title, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// AppendMessage records one turn. The session must exist; the foreign key
// rejects orphan messages.
func (s *Store) AppendMessage(ctx context.Context, sessionID uuid.UUID, role, content string) error {
	if role != RoleUser && role != RoleModel {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (session_id, role, content) VALUES ($1, $2, $3)`,
		sessionID, role, content)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// History returns the most recent limit messages of a session in
// chronological order. A non-positive limit means DefaultHistoryLimit.
func (s *Store) History(ctx context.Context, sessionID uuid.UUID, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM (
		     SELECT id, session_id, role, content, created_at
		     FROM messages
		     WHERE session_id = $1
		     ORDER BY id DESC
		     LIMIT $2
		 ) recent
		 ORDER BY id ASC`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	return messages, nil
}

// List returns sessions ordered newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, created_at
		 FROM sessions
		 ORDER BY created_at DESC, id
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	return sessions, nil
}

// Delete removes a session and, via ON DELETE CASCADE, its messages.
// Returns ErrNotFound when the session does not exist.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: session %s", ErrNotFound, id)
	}

	s.logger.Debug("deleted session", "session_id", id)
	return nil
}

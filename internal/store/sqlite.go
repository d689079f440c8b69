package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/glintlab/feedbackd/internal/domain"
)

// SQLiteStore implements Store on SQLite. Sessions survive restarts, which
// the deployment can opt into via SESSION_BACKEND=sqlite; the contract is
// otherwise identical to the in-memory store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary migrates) the database at dsn.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			issue_created INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			images TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, rowid)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Append inserts the session row if absent, then the message, in one
// transaction so the read-modify-append sequence stays atomic per id.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, msg domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewError(domain.ErrCodeStore, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (session_id) VALUES (?)`, sessionID); err != nil {
		return domain.NewError(domain.ErrCodeStore, "failed to upsert session", err)
	}

	var images any
	if len(msg.Images) > 0 {
		data, err := json.Marshal(msg.Images)
		if err != nil {
			return domain.NewError(domain.ErrCodeStore, "failed to encode images", err)
		}
		images = string(data)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, images, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, sessionID, string(msg.Role), msg.Content, images, msg.Timestamp); err != nil {
		return domain.NewError(domain.ErrCodeStore, "failed to insert message", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.NewError(domain.ErrCodeStore, "failed to commit", err)
	}
	return nil
}

// Get returns the session's messages in append order.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, role, content, images, created_at
		 FROM messages WHERE session_id = ? ORDER BY rowid ASC`, sessionID)
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeStore, "failed to query messages", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var (
			msg    domain.Message
			role   string
			images sql.NullString
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &images, &msg.Timestamp); err != nil {
			return nil, domain.NewError(domain.ErrCodeStore, "failed to scan message", err)
		}
		msg.Role = domain.MessageRole(role)
		if images.Valid && images.String != "" {
			if err := json.Unmarshal([]byte(images.String), &msg.Images); err != nil {
				return nil, domain.NewError(domain.ErrCodeStore, "failed to decode images", err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Delete removes the session and its messages. Unknown ids are a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewError(domain.ErrCodeStore, "failed to begin transaction", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return domain.NewError(domain.ErrCodeStore, "failed to delete messages", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return domain.NewError(domain.ErrCodeStore, "failed to delete session", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.NewError(domain.ErrCodeStore, "failed to commit", err)
	}
	return nil
}

// MarkIssueCreated is a single-statement test-and-set: only the update that
// actually flips 0 to 1 reports rows affected.
func (s *SQLiteStore) MarkIssueCreated(ctx context.Context, sessionID string) (bool, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (session_id) VALUES (?)`, sessionID); err != nil {
		return false, domain.NewError(domain.ErrCodeStore, "failed to upsert session", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET issue_created = 1 WHERE session_id = ? AND issue_created = 0`, sessionID)
	if err != nil {
		return false, domain.NewError(domain.ErrCodeStore, "failed to mark issue created", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.NewError(domain.ErrCodeStore, "failed to read rows affected", err)
	}
	return n > 0, nil
}

// IssueCreated reads the one-shot flag.
func (s *SQLiteStore) IssueCreated(ctx context.Context, sessionID string) (bool, error) {
	var created int
	err := s.db.QueryRowContext(ctx,
		`SELECT issue_created FROM sessions WHERE session_id = ?`, sessionID).Scan(&created)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, domain.NewError(domain.ErrCodeStore, "failed to query session", err)
	}
	return created != 0, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

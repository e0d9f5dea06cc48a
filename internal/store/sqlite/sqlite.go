// Package sqlite implements the store interfaces on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/store"
)

// Store implements ConversationStore, MessageStore and UsageStore.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Verify interface compliance at compile time.
var _ store.ConversationStore = (*Store)(nil)
var _ store.MessageStore = (*Store)(nil)
var _ store.UsageStore = (*Store)(nil)

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With("component", "store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		tool_calls TEXT NOT NULL DEFAULT '',
		attachments TEXT NOT NULL DEFAULT '',
		tool_summary TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		seq INTEGER NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation_seq ON messages(conversation_id, seq);

	CREATE TABLE IF NOT EXISTS usage_totals (
		model_id TEXT PRIMARY KEY,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		calls INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- ConversationStore ---

func (s *Store) CreateConversation(ctx context.Context, c *store.Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		c.ID, c.Title, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	return err
}

func (s *Store) UpdateConversation(ctx context.Context, c *store.Conversation) error {
	c.UpdatedAt = s.now()
	result, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET title=?, updated_at=? WHERE id=?`,
		c.Title, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &store.NotFoundError{Entity: "conversation", ID: c.ID}
	}
	return nil
}

const conversationColumns = `id, title, created_at, updated_at`

func (s *Store) GetConversation(ctx context.Context, id string) (*store.Conversation, error) {
	c, err := scanConversation(s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &store.NotFoundError{Entity: "conversation", ID: id}
	}
	return c, err
}

func (s *Store) MostRecentConversation(ctx context.Context) (*store.Conversation, error) {
	c, err := scanConversation(s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations ORDER BY updated_at DESC, rowid DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &store.NotFoundError{Entity: "conversation"}
	}
	return c, err
}

func (s *Store) ListConversations(ctx context.Context, limit int) ([]store.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations ORDER BY updated_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryConversations(ctx, query, args...)
}

func (s *Store) SearchConversations(ctx context.Context, query string) ([]store.Conversation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListConversations(ctx, 0)
	}
	pattern := "%" + escapeLike(query) + "%"
	return s.queryConversations(ctx,
		`SELECT `+conversationColumns+` FROM conversations c
		 WHERE c.title LIKE ? ESCAPE '\'
		    OR EXISTS (
		       SELECT 1 FROM messages m
		       WHERE m.conversation_id = c.id
		         AND m.role IN ('user', 'assistant')
		         AND m.content LIKE ? ESCAPE '\'
		    )
		 ORDER BY c.updated_at DESC, c.rowid DESC`,
		pattern, pattern,
	)
}

func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &store.NotFoundError{Entity: "conversation", ID: id}
	}
	s.logger.Info("conversation deleted", "conversation", id)
	return nil
}

func (s *Store) queryConversations(ctx context.Context, query string, args ...any) ([]store.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(row scanner) (*store.Conversation, error) {
	c := &store.Conversation{}
	if err := row.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// --- MessageStore ---

func (s *Store) CreateMessage(ctx context.Context, msg *model.Message) error {
	if msg.ConversationID == "" {
		return fmt.Errorf("create message: conversation id is required")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	toolCalls, err := encodeJSON(msg.ToolCalls)
	if err != nil {
		return fmt.Errorf("encode tool calls: %w", err)
	}
	attachments, err := encodeJSON(msg.Attachments)
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, tool_calls, attachments, tool_summary, created_at, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?,
		   (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?))`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, toolCalls, attachments, msg.ToolSummary,
		msg.CreatedAt.UTC(), msg.ConversationID,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Store) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, tool_calls, attachments, tool_summary, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY seq ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var (
			msg                    model.Message
			role                   string
			toolCalls, attachments string
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &toolCalls, &attachments, &msg.ToolSummary, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role = model.Role(role)
		if err := decodeJSON(toolCalls, &msg.ToolCalls); err != nil {
			return nil, fmt.Errorf("decode tool calls of %s: %w", msg.ID, err)
		}
		if err := decodeJSON(attachments, &msg.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments of %s: %w", msg.ID, err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &store.NotFoundError{Entity: "message", ID: id}
	}
	return nil
}

func encodeJSON[T any](v []T) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(v)
	return string(raw), err
}

func decodeJSON[T any](raw string, dst *[]T) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

// --- UsageStore ---

func (s *Store) AddUsage(modelID string, inputTokens, outputTokens int) error {
	_, err := s.db.Exec(
		`INSERT INTO usage_totals (model_id, input_tokens, output_tokens, calls) VALUES (?, ?, ?, 1)
		 ON CONFLICT(model_id) DO UPDATE SET
		   input_tokens = input_tokens + excluded.input_tokens,
		   output_tokens = output_tokens + excluded.output_tokens,
		   calls = calls + 1`,
		modelID, inputTokens, outputTokens,
	)
	return err
}

func (s *Store) UsageTotals(ctx context.Context) ([]store.UsageTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model_id, input_tokens, output_tokens, calls FROM usage_totals ORDER BY model_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.UsageTotal
	for rows.Next() {
		var u store.UsageTotal
		if err := rows.Scan(&u.ModelID, &u.InputTokens, &u.OutputTokens, &u.Calls); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/txthistory/pkg/txthistory/internalerr"
	"github.com/cognicore/txthistory/pkg/txthistory/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	guid TEXT UNIQUE NOT NULL,
	sender TEXT NOT NULL DEFAULT '',
	is_from_me INTEGER NOT NULL DEFAULT 0,
	ts INTEGER NOT NULL,
	text TEXT,
	conversation TEXT NOT NULL DEFAULT '',
	service TEXT NOT NULL DEFAULT '',
	has_attachments INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation_ts ON messages(conversation, ts);

CREATE TABLE IF NOT EXISTS analyses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id INTEGER NOT NULL,
	version TEXT NOT NULL,
	processed_text TEXT NOT NULL,
	tokens TEXT NOT NULL,
	stemmed_text TEXT NOT NULL,
	entities TEXT NOT NULL,
	sentiment REAL,
	language TEXT NOT NULL DEFAULT '',
	processed_at TEXT NOT NULL,
	UNIQUE(message_id, version),
	FOREIGN KEY(message_id) REFERENCES messages(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_analyses_version ON analyses(version);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertMessage inserts or updates a message keyed by GUID
func (s *sqliteStore) UpsertMessage(ctx context.Context, m store.Message) (int64, error) {
	if m.GUID == "" {
		return 0, fmt.Errorf("%w: message guid is required", internalerr.ErrInvalidInput)
	}

	const stmt = `
INSERT INTO messages (guid, sender, is_from_me, ts, text, conversation, service, has_attachments)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(guid) DO UPDATE SET
	sender=excluded.sender,
	is_from_me=excluded.is_from_me,
	ts=excluded.ts,
	text=excluded.text,
	conversation=excluded.conversation,
	service=excluded.service,
	has_attachments=excluded.has_attachments
RETURNING id;
`

	var text sql.NullString
	if m.Text != nil {
		text = sql.NullString{String: *m.Text, Valid: true}
	}

	var id int64
	err := s.db.QueryRowContext(
		ctx,
		stmt,
		m.GUID,
		m.Sender,
		m.IsFromMe,
		m.Timestamp.UnixNano(),
		text,
		m.Conversation,
		m.Service,
		m.HasAttachments,
	).Scan(&id)
	return id, err
}

const messageColumns = `id, guid, sender, is_from_me, ts, text, conversation, service, has_attachments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (store.Message, error) {
	var (
		m    store.Message
		ts   int64
		text sql.NullString
	)
	if err := row.Scan(&m.ID, &m.GUID, &m.Sender, &m.IsFromMe, &ts, &text, &m.Conversation, &m.Service, &m.HasAttachments); err != nil {
		return store.Message{}, err
	}
	m.Timestamp = time.Unix(0, ts).In(time.Local)
	if text.Valid {
		t := text.String
		m.Text = &t
	}
	return m, nil
}

// GetMessage retrieves a message by ID
func (s *sqliteStore) GetMessage(ctx context.Context, id int64) (store.Message, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Message{}, fmt.Errorf("message %d: %w", id, internalerr.ErrNotFound)
	}
	return m, err
}

// MessagesByConversation retrieves a conversation's messages ordered by time
func (s *sqliteStore) MessagesByConversation(ctx context.Context, conversation string, r store.DateRange) ([]store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation = ?`
	args := []any{conversation}
	if !r.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, r.Start.UnixNano())
	}
	if !r.End.IsZero() {
		query += ` AND ts < ?`
		args = append(args, r.End.UnixNano())
	}
	query += ` ORDER BY ts ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const analysisColumns = `id, message_id, version, processed_text, tokens, stemmed_text, entities, sentiment, language, processed_at`

func scanAnalysis(row rowScanner) (store.Analysis, error) {
	var (
		a           store.Analysis
		tokensJSON  string
		entsJSON    string
		sentiment   sql.NullFloat64
		processedAt string
	)
	if err := row.Scan(&a.ID, &a.MessageID, &a.Version, &a.ProcessedText, &tokensJSON, &a.StemmedText, &entsJSON, &sentiment, &a.Language, &processedAt); err != nil {
		return store.Analysis{}, err
	}
	if err := json.Unmarshal([]byte(tokensJSON), &a.Tokens); err != nil {
		return store.Analysis{}, fmt.Errorf("decode tokens of analysis %d: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(entsJSON), &a.Entities); err != nil {
		return store.Analysis{}, fmt.Errorf("decode entities of analysis %d: %w", a.ID, err)
	}
	if sentiment.Valid {
		v := sentiment.Float64
		a.Sentiment = &v
	}
	t, err := time.Parse(time.RFC3339Nano, processedAt)
	if err != nil {
		return store.Analysis{}, fmt.Errorf("decode processed_at of analysis %d: %w", a.ID, err)
	}
	a.ProcessedAt = t
	return a, nil
}

// GetAnalysis retrieves the analysis of a message under version
func (s *sqliteStore) GetAnalysis(ctx context.Context, messageID int64, version string) (store.Analysis, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE message_id = ? AND version = ?`, messageID, version)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Analysis{}, false, nil
	}
	if err != nil {
		return store.Analysis{}, false, err
	}
	return a, true, nil
}

// PutAnalysis inserts an analysis unless one exists for the same message and
// version, and returns the stored record either way.
func (s *sqliteStore) PutAnalysis(ctx context.Context, a store.Analysis) (store.Analysis, error) {
	if a.Version == "" {
		return store.Analysis{}, fmt.Errorf("%w: analysis version is required", internalerr.ErrInvalidInput)
	}
	if a.ProcessedAt.IsZero() {
		a.ProcessedAt = time.Now().UTC()
	}

	tokens := a.Tokens
	if tokens == nil {
		tokens = []string{}
	}
	tokensJSON, err := json.Marshal(tokens)
	if err != nil {
		return store.Analysis{}, err
	}
	ents := a.Entities
	if ents == nil {
		ents = []store.Entity{}
	}
	entsJSON, err := json.Marshal(ents)
	if err != nil {
		return store.Analysis{}, err
	}
	var sentiment sql.NullFloat64
	if a.Sentiment != nil {
		sentiment = sql.NullFloat64{Float64: *a.Sentiment, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Analysis{}, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM messages WHERE id = ?`, a.MessageID).Scan(&exists)
	if err != nil {
		return store.Analysis{}, err
	}
	if exists == 0 {
		return store.Analysis{}, fmt.Errorf("message %d: %w", a.MessageID, internalerr.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO analyses (message_id, version, processed_text, tokens, stemmed_text, entities, sentiment, language, processed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(message_id, version) DO NOTHING;
`,
		a.MessageID,
		a.Version,
		a.ProcessedText,
		string(tokensJSON),
		a.StemmedText,
		string(entsJSON),
		sentiment,
		a.Language,
		a.ProcessedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return store.Analysis{}, err
	}

	row := tx.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE message_id = ? AND version = ?`, a.MessageID, a.Version)
	stored, err := scanAnalysis(row)
	if err != nil {
		return store.Analysis{}, err
	}
	return stored, tx.Commit()
}

// DeleteAnalysis removes the analysis of a message under version
func (s *sqliteStore) DeleteAnalysis(ctx context.Context, messageID int64, version string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE message_id = ? AND version = ?`, messageID, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("analysis %d/%s: %w", messageID, version, internalerr.ErrNotFound)
	}
	return nil
}

// AnalysesByVersion lists every analysis under version by message ID
func (s *sqliteStore) AnalysesByVersion(ctx context.Context, version string) ([]store.Analysis, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE version = ? ORDER BY message_id ASC`, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UnprocessedMessageIDs lists messages with text lacking an analysis under version
func (s *sqliteStore) UnprocessedMessageIDs(ctx context.Context, version string, limit int) ([]int64, error) {
	query := `
SELECT m.id FROM messages m
WHERE m.text IS NOT NULL
AND NOT EXISTS (SELECT 1 FROM analyses a WHERE a.message_id = m.id AND a.version = ?)
ORDER BY m.id ASC`
	args := []any{version}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats summarizes the database
func (s *sqliteStore) Stats(ctx context.Context) (store.Stats, error) {
	st := store.Stats{Analyses: make(map[string]int64)}
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COUNT(text) FROM messages`).Scan(&st.Messages, &st.MessagesWithText)
	if err != nil {
		return store.Stats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT version, COUNT(1) FROM analyses GROUP BY version`)
	if err != nil {
		return store.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			version string
			n       int64
		)
		if err := rows.Scan(&version, &n); err != nil {
			return store.Stats{}, err
		}
		st.Analyses[version] = n
	}
	return st, rows.Err()
}

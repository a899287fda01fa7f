package results

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps every session's comparison log in one database
type SQLiteStore struct {
	conn *sql.DB
	mu   sync.Mutex
}

// SessionInfo summarizes a stored session
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	Count     int       `json:"count"`
	FirstAt   time.Time `json:"first_at"`
	LastAt    time.Time `json:"last_at"`
}

// OpenSQLite opens (and migrates) the database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	store := &SQLiteStore{conn: conn}
	if err := store.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS comparisons (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		left_image TEXT NOT NULL,
		right_image TEXT NOT NULL,
		outcome TEXT NOT NULL,
		choice TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_comparisons_recorded_at ON comparisons(recorded_at);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// Write stores the snapshot. Rows already stored for the session are kept,
// so repeated autosaves of a growing log only insert the new tail.
func (s *SQLiteStore) Write(ctx context.Context, sessionID string, log []pairing.Comparison) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO comparisons (session_id, seq, left_image, right_image, outcome, choice, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range Rows(log) {
		if _, err := stmt.ExecContext(ctx, sessionID, i, row.Left, row.Right, row.Outcome, row.Choice, row.Timestamp.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert comparison %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit comparisons: %w", err)
	}
	return nil
}

// Load returns a session's stored log in recording order
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) ([]pairing.Comparison, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT left_image, right_image, outcome, choice, recorded_at
		FROM comparisons WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparisons: %w", err)
	}
	defer rows.Close()

	var log []pairing.Comparison
	for rows.Next() {
		var row Row
		var recordedAt int64
		if err := rows.Scan(&row.Left, &row.Right, &row.Outcome, &row.Choice, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comparison: %w", err)
		}
		row.Timestamp = time.Unix(0, recordedAt).UTC()
		c, err := row.Comparison()
		if err != nil {
			return nil, err
		}
		log = append(log, c)
	}
	return log, rows.Err()
}

// Sessions lists the stored sessions, oldest first
func (s *SQLiteStore) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MIN(recorded_at), MAX(recorded_at)
		FROM comparisons GROUP BY session_id ORDER BY MIN(recorded_at), session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var first, last int64
		if err := rows.Scan(&info.SessionID, &info.Count, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		info.FirstAt = time.Unix(0, first).UTC()
		info.LastAt = time.Unix(0, last).UTC()
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// Package archive mirrors accepted revisions into a SQLite file so history
// survives the session. It is write-only from the session's point of view.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Faultbox/talkcad/internal/edit"
	"github.com/Faultbox/talkcad/internal/face"
	"github.com/Faultbox/talkcad/internal/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS revisions (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	session_id  TEXT NOT NULL,
	action      TEXT NOT NULL,
	parameters  TEXT NOT NULL,
	description TEXT NOT NULL,
	face_id     INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_revisions_session ON revisions(session_id, seq);
`

// Store is a SQLite-backed revision archive.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens or creates the archive at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one revision. Recording the same revision twice is a no-op.
func (s *Store) Record(ctx context.Context, sessionID string, rev ledger.Revision) error {
	params, err := json.Marshal(rev.Parameters)
	if err != nil {
		return fmt.Errorf("encoding parameters of %s: %w", rev.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revisions (id, session_id, action, parameters, description, face_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rev.ID, sessionID, rev.Action, string(params), rev.Description, int(rev.Face),
		rev.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording revision %s: %w", rev.ID, err)
	}
	return nil
}

// List returns archived revisions in recording order. An empty sessionID lists all sessions.
func (s *Store) List(ctx context.Context, sessionID string) ([]ledger.Revision, error) {
	query := `SELECT id, action, parameters, description, face_id, created_at FROM revisions`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying revisions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Revision
	for rows.Next() {
		var (
			rev       ledger.Revision
			params    string
			faceID    int
			createdAt string
		)
		if err := rows.Scan(&rev.ID, &rev.Action, &params, &rev.Description, &faceID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &rev.Parameters); err != nil {
			return nil, fmt.Errorf("decoding parameters of %s: %w", rev.ID, err)
		}
		rev.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp of %s: %w", rev.ID, err)
		}
		rev.Face = face.ID(faceID)
		out = append(out, rev)
	}
	return out, rows.Err()
}

// Sessions returns the distinct session ids, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM revisions GROUP BY session_id ORDER BY MIN(seq)`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Follow records every accepted event until ctx ends or events closes.
// Events already buffered when ctx ends are still recorded. Recording
// errors are logged and do not stop the loop.
func (s *Store) Follow(ctx context.Context, sessionID string, events <-chan edit.Event) error {
	wctx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					s.follow(wctx, sessionID, ev)
				default:
					return nil
				}
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.follow(wctx, sessionID, ev)
		}
	}
}

func (s *Store) follow(ctx context.Context, sessionID string, ev edit.Event) {
	if ev.Kind != edit.EventAccepted {
		return
	}
	rev := ev.Outcome.Revision
	if err := s.Record(ctx, sessionID, rev); err != nil {
		s.log.Error("archive write failed", zap.String("id", rev.ID), zap.Error(err))
		return
	}
	s.log.Debug("revision archived", zap.String("id", rev.ID))
}

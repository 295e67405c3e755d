// Package refstore keeps known-good transcripts keyed by video id. It backs
// the DEGRADED tier of the orchestrator.
package refstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/forPelevin/topicut/internal/types"
)

const schema = `
	CREATE TABLE IF NOT EXISTS reference_transcripts (
		video_id TEXT PRIMARY KEY,
		language TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reference_segments (
		video_id TEXT NOT NULL REFERENCES reference_transcripts(video_id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		start_sec REAL NOT NULL,
		end_sec REAL NOT NULL,
		text TEXT NOT NULL,
		confidence REAL NOT NULL,
		PRIMARY KEY (video_id, seq)
	);
`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and seeds the built-in
// references. An empty path keeps the database in memory.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == "" {
		// every pooled connection to :memory: would see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{db: db}
	for id, tr := range builtin {
		if err := s.Put(ctx, id, tr); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed %s: %w", id, err)
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put replaces the reference transcript for id.
func (s *Store) Put(ctx context.Context, id types.VideoID, tr types.Transcript) error {
	if err := id.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_segments WHERE video_id = ?`, string(id)); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reference_transcripts (video_id, language) VALUES (?, ?)
		ON CONFLICT(video_id) DO UPDATE SET language = excluded.language
	`, string(id), tr.Language); err != nil {
		return fmt.Errorf("upsert transcript: %w", err)
	}
	for i, seg := range tr.Segments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reference_segments (video_id, seq, start_sec, end_sec, text, confidence)
			VALUES (?, ?, ?, ?, ?, ?)
		`, string(id), i, seg.Start, seg.End, seg.Text, seg.Confidence); err != nil {
			return fmt.Errorf("insert segment %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Lookup reports ok=false when no reference exists for id.
func (s *Store) Lookup(ctx context.Context, id types.VideoID) (types.Transcript, bool, error) {
	var tr types.Transcript
	err := s.db.QueryRowContext(ctx,
		`SELECT language FROM reference_transcripts WHERE video_id = ?`, string(id),
	).Scan(&tr.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Transcript{}, false, nil
	}
	if err != nil {
		return types.Transcript{}, false, fmt.Errorf("query transcript: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT start_sec, end_sec, text, confidence
		FROM reference_segments
		WHERE video_id = ?
		ORDER BY seq ASC
	`, string(id))
	if err != nil {
		return types.Transcript{}, false, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var seg types.Segment
		if err := rows.Scan(&seg.Start, &seg.End, &seg.Text, &seg.Confidence); err != nil {
			return types.Transcript{}, false, fmt.Errorf("scan segment: %w", err)
		}
		tr.Segments = append(tr.Segments, seg)
	}
	if err := rows.Err(); err != nil {
		return types.Transcript{}, false, err
	}
	tr.Provenance = types.ProvenanceDegraded
	return tr, true, nil
}

// Count returns how many reference transcripts are stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reference_transcripts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transcripts: %w", err)
	}
	return n, nil
}

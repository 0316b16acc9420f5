// Package store provides the pipeline's SQLite-backed persistence.
// Every read and write takes an explicit owner id; the invariants the
// pipeline depends on (fingerprint dedup, one open request per memory,
// one active curated entry per owner+memory) are SQL constraints, not
// read-then-write checks.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the pipeline's durable collections on SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id                 TEXT PRIMARY KEY,
		owner_id           TEXT NOT NULL,
		content            TEXT NOT NULL,
		fingerprint        TEXT NOT NULL,
		source_type        TEXT NOT NULL DEFAULT 'text',
		metadata           TEXT,
		quarantine_status  TEXT NOT NULL DEFAULT 'pending',
		quarantine_score   REAL NOT NULL DEFAULT 0,
		classifier_details TEXT,
		classifier_version TEXT,
		importance_score   REAL NOT NULL DEFAULT 0,
		quality_score      REAL NOT NULL DEFAULT 0,
		promoted           INTEGER NOT NULL DEFAULT 0,
		archived           INTEGER NOT NULL DEFAULT 0,
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL,
		UNIQUE (owner_id, fingerprint)
	);
	CREATE INDEX IF NOT EXISTS idx_memories_owner_status ON memories(owner_id, quarantine_status);

	CREATE TABLE IF NOT EXISTS promotion_requests (
		id             TEXT PRIMARY KEY,
		owner_id       TEXT NOT NULL,
		memory_id      TEXT NOT NULL REFERENCES memories(id),
		requester_id   TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending',
		priority       TEXT NOT NULL DEFAULT 'normal',
		reason         TEXT,
		approve_votes  INTEGER NOT NULL DEFAULT 0,
		reject_votes   INTEGER NOT NULL DEFAULT 0,
		reviewer_id    TEXT,
		reviewer_notes TEXT,
		auto_score     REAL NOT NULL DEFAULT 0,
		manual_score   REAL NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		resolved_at    TEXT
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_one_open
		ON promotion_requests(memory_id) WHERE status IN ('pending', 'in_review');
	CREATE INDEX IF NOT EXISTS idx_requests_queue ON promotion_requests(status, priority);
	CREATE INDEX IF NOT EXISTS idx_requests_owner ON promotion_requests(owner_id);

	CREATE TABLE IF NOT EXISTS curated_entries (
		id                  TEXT PRIMARY KEY,
		owner_id            TEXT NOT NULL,
		memory_id           TEXT NOT NULL REFERENCES memories(id),
		category            TEXT NOT NULL DEFAULT 'general',
		priority            INTEGER NOT NULL DEFAULT 50,
		relevance_score     REAL NOT NULL DEFAULT 0,
		retrieval_count     INTEGER NOT NULL DEFAULT 0,
		last_retrieved_at   TEXT,
		active              INTEGER NOT NULL DEFAULT 1,
		deactivation_reason TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_curated_one_active
		ON curated_entries(owner_id, memory_id) WHERE active = 1;
	CREATE INDEX IF NOT EXISTS idx_curated_owner ON curated_entries(owner_id, active);

	CREATE TABLE IF NOT EXISTS provenance_events (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL,
		owner_id   TEXT NOT NULL,
		memory_id  TEXT NOT NULL,
		event_type TEXT NOT NULL,
		actor_id   TEXT NOT NULL,
		actor_kind TEXT NOT NULL,
		context    TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_provenance_memory ON provenance_events(owner_id, memory_id);

	CREATE TABLE IF NOT EXISTS health_snapshots (
		id                  TEXT PRIMARY KEY,
		owner_id            TEXT NOT NULL,
		window_start        TEXT NOT NULL,
		window_end          TEXT NOT NULL,
		mood                TEXT NOT NULL,
		hallucination_rate  REAL NOT NULL DEFAULT 0,
		coherence_score     REAL NOT NULL DEFAULT 0,
		confidence_score    REAL NOT NULL DEFAULT 0,
		refusal_count       INTEGER NOT NULL DEFAULT 0,
		context_utilization REAL NOT NULL DEFAULT 0,
		created_at          TEXT NOT NULL,
		UNIQUE (owner_id, window_start)
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id                     TEXT PRIMARY KEY,
		owner_id               TEXT NOT NULL,
		request_summary        TEXT NOT NULL,
		decision               TEXT NOT NULL,
		reason                 TEXT,
		confidence             REAL NOT NULL DEFAULT 0,
		memory_id              TEXT,
		curated_entry_id       TEXT,
		overridden             INTEGER NOT NULL DEFAULT 0,
		overridden_by          TEXT,
		override_justification TEXT,
		created_at             TEXT NOT NULL,
		overridden_at          TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_owner ON decisions(owner_id, created_at);

	CREATE TABLE IF NOT EXISTS compensation_entries (
		id               TEXT PRIMARY KEY,
		owner_id         TEXT NOT NULL,
		memory_id        TEXT,
		event_type       TEXT NOT NULL,
		usage_context    TEXT,
		value_points     INTEGER NOT NULL DEFAULT 0,
		estimated_value  REAL NOT NULL DEFAULT 0,
		beneficiary_type TEXT NOT NULL DEFAULT 'owner',
		beneficiary_id   TEXT,
		payment_status   TEXT NOT NULL DEFAULT 'pending',
		created_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_compensation_owner ON compensation_entries(owner_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// requireOwner is the tenant-isolation choke point. Every exported
// store method calls it before touching the database.
func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("%w: missing owner id", ErrTenantViolation)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// jsonText marshals a metadata map for storage; empty maps store NULL.
func jsonText(m map[string]any) *string {
	if len(m) == 0 {
		return nil
	}
	b, _ := json.Marshal(m)
	str := string(b)
	return &str
}

func parseJSONText(ns sql.NullString) map[string]any {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var m map[string]any
	json.Unmarshal([]byte(ns.String), &m)
	return m
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// execOne runs a guarded single-row UPDATE and reports whether it hit.
func execOne(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (bool, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Package db persists what the core engine emits: session events, final
// snapshots, and replay audit rows. It holds no session logic of its
// own — every table here is written once, after a core operation has
// already decided what happened.
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veridex/faceline/internal/finalize"
	"github.com/veridex/faceline/internal/replay"
	"github.com/veridex/faceline/internal/session"
)

// PostgresStore is the pgx-backed persistence adapter.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}
	log.Println("connected to PostgreSQL for the assessment engine")
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes schema.sql.
func (s *PostgresStore) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/db/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %v", err)
	}
	if _, err := s.pool.Exec(context.Background(), string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}
	log.Println("assessment engine schema initialized")
	return nil
}

// SaveEvent appends one structured event record to the session_events log.
func (s *PostgresStore) SaveEvent(ctx context.Context, evt session.Event) error {
	fields, err := json.Marshal(evt.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal event fields: %v", err)
	}
	sql := `
		INSERT INTO session_events (session_id, bank_hash, event_type, occurred_at, fields)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.pool.Exec(ctx, sql, evt.SessionID, evt.BankHash, string(evt.Type), evt.At, fields)
	return err
}

// SaveSnapshot persists a session's final snapshot, upserting on repeated
// finalization of the same session id (which the state machine never
// actually allows, but the table stays idempotent regardless).
func (s *PostgresStore) SaveSnapshot(ctx context.Context, sessionID string, snap *finalize.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %v", err)
	}
	sql := `
		INSERT INTO final_snapshots (session_id, bank_hash, constants_profile, snapshot_hash, snapshot)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE
		SET snapshot_hash = EXCLUDED.snapshot_hash, snapshot = EXCLUDED.snapshot
	`
	_, err = s.pool.Exec(ctx, sql, sessionID, snap.BankHash, snap.ConstantsProfile, snap.Hash, body)
	return err
}

// GetSnapshotHash returns the stored snapshot hash for a session, used by
// replay callers that only have a session id and need the expected hash.
func (s *PostgresStore) GetSnapshotHash(ctx context.Context, sessionID string) (string, error) {
	var hash string
	err := s.pool.QueryRow(ctx, `SELECT snapshot_hash FROM final_snapshots WHERE session_id = $1`, sessionID).Scan(&hash)
	return hash, err
}

// SaveReplayResult records one replay run's verdict for audit.
func (s *PostgresStore) SaveReplayResult(ctx context.Context, d replay.Descriptor, res *replay.Result) error {
	var diff []byte
	if res.Verdict == replay.VerdictMismatch {
		var err error
		diff, err = json.Marshal(res.Diff)
		if err != nil {
			return fmt.Errorf("failed to marshal replay diff: %v", err)
		}
	}
	sql := `
		INSERT INTO replay_audit
			(bank_id, bank_hash, session_seed, expected_hash, actual_hash, verdict, diff)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, sql,
		d.BankID, d.BankHashSHA256, d.SessionSeed,
		res.ExpectedHash, res.Snapshot.Hash, string(res.Verdict), diff,
	)
	return err
}

// ReplayAuditSummary is one row of the replay audit listing.
type ReplayAuditSummary struct {
	BankID      string `json:"bankId"`
	SessionSeed string `json:"sessionSeed"`
	Verdict     string `json:"verdict"`
}

// ListReplayAudits returns the most recent replay audit rows, paginated.
func (s *PostgresStore) ListReplayAudits(ctx context.Context, page, limit int) ([]ReplayAuditSummary, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM replay_audit`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT bank_id, session_seed, verdict
		FROM replay_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ReplayAuditSummary
	for rows.Next() {
		var r ReplayAuditSummary
		if err := rows.Scan(&r.BankID, &r.SessionSeed, &r.Verdict); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if out == nil {
		out = []ReplayAuditSummary{}
	}
	return out, total, nil
}

package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"eligibility/internal/cra/models"
	"eligibility/pkg/platform/sentinel"
	pstrings "eligibility/pkg/platform/strings"
	"eligibility/pkg/platform/tx"
)

// Schema creates the records table. Columns other than the snapshot pair
// belong to the owning application.
const Schema = `
CREATE TABLE IF NOT EXISTS scenarios (
	id                      TEXT PRIMARY KEY,
	data                    JSONB NOT NULL DEFAULT '{}'::jsonb,
	cra_snapshot            JSONB,
	cra_snapshot_updated_at TIMESTAMPTZ
)`

// PostgresStore attaches snapshots to rows of the scenarios table. Calls
// join a transaction carried in ctx (see tx.WithTx) when there is one.
type PostgresStore struct {
	db    *sql.DB
	clock Clock
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresClock sets the clock used for cra_snapshot_updated_at.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db:    db,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Migrate applies Schema in its own transaction, or in the caller's.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	apply := func(ctx context.Context) error {
		if _, err := tx.Use(ctx, s.db).ExecContext(ctx, Schema); err != nil {
			return fmt.Errorf("migrate records schema: %w", err)
		}
		return nil
	}
	if _, ok := tx.From(ctx); ok {
		return apply(ctx)
	}
	return tx.Run(ctx, s.db, apply)
}

// SaveSnapshot merges the snapshot into the record, creating the row if needed.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, recordID string, snapshot *models.Snapshot) error {
	if recordID == "" {
		return errors.New("record id is required")
	}
	if snapshot == nil {
		return errors.New("snapshot is required")
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = tx.Use(ctx, s.db).ExecContext(ctx, `
		INSERT INTO scenarios (id, cra_snapshot, cra_snapshot_updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			cra_snapshot = EXCLUDED.cra_snapshot,
			cra_snapshot_updated_at = EXCLUDED.cra_snapshot_updated_at
	`, recordID, payload, s.clock().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSnapshot(ctx context.Context, recordID string) (*models.Snapshot, error) {
	var payload []byte
	err := tx.Use(ctx, s.db).QueryRowContext(ctx, `SELECT cra_snapshot FROM scenarios WHERE id = $1`, recordID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	snap, err := decodeSnapshot(payload)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, sentinel.ErrNotFound
	}
	return snap, nil
}

// FindSnapshots loads snapshots for several records in one query. Records
// without a snapshot are absent from the result.
func (s *PostgresStore) FindSnapshots(ctx context.Context, recordIDs []string) (map[string]*models.Snapshot, error) {
	recordIDs = pstrings.DedupeAndTrim(recordIDs)
	out := make(map[string]*models.Snapshot, len(recordIDs))
	if len(recordIDs) == 0 {
		return out, nil
	}
	rows, err := tx.Use(ctx, s.db).QueryContext(ctx, `
		SELECT id, cra_snapshot FROM scenarios
		WHERE id = ANY($1) AND cra_snapshot IS NOT NULL
	`, pq.Array(recordIDs))
	if err != nil {
		return nil, fmt.Errorf("find snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap, err := decodeSnapshot(payload)
		if err != nil {
			return nil, err
		}
		out[id] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

func decodeSnapshot(payload []byte) (*models.Snapshot, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var snap models.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

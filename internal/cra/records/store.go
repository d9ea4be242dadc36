// Package records is the boundary to the record store that resolved snapshots
// are attached to. Writes touch only the snapshot fields of a record; every
// other field the record carries is left as it was.
package records

import (
	"context"
	"time"

	"eligibility/internal/cra/models"
)

// Reader loads the snapshot attached to a record.
type Reader interface {
	// FindSnapshot returns sentinel.ErrNotFound when the record does not exist
	// or has no snapshot yet.
	FindSnapshot(ctx context.Context, recordID string) (*models.Snapshot, error)
	// FindSnapshots loads several records at once. Records without a snapshot
	// are absent from the result.
	FindSnapshots(ctx context.Context, recordIDs []string) (map[string]*models.Snapshot, error)
}

// Store reads and merges snapshots into records.
type Store interface {
	Reader
	SaveSnapshot(ctx context.Context, recordID string, snapshot *models.Snapshot) error
}

// Clock returns the current time.
type Clock func() time.Time

package records

import (
	"context"
	"errors"
	"sync"

	"eligibility/internal/cra/models"
	"eligibility/pkg/platform/sentinel"
	pstrings "eligibility/pkg/platform/strings"
)

// InMemoryStore keeps snapshots in a map. Used by tests and single-node setups
// without a database.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]models.Snapshot
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[string]models.Snapshot)}
}

// SaveSnapshot replaces the snapshot held for recordID.
func (s *InMemoryStore) SaveSnapshot(_ context.Context, recordID string, snapshot *models.Snapshot) error {
	if recordID == "" {
		return errors.New("record id is required")
	}
	if snapshot == nil {
		return errors.New("snapshot is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[recordID] = *snapshot
	return nil
}

func (s *InMemoryStore) FindSnapshot(_ context.Context, recordID string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &snap, nil
}

func (s *InMemoryStore) FindSnapshots(_ context.Context, recordIDs []string) (map[string]*models.Snapshot, error) {
	recordIDs = pstrings.DedupeAndTrim(recordIDs)
	out := make(map[string]*models.Snapshot, len(recordIDs))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range recordIDs {
		if snap, ok := s.snapshots[id]; ok {
			out[id] = &snap
		}
	}
	return out, nil
}

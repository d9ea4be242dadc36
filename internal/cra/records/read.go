package records

import (
	"context"
	"fmt"

	"eligibility/internal/cra/models"
	"eligibility/pkg/platform/sentinel"
)

// Flags returns the flags stored with a record's snapshot.
func Flags(ctx context.Context, r Reader, recordID string) (*models.Flags, error) {
	snap, err := r.FindSnapshot(ctx, recordID)
	if err != nil {
		return nil, err
	}
	flags := snap.Flags
	return &flags, nil
}

// AMI returns the overall area median income stored with a record's snapshot.
// A snapshot without AMI data reports sentinel.ErrNotFound.
func AMI(ctx context.Context, r Reader, recordID string) (float64, error) {
	snap, err := r.FindSnapshot(ctx, recordID)
	if err != nil {
		return 0, err
	}
	if !snap.IncomeData.HasAMI() {
		return 0, fmt.Errorf("snapshot has no AMI data: %w", sentinel.ErrNotFound)
	}
	return snap.IncomeData.AMIOverall, nil
}

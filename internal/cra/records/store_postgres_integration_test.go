//go:build integration

package records_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"eligibility/internal/cra/domain/tiers"
	"eligibility/internal/cra/models"
	"eligibility/internal/cra/records"
	"eligibility/pkg/platform/sentinel"
	"eligibility/pkg/platform/tx"
	"eligibility/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *records.PostgresStore
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.now = time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	s.store = records.NewPostgresStore(s.postgres.DB, records.WithPostgresClock(func() time.Time { return s.now }))
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "scenarios"))
}

func snapshot(tract string, ami float64) *models.Snapshot {
	return &models.Snapshot{
		EffectiveYear: models.EffectiveYear,
		ACSYear:       models.DefaultACSYear,
		ResolvedAt:    time.Date(2026, time.March, 3, 11, 0, 0, 0, time.UTC),
		Geography:     models.GeoResolution{FullTractFIPS: tract},
		TractMetrics:  models.NewTractMetrics(models.IncomeLevelModerate, 61.2, 72, 60000),
		IncomeData:    tiers.BuildAMI(ami),
		Flags:         models.Flags{IsLowModTract: true},
		DataQuality:   models.NewDataQuality(true, true, false),
	}
}

// insertRecord stands in for the owning application writing its own columns.
func (s *PostgresStoreSuite) insertRecord(ctx context.Context, id, data string) {
	_, err := tx.Use(ctx, s.postgres.DB).ExecContext(ctx,
		`INSERT INTO scenarios (id, data) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, id, data)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) recordData(ctx context.Context, id string) (string, time.Time) {
	var (
		borrower  string
		updatedAt time.Time
	)
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx,
		`SELECT data->>'borrower', cra_snapshot_updated_at FROM scenarios WHERE id = $1`, id,
	).Scan(&borrower, &updatedAt))
	return borrower, updatedAt
}

func (s *PostgresStoreSuite) TestSnapshotMergeKeepsRecordData() {
	ctx := context.Background()
	s.insertRecord(ctx, "scn-1", `{"borrower":"Ada"}`)
	s.Require().NoError(s.store.SaveSnapshot(ctx, "scn-1", snapshot("13217100602", 60000)))

	borrower, updatedAt := s.recordData(ctx, "scn-1")
	s.Equal("Ada", borrower)
	s.True(updatedAt.Equal(s.now))

	snap, err := s.store.FindSnapshot(ctx, "scn-1")
	s.Require().NoError(err)
	s.Equal("13217100602", snap.Geography.FullTractFIPS)
	s.Equal(models.NewDataQuality(true, true, false), snap.DataQuality)

	s.insertRecord(ctx, "scn-1", `{"borrower":"Grace"}`)
	snap, err = s.store.FindSnapshot(ctx, "scn-1")
	s.Require().NoError(err)
	s.Equal(60000.0, snap.IncomeData.AMIOverall, "record writes leave the snapshot alone")
}

func (s *PostgresStoreSuite) TestFindSnapshotNotFound() {
	ctx := context.Background()
	_, err := s.store.FindSnapshot(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.insertRecord(ctx, "bare", `{}`)
	_, err = s.store.FindSnapshot(ctx, "bare")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindSnapshotsBatch() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveSnapshot(ctx, "a", snapshot("13217100602", 60000)))
	s.Require().NoError(s.store.SaveSnapshot(ctx, "b", snapshot("13217100700", 70000)))
	s.insertRecord(ctx, "c", `{}`)

	got, err := s.store.FindSnapshots(ctx, []string{"a", "b", "c", "missing"})
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal("13217100700", got["b"].Geography.FullTractFIPS)
}

func (s *PostgresStoreSuite) TestConcurrentSavesLastWriteWins() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(ami float64) {
			defer wg.Done()
			s.NoError(s.store.SaveSnapshot(ctx, "scn-1", snapshot("13217100602", ami)))
		}(float64(50000 + i*1000))
	}
	wg.Wait()

	ami, err := records.AMI(ctx, s.store, "scn-1")
	s.Require().NoError(err)
	s.GreaterOrEqual(ami, 50000.0)
	s.Less(ami, 70000.0)
}

func (s *PostgresStoreSuite) TestSaveJoinsCallerTransaction() {
	ctx := context.Background()
	errAbort := errors.New("abort")

	err := tx.Run(ctx, s.postgres.DB, func(ctx context.Context) error {
		s.insertRecord(ctx, "scn-tx", `{"step":"draft"}`)
		s.Require().NoError(s.store.SaveSnapshot(ctx, "scn-tx", snapshot("13217100602", 60000)))
		return errAbort
	})
	s.ErrorIs(err, errAbort)

	var rows int
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx, `SELECT count(*) FROM scenarios WHERE id = 'scn-tx'`).Scan(&rows))
	s.Zero(rows, "rolled back with the caller")

	s.Require().NoError(tx.Run(ctx, s.postgres.DB, func(ctx context.Context) error {
		return s.store.SaveSnapshot(ctx, "scn-tx", snapshot("13217100602", 61000))
	}))
	ami, err := records.AMI(ctx, s.store, "scn-tx")
	s.Require().NoError(err)
	s.Equal(61000.0, ami)
}

func (s *PostgresStoreSuite) TestMigrateIsIdempotentInsideCallerTransaction() {
	ctx := context.Background()
	s.Require().NoError(s.store.Migrate(ctx))
	s.Require().NoError(tx.Run(ctx, s.postgres.DB, s.store.Migrate))
}

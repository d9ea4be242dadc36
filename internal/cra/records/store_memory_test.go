package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"eligibility/internal/cra/domain/tiers"
	"eligibility/internal/cra/models"
	"eligibility/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func testSnapshot(ami float64) *models.Snapshot {
	return &models.Snapshot{
		EffectiveYear: models.EffectiveYear,
		Geography:     models.GeoResolution{FullTractFIPS: "13217100602"},
		IncomeData:    tiers.BuildAMI(ami),
		Flags:         models.Flags{IsLowModTract: true, MeetsHomeReady: true},
		DataQuality:   models.NewDataQuality(true, true, true),
	}
}

func (s *InMemoryStoreSuite) TestSaveCreatesMissingRecord() {
	s.Require().NoError(s.store.SaveSnapshot(s.ctx, "scn-new", testSnapshot(50000)))

	snap, err := s.store.FindSnapshot(s.ctx, "scn-new")
	s.Require().NoError(err)
	s.Equal("13217100602", snap.Geography.FullTractFIPS)
}

func (s *InMemoryStoreSuite) TestSaveOverwritesSnapshot() {
	s.Require().NoError(s.store.SaveSnapshot(s.ctx, "scn-1", testSnapshot(50000)))
	s.Require().NoError(s.store.SaveSnapshot(s.ctx, "scn-1", testSnapshot(70000)))

	snap, err := s.store.FindSnapshot(s.ctx, "scn-1")
	s.Require().NoError(err)
	s.Equal(70000.0, snap.IncomeData.AMIOverall)
}

func (s *InMemoryStoreSuite) TestSaveRejectsBadInput() {
	s.Error(s.store.SaveSnapshot(s.ctx, "", testSnapshot(1)))
	s.Error(s.store.SaveSnapshot(s.ctx, "scn-1", nil))
}

func (s *InMemoryStoreSuite) TestReturnedSnapshotIsACopy() {
	s.Require().NoError(s.store.SaveSnapshot(s.ctx, "scn-1", testSnapshot(50000)))

	snap, err := s.store.FindSnapshot(s.ctx, "scn-1")
	s.Require().NoError(err)
	snap.IncomeData.AMIOverall = 1

	again, err := s.store.FindSnapshot(s.ctx, "scn-1")
	s.Require().NoError(err)
	s.Equal(50000.0, again.IncomeData.AMIOverall)
}

func (s *InMemoryStoreSuite) TestNotFound() {
	_, err := s.store.FindSnapshot(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindSnapshotsSkipsMissingAndDuplicates() {
	s.Require().NoError(s.store.SaveSnapshot(s.ctx, "a", testSnapshot(60000)))
	s.Require().NoError(s.store.SaveSnapshot(s.ctx, "b", testSnapshot(70000)))

	got, err := s.store.FindSnapshots(s.ctx, []string{"a", " b ", "a", "missing", ""})
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal(70000.0, got["b"].IncomeData.AMIOverall)
}

// =============================================================================
// Read helpers
// =============================================================================

func (s *InMemoryStoreSuite) TestFlagsAndAMI() {
	s.Require().NoError(s.store.SaveSnapshot(s.ctx, "scn-1", testSnapshot(82000)))

	flags, err := Flags(s.ctx, s.store, "scn-1")
	s.Require().NoError(err)
	s.True(flags.IsLowModTract)
	s.True(flags.MeetsHomeReady)

	ami, err := AMI(s.ctx, s.store, "scn-1")
	s.Require().NoError(err)
	s.Equal(82000.0, ami)
}

func (s *InMemoryStoreSuite) TestAMIMissing() {
	snap := testSnapshot(0)
	snap.IncomeData = models.IncomeData{}
	s.Require().NoError(s.store.SaveSnapshot(s.ctx, "scn-1", snap))

	_, err := AMI(s.ctx, s.store, "scn-1")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = Flags(s.ctx, s.store, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

package tiers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"eligibility/internal/cra/domain/tiers"
	"eligibility/internal/cra/models"
)

type TiersSuite struct {
	suite.Suite
}

func TestTiersSuite(t *testing.T) {
	suite.Run(t, new(TiersSuite))
}

func (s *TiersSuite) TestClassifyTract() {
	cases := []struct {
		ratio float64
		want  models.IncomeLevel
	}{
		{0, models.IncomeLevelLow},
		{49.9, models.IncomeLevelLow},
		{50, models.IncomeLevelModerate},
		{72, models.IncomeLevelModerate},
		{79.9, models.IncomeLevelModerate},
		{80, models.IncomeLevelMiddle},
		{119.9, models.IncomeLevelMiddle},
		{120, models.IncomeLevelUpper},
		{400, models.IncomeLevelUpper},
	}
	for _, tc := range cases {
		s.Equal(tc.want, tiers.ClassifyTract(tc.ratio), "ratio %.1f", tc.ratio)
	}
}

func (s *TiersSuite) TestTractRatio() {
	s.Run("rounds to one decimal", func() {
		s.Equal(72.0, tiers.TractRatio(36000, 50000))
		s.Equal(66.7, tiers.TractRatio(40000, 60000))
	})

	s.Run("missing county income defaults to parity", func() {
		s.Equal(100.0, tiers.TractRatio(40000, 0))
		s.Equal(100.0, tiers.TractRatio(40000, -666666666))
	})
}

func (s *TiersSuite) TestMinorityPct() {
	s.Equal(25.0, tiers.MinorityPct(4000, 3000))
	s.Equal(0.0, tiers.MinorityPct(0, 0))
	s.Equal(0.0, tiers.MinorityPct(100, 150))
}

func (s *TiersSuite) TestBuildAMI() {
	d := tiers.BuildAMI(61234)
	s.Equal(61234.0, d.AMIOverall)
	s.Equal(48987.0, d.AMI80)
	s.Equal(61234.0, d.AMI100)
	s.Equal(73481.0, d.AMI120)
	s.Equal(91851.0, d.AMI150)

	s.Run("fractional median is rounded to whole dollars", func() {
		d := tiers.BuildAMI(61234.6)
		s.Equal(61235.0, d.AMIOverall)
		s.Equal(61235.0, d.AMI100)
		s.Equal(48988.0, d.AMI80)
	})
}

func (s *TiersSuite) TestBuildMFI() {
	d := tiers.BuildMFI(tiers.BuildAMI(60000), 60000, 72)
	s.Equal(60000.0, d.MSAMFI)
	s.Equal(43200.0, d.TractEstimatedMFI)
	s.Equal(34560.0, d.MFI80)
	s.Equal(43200.0, d.MFI100)
	s.Equal(64800.0, d.MFI150)
	s.Equal(60000.0, d.AMIOverall, "AMI block is preserved")
}

func (s *TiersSuite) TestBorrowerAMIPct() {
	s.Run("annualizes monthly income", func() {
		pct, ok := tiers.BorrowerAMIPct(5000, 60000)
		s.True(ok)
		s.Equal(100.0, pct)
	})

	s.Run("requires both values", func() {
		_, ok := tiers.BorrowerAMIPct(0, 60000)
		s.False(ok)
		_, ok = tiers.BorrowerAMIPct(5000, 0)
		s.False(ok)
	})
}

func TestClassifyBorrower(t *testing.T) {
	cases := map[float64]models.AMITier{
		10:    models.AMITierVeryLow,
		50:    models.AMITierVeryLow,
		50.1:  models.AMITierLow,
		80:    models.AMITierLow,
		100:   models.AMITierModerate,
		120:   models.AMITierAboveMod,
		150:   models.AMITierMiddle,
		150.1: models.AMITierAboveLimit,
	}
	for pct, want := range cases {
		assert.Equal(t, want, tiers.ClassifyBorrower(pct), "pct %.1f", pct)
	}
}

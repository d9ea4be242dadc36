// Package flags derives eligibility flags from resolved tract data and
// borrower income. Derive is pure; the caller supplies the clock reading.
package flags

import (
	"fmt"
	"math"
	"time"

	"eligibility/internal/cra/domain/tiers"
	"eligibility/internal/cra/models"
)

const (
	HighMinorityThreshold      = 50.0
	HighConcentrationThreshold = 25.0

	// Program income ceilings as a percentage of AMI.
	HomeReadyCeiling    = 80.0
	HomePossibleCeiling = 80.0
	MostDPACeiling      = 120.0
	USDAIncomeCeiling   = 115.0

	RefreshWarningDays = 60
)

// refreshMonth is the annual income-limit publication cutover (June 1).
const refreshMonth = time.June

// Input is everything Derive reads.
type Input struct {
	MinorityPct   float64
	IsLowModTract bool
	Demographics  models.Demographics
	Income        models.IncomeData
	MonthlyIncome float64
}

// InputFromSnapshot collects the derivation inputs held on a snapshot.
func InputFromSnapshot(s *models.Snapshot, monthlyIncome float64) Input {
	return Input{
		MinorityPct:   s.TractMetrics.MinorityPct,
		IsLowModTract: s.TractMetrics.IsLowModTract,
		Demographics:  s.Demographics,
		Income:        s.IncomeData,
		MonthlyIncome: monthlyIncome,
	}
}

// Derive computes the flag set at instant now.
func Derive(in Input, now time.Time) models.Flags {
	f := models.Flags{
		IsLowModTract:       in.IsLowModTract,
		IsHighMinorityTract: in.MinorityPct >= HighMinorityThreshold,
		IsHighHispanicTract: in.Demographics.Hispanic.Pct >= HighConcentrationThreshold,
		IsHighBlackTract:    in.Demographics.Black.Pct >= HighConcentrationThreshold,
		IsHighAsianTract:    in.Demographics.AsianPacific.Pct >= HighConcentrationThreshold,
		EffectiveYear:       models.EffectiveYear,
	}

	if pct, ok := tiers.BorrowerAMIPct(in.MonthlyIncome, in.Income.AMIOverall); ok {
		tier := tiers.ClassifyBorrower(pct)
		f.BorrowerAMIPct = &pct
		f.BorrowerAMITier = &tier
		f.MeetsHomeReady = pct <= HomeReadyCeiling
		f.MeetsHomePossible = pct <= HomePossibleCeiling
		f.MeetsMostDPA = pct <= MostDPACeiling
		f.MeetsUSDAIncome = pct <= USDAIncomeCeiling
	}

	next := NextRefresh(now)
	days := DaysUntil(next, now)
	f.NextDataRefresh = next.Format(time.DateOnly)
	if days <= RefreshWarningDays {
		msg := fmt.Sprintf("HUD income limits update in ~%d days. Lock AMI-dependent programs soon.", days)
		f.DataRefreshWarning = true
		f.DataRefreshMessage = &msg
	}
	return f
}

// NextRefresh is June 1 (UTC) of now's year if now is before June, otherwise of the next year.
func NextRefresh(now time.Time) time.Time {
	year := now.Year()
	if now.Month() >= refreshMonth {
		year++
	}
	return time.Date(year, refreshMonth, 1, 0, 0, 0, 0, time.UTC)
}

// DaysUntil counts whole days from now to target, rounding partial days up.
func DaysUntil(target, now time.Time) int {
	return int(math.Ceil(target.Sub(now).Hours() / 24))
}

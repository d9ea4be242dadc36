// Package tiers holds the income ratio and tier rules shared by the fetchers
// and the flag deriver. Everything here is pure: no I/O, no clock.
package tiers

import (
	"math"

	"eligibility/internal/cra/models"
)

// Tract income level cutoffs, as a percentage of county median family income.
const (
	LowCutoff      = 50.0
	ModerateCutoff = 80.0
	MiddleCutoff   = 120.0
)

// Round1 rounds to one decimal place, half away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ClassifyTract maps a tract/county income ratio to its income level.
// Boundaries belong to the higher tier: 50 is MODERATE, 80 is MIDDLE, 120 is UPPER.
func ClassifyTract(ratio float64) models.IncomeLevel {
	switch {
	case ratio < LowCutoff:
		return models.IncomeLevelLow
	case ratio < ModerateCutoff:
		return models.IncomeLevelModerate
	case ratio < MiddleCutoff:
		return models.IncomeLevelMiddle
	default:
		return models.IncomeLevelUpper
	}
}

// TractRatio is the tract median family income as a percentage of the county's,
// rounded to one decimal. A non-positive county value yields 100.
func TractRatio(tractMFI, countyMFI float64) float64 {
	if countyMFI <= 0 {
		return 100
	}
	return Round1(tractMFI / countyMFI * 100)
}

// Pct is count as a percentage of total, rounded to one decimal; 0 when total is not positive.
func Pct(count, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Round1(count / total * 100)
}

// MinorityPct is the share of the population outside the majority group.
func MinorityPct(total, majority float64) float64 {
	return Pct(math.Max(total-majority, 0), total)
}

// BuildAMI derives the whole-dollar median and its 80/100/120/150% ceilings.
func BuildAMI(ami float64) models.IncomeData {
	return models.IncomeData{
		AMIOverall: math.Round(ami),
		AMI80:      math.Round(ami * 0.8),
		AMI100:     math.Round(ami),
		AMI120:     math.Round(ami * 1.2),
		AMI150:     math.Round(ami * 1.5),
	}
}

// BuildMFI fills the median family income block of d: the area MFI, the tract
// estimate scaled by ratio, and its 80/100/150% levels.
func BuildMFI(d models.IncomeData, areaMFI, ratio float64) models.IncomeData {
	estimate := math.Round(areaMFI * ratio / 100)
	d.MSAMFI = areaMFI
	d.TractEstimatedMFI = estimate
	d.MFI80 = math.Round(estimate * 0.8)
	d.MFI100 = estimate
	d.MFI150 = math.Round(estimate * 1.5)
	return d
}

// Borrower AMI tier ceilings, inclusive.
const (
	VeryLowCeiling  = 50.0
	LowCeiling      = 80.0
	ModerateCeiling = 100.0
	AboveModCeiling = 120.0
	MiddleCeiling   = 150.0
)

// BorrowerAMIPct annualizes monthly income and expresses it against ami.
// ok is false unless both are positive.
func BorrowerAMIPct(monthlyIncome, ami float64) (pct float64, ok bool) {
	if monthlyIncome <= 0 || ami <= 0 {
		return 0, false
	}
	return Round1(monthlyIncome * 12 / ami * 100), true
}

// ClassifyBorrower buckets a borrower AMI percentage.
func ClassifyBorrower(pct float64) models.AMITier {
	switch {
	case pct <= VeryLowCeiling:
		return models.AMITierVeryLow
	case pct <= LowCeiling:
		return models.AMITierLow
	case pct <= ModerateCeiling:
		return models.AMITierModerate
	case pct <= AboveModCeiling:
		return models.AMITierAboveMod
	case pct <= MiddleCeiling:
		return models.AMITierMiddle
	default:
		return models.AMITierAboveLimit
	}
}

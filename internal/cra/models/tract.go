package models

// IncomeLevel classifies a tract's median family income against its county.
type IncomeLevel string

const (
	IncomeLevelLow      IncomeLevel = "LOW"
	IncomeLevelModerate IncomeLevel = "MODERATE"
	IncomeLevelMiddle   IncomeLevel = "MIDDLE"
	IncomeLevelUpper    IncomeLevel = "UPPER"
	IncomeLevelUnknown  IncomeLevel = "UNKNOWN"
)

// IncomeLevelInfo is the display metadata attached to an IncomeLevel.
type IncomeLevelInfo struct {
	Code     int
	Label    string
	Color    string
	IsLowMod bool
}

var incomeLevels = map[IncomeLevel]IncomeLevelInfo{
	IncomeLevelLow:      {Code: 1, Label: "Low Income Tract", Color: "#dc2626", IsLowMod: true},
	IncomeLevelModerate: {Code: 2, Label: "Moderate Income Tract", Color: "#d97706", IsLowMod: true},
	IncomeLevelMiddle:   {Code: 3, Label: "Middle Income Tract", Color: "#2563eb", IsLowMod: false},
	IncomeLevelUpper:    {Code: 4, Label: "Upper Income Tract", Color: "#16a34a", IsLowMod: false},
	IncomeLevelUnknown:  {Code: 5, Label: "Income Level Unavailable", Color: "#6b7280", IsLowMod: false},
}

// Info returns the display metadata for l; unrecognized levels map to UNKNOWN.
func (l IncomeLevel) Info() IncomeLevelInfo {
	if info, ok := incomeLevels[l]; ok {
		return info
	}
	return incomeLevels[IncomeLevelUnknown]
}

// TractMetrics holds tract-level income and composition figures.
type TractMetrics struct {
	IncomeLevel      IncomeLevel `json:"tractIncomeLevel"`
	IncomeLevelCode  int         `json:"tractIncomeLevelCode"`
	IncomeLevelLabel string      `json:"tractIncomeLevelLabel"`
	IncomeLevelColor string      `json:"tractIncomeLevelColor"`
	IsLowModTract    bool        `json:"isLowModTract"`
	MinorityPct      float64     `json:"tractMinorityPct"`
	TractMFIPct      float64     `json:"tractMfiPct"`
	CountyMFI        float64     `json:"countyMfi"`

	// Failed marks the sentinel returned when the statistics source was unavailable.
	Failed bool `json:"-"`
}

// NewTractMetrics fills the display fields from level.
func NewTractMetrics(level IncomeLevel, minorityPct, ratio, countyMFI float64) TractMetrics {
	info := level.Info()
	return TractMetrics{
		IncomeLevel:      level,
		IncomeLevelCode:  info.Code,
		IncomeLevelLabel: info.Label,
		IncomeLevelColor: info.Color,
		IsLowModTract:    info.IsLowMod,
		MinorityPct:      minorityPct,
		TractMFIPct:      ratio,
		CountyMFI:        countyMFI,
	}
}

// UnavailableTractMetrics is the fail-soft sentinel: UNKNOWN tier, zero
// minority share, ratio 100, not low-mod.
func UnavailableTractMetrics() TractMetrics {
	m := NewTractMetrics(IncomeLevelUnknown, 0, 100, 0)
	m.Failed = true
	return m
}

package models

import "time"

// Data vintages and citations stamped on every snapshot.
const (
	EffectiveYear  = 2025
	TractDataYear  = 2025
	DefaultACSYear = 2023
)

// Source lists the citation for each upstream dataset.
type Source struct {
	Tract    string `json:"ffiec"`
	Income   string `json:"hud"`
	ACS      string `json:"acs"`
	Geocoder string `json:"geocoder"`
}

// Snapshot is the composite eligibility record for one address.
// It is treated as immutable once built; use WithFlags to re-derive flags.
type Snapshot struct {
	EffectiveYear int           `json:"effectiveYear"`
	ACSYear       int           `json:"acsYear"`
	ResolvedAt    time.Time     `json:"resolvedAt"`
	Geography     GeoResolution `json:"geography"`
	TractMetrics  TractMetrics  `json:"tractMetrics"`
	IncomeData    IncomeData    `json:"incomeData"`
	Demographics  Demographics  `json:"demographics"`
	Flags         Flags         `json:"flags"`
	Source        Source        `json:"source"`
	DataQuality   DataQuality   `json:"dataQuality"`
}

// WithFlags returns a copy of s carrying flags. The receiver is not modified.
func (s *Snapshot) WithFlags(flags Flags) *Snapshot {
	out := *s
	out.Flags = flags
	return &out
}

// CacheEntry is one cached snapshot and the time it was stored.
type CacheEntry struct {
	Key      string    `json:"key"`
	CachedAt time.Time `json:"cachedAt"`
	Snapshot *Snapshot `json:"snapshot"`
}

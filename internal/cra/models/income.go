package models

// IncomeData carries area median income ceilings and the tract MFI estimate.
type IncomeData struct {
	AMIOverall float64 `json:"amiOverall"`
	AMI80      float64 `json:"ami80"`
	AMI100     float64 `json:"ami100"`
	AMI120     float64 `json:"ami120"`
	AMI150     float64 `json:"ami150"`

	MSAMFI            float64 `json:"msaMfi"`
	TractEstimatedMFI float64 `json:"tractEstimatedMfi"`
	MFI80             float64 `json:"mfi80"`
	MFI100            float64 `json:"mfi100"`
	MFI150            float64 `json:"mfi150"`

	// Fallback is set when tiers were built from the county MFI reported by
	// the tract statistics source instead of the income source.
	Fallback bool `json:"fallback,omitempty"`
	Failed   bool `json:"-"`
}

// HasAMI reports whether an overall AMI is available for ratio math.
func (d IncomeData) HasAMI() bool {
	return d.AMIOverall > 0
}

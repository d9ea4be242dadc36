package models

// SourceName is the user-facing name of an upstream dataset.
type SourceName string

const (
	SourceTract        SourceName = "FFIEC"
	SourceIncome       SourceName = "HUD"
	SourceDemographics SourceName = "ACS Demographics"
)

// DataQuality records which upstream sources contributed to a snapshot.
type DataQuality struct {
	TractAvailable        bool `json:"ffiecAvailable"`
	IncomeAvailable       bool `json:"hudAvailable"`
	DemographicsAvailable bool `json:"acsAvailable"`
	FullDataAvailable     bool `json:"fullDataAvailable"`
}

// NewDataQuality builds the vector; FullDataAvailable holds iff all three are true.
func NewDataQuality(tract, income, demographics bool) DataQuality {
	return DataQuality{
		TractAvailable:        tract,
		IncomeAvailable:       income,
		DemographicsAvailable: demographics,
		FullDataAvailable:     tract && income && demographics,
	}
}

// Unavailable lists the named sources that did not contribute, in display order.
func (q DataQuality) Unavailable() []SourceName {
	var out []SourceName
	if !q.TractAvailable {
		out = append(out, SourceTract)
	}
	if !q.IncomeAvailable {
		out = append(out, SourceIncome)
	}
	if !q.DemographicsAvailable {
		out = append(out, SourceDemographics)
	}
	return out
}

package models

// GroupShare is a subgroup head count and its share of total population.
type GroupShare struct {
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// Demographics is the tract population breakdown.
type Demographics struct {
	TotalPopulation int        `json:"totalPopulation"`
	Hispanic        GroupShare `json:"hispanic"`
	Black           GroupShare `json:"black"`
	AsianPacific    GroupShare `json:"asianPacific"`

	Failed bool `json:"-"`
}

// UnavailableDemographics is the zeroed fail-soft result.
func UnavailableDemographics() Demographics {
	return Demographics{Failed: true}
}

package models

// AMITier buckets a borrower's income as a percentage of AMI.
type AMITier string

const (
	AMITierVeryLow    AMITier = "VERY_LOW"
	AMITierLow        AMITier = "LOW"
	AMITierModerate   AMITier = "MODERATE"
	AMITierAboveMod   AMITier = "ABOVE_MOD"
	AMITierMiddle     AMITier = "MIDDLE"
	AMITierAboveLimit AMITier = "ABOVE_LIMIT"
)

// Flags are the eligibility signals derived from a snapshot and borrower income.
type Flags struct {
	IsLowModTract       bool `json:"isLowModTract"`
	IsHighMinorityTract bool `json:"isHighMinorityTract"`
	IsHighHispanicTract bool `json:"isHighHispanicTract"`
	IsHighBlackTract    bool `json:"isHighBlackTract"`
	IsHighAsianTract    bool `json:"isHighAsianTract"`

	// BorrowerAMIPct is nil unless borrower income and AMI are both positive.
	BorrowerAMIPct  *float64 `json:"borrowerAmiPct"`
	BorrowerAMITier *AMITier `json:"borrowerAmiTier"`

	MeetsHomeReady    bool `json:"meetsHomeReady"`
	MeetsHomePossible bool `json:"meetsHomePossible"`
	MeetsMostDPA      bool `json:"meetsMostDPA"`
	MeetsUSDAIncome   bool `json:"meetsUSDAIncome"`

	EffectiveYear      int     `json:"hudEffectiveYear"`
	NextDataRefresh    string  `json:"nextHudRelease"`
	DataRefreshWarning bool    `json:"hudExpirationWarning"`
	DataRefreshMessage *string `json:"hudExpirationMessage"`
}

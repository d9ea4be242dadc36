package models

import "strings"

// FIPS component widths.
const (
	StateFIPSLen  = 2
	CountyFIPSLen = 3
	TractCodeLen  = 6
	TractFIPSLen  = StateFIPSLen + CountyFIPSLen + TractCodeLen
)

// GeoResolution is a geocoded address pinned to a census tract.
type GeoResolution struct {
	AddressNormalized string  `json:"addressNormalized"`
	StateFIPS         string  `json:"stateFips"`
	CountyFIPS        string  `json:"countyFips"`
	TractCode         string  `json:"tractCode"`
	FullTractFIPS     string  `json:"fullTractFIPS"`
	CountyName        string  `json:"countyName"`
	MSACode           string  `json:"msaCode"`
	MSAName           string  `json:"msaName"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
}

// PadFIPS left-pads a FIPS component with zeros to width.
func PadFIPS(value string, width int) string {
	value = strings.TrimSpace(value)
	if len(value) >= width {
		return value
	}
	return strings.Repeat("0", width-len(value)) + value
}

// BuildTractFIPS concatenates padded state, county and tract codes.
func BuildTractFIPS(state, county, tract string) string {
	return PadFIPS(state, StateFIPSLen) + PadFIPS(county, CountyFIPSLen) + PadFIPS(tract, TractCodeLen)
}

// IsTractFIPS reports whether s is exactly 11 ASCII digits.
func IsTractFIPS(s string) bool {
	if len(s) != TractFIPSLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

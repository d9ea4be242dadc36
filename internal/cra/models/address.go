package models

import (
	"regexp"
	"strings"
)

// AddressInput is the mailing address a resolution is requested for.
type AddressInput struct {
	Street string `json:"streetAddress"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zipCode"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (a AddressInput) Trimmed() AddressInput {
	return AddressInput{
		Street: strings.TrimSpace(a.Street),
		City:   strings.TrimSpace(a.City),
		State:  strings.TrimSpace(a.State),
		Zip:    strings.TrimSpace(a.Zip),
	}
}

// Complete reports whether street, city, state and ZIP are all present.
func (a AddressInput) Complete() bool {
	t := a.Trimmed()
	return t.Street != "" && t.City != "" && t.State != "" && t.Zip != ""
}

// Locatable reports whether the address carries the minimum a geocoder needs.
func (a AddressInput) Locatable() bool {
	t := a.Trimmed()
	return t.Street != "" && t.Zip != ""
}

var whitespace = regexp.MustCompile(`\s+`)

// CacheKey is the lower-cased, whitespace-collapsed street_zip key.
func (a AddressInput) CacheKey() string {
	t := a.Trimmed()
	key := t.Street + "_" + t.Zip
	return strings.ToLower(whitespace.ReplaceAllString(key, "_"))
}

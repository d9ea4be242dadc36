package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// Canned census answers for 123 Main St, Covington GA 30014: tract
// 13217100602 with a tract median income of 43200 against a county median of
// 60000, i.e. a 72% ratio.
const (
	CovingtonTractFIPS = "13217100602"
	CovingtonCountyMFI = 60000.0

	geocodeMatch = `{"result":{"addressMatches":[{
		"matchedAddress":"123 MAIN ST, COVINGTON, GA, 30014",
		"coordinates":{"x":-83.86,"y":33.59},
		"geographies":{"Census Tracts":[{"STATE":"13","COUNTY":"217","TRACT":"100602","BASENAME":"1006.02"}]}}]}}`
	countyIncome = `[["B19013_001E","state","county"],["60000","13","217"]]`
	tractStats   = `[["B19013_001E","B02001_001E","B02001_002E","state","county","tract"],["43200","4000","1560","13","217","100602"]]`
	tractPeople  = `[["B01003_001E","B03003_003E","B02001_003E","B02001_005E","B02001_006E","state","county","tract"],
		["4000","600","1200","150","10","13","217","100602"]]`
)

// CensusServer fakes the Census geocoder and ACS API on one httptest server.
type CensusServer struct {
	*httptest.Server

	Calls            atomic.Int32
	DemographicsDown atomic.Bool
	NoMatch          atomic.Bool

	// OnACS runs before every ACS answer. Set it before issuing requests.
	OnACS func()
}

// NewCensusServer starts a fake closed at test cleanup.
func NewCensusServer(t *testing.T) *CensusServer {
	t.Helper()
	c := &CensusServer{}
	c.Server = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.Close)
	return c
}

func (c *CensusServer) serve(w http.ResponseWriter, r *http.Request) {
	c.Calls.Add(1)
	q := r.URL.Query()
	if strings.HasPrefix(r.URL.Path, "/geocoder/") {
		if c.NoMatch.Load() {
			_, _ = w.Write([]byte(`{"result":{"addressMatches":[]}}`))
			return
		}
		_, _ = w.Write([]byte(geocodeMatch))
		return
	}
	if c.OnACS != nil {
		c.OnACS()
	}
	switch {
	case strings.HasPrefix(q.Get("for"), "county:"):
		_, _ = w.Write([]byte(countyIncome))
	case strings.HasPrefix(q.Get("get"), "B01003_001E"):
		if c.DemographicsDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(tractPeople))
	default:
		_, _ = w.Write([]byte(tractStats))
	}
}

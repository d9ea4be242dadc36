package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Resolver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"eligibility/internal/cra/controller"
	"eligibility/internal/cra/domain/tiers"
	"eligibility/internal/cra/handler/mocks"
	"eligibility/internal/cra/models"
	"eligibility/internal/cra/records"
	"eligibility/pkg/testutil"
)

// =============================================================================
// Handler Test Suite
// =============================================================================

type HandlerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	resolver *mocks.MockResolver
	registry *controller.Registry
	store    *records.InMemoryStore
	router   chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.resolver = mocks.NewMockResolver(s.ctrl)
	s.store = records.NewInMemoryStore()
	s.registry = controller.NewRegistry(s.resolver, controller.WithSnapshotWriter(s.store))

	s.router = chi.NewRouter()
	New(s.resolver, s.registry, s.store, nil, nil).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.registry.Wait()
	s.ctrl.Finish()
}

var covington = models.AddressInput{Street: "123 Main St", City: "Covington", State: "GA", Zip: "30014"}

const covingtonBody = `{"address":{"streetAddress":" 123 Main St ","city":"Covington","state":"GA","zipCode":"30014"},"monthlyIncome":5000}`

func fullSnapshot() *models.Snapshot {
	return &models.Snapshot{
		EffectiveYear: models.EffectiveYear,
		Geography:     models.GeoResolution{FullTractFIPS: "13217100602"},
		IncomeData:    tiers.BuildAMI(60000),
		Flags:         models.Flags{IsLowModTract: true},
		DataQuality:   models.NewDataQuality(true, true, true),
	}
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var payload any
	if body != "" {
		payload = body
	}
	return testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), method, path, payload))
}

func decode[T any](s *HandlerSuite, rec *httptest.ResponseRecorder) T {
	return *testutil.UnmarshalResponse[T](s.T(), rec)
}

// =============================================================================
// POST /cra/resolve
// =============================================================================

func (s *HandlerSuite) TestResolve() {
	s.resolver.EXPECT().Resolve(gomock.Any(), covington, 5000.0).Return(fullSnapshot(), nil)

	rec := s.do(http.MethodPost, "/cra/resolve", covingtonBody)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("application/json", rec.Header().Get("Content-Type"))
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
	snap := decode[models.Snapshot](s, rec)
	s.Equal("13217100602", snap.Geography.FullTractFIPS)
	s.True(snap.DataQuality.FullDataAvailable)
}

func (s *HandlerSuite) TestResolveValidation() {
	cases := map[string]string{
		"malformed json":     `{"address":`,
		"incomplete address": `{"address":{"streetAddress":"123 Main St","zipCode":"30014"}}`,
		"negative income":    `{"address":{"streetAddress":"1 A St","city":"B","state":"GA","zipCode":"30014"},"monthlyIncome":-1}`,
	}
	for name, body := range cases {
		s.Run(name, func() {
			rec := s.do(http.MethodPost, "/cra/resolve", body)
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Contains([]string{"bad_request", "validation_error"}, decode[map[string]string](s, rec)["error"])
		})
	}
}

func (s *HandlerSuite) TestResolveErrorMapping() {
	cases := []struct {
		err    error
		status int
		code   string
		desc   string
	}{
		{fmt.Errorf("geocode address: %w", models.ErrAddressNotFound), http.StatusUnprocessableEntity, "unprocessable_entity", controller.MsgAddressNotLocated},
		{fmt.Errorf("geocode address: %w", models.ErrTractNotFound), http.StatusUnprocessableEntity, "unprocessable_entity", controller.MsgTractNotFound},
		{errors.New("connection reset"), http.StatusServiceUnavailable, "service_unavailable", controller.MsgTemporarilyDown},
	}
	for _, tc := range cases {
		s.resolver.EXPECT().Resolve(gomock.Any(), covington, 5000.0).Return(nil, tc.err)

		rec := s.do(http.MethodPost, "/cra/resolve", covingtonBody)
		s.Equal(tc.desc, testutil.AssertStatusAndError(s.T(), rec, tc.status, tc.code))
	}
}

// =============================================================================
// Scenario routes
// =============================================================================

func (s *HandlerSuite) TestScenarioLifecycle() {
	snap := fullSnapshot()
	s.resolver.EXPECT().Resolve(gomock.Any(), covington, 5000.0).Return(snap, nil)

	rec := s.do(http.MethodGet, "/scenarios/scn-1/cra", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(controller.StatusIdle, decode[controller.State](s, rec).Status)

	rec = s.do(http.MethodPost, "/scenarios/scn-1/cra", covingtonBody)
	s.Equal(http.StatusOK, rec.Code)
	state := decode[controller.State](s, rec)
	s.Equal(controller.StatusSuccess, state.Status)
	s.False(state.Loading)

	rec = s.do(http.MethodPatch, "/scenarios/scn-1/cra/income", `{"monthlyIncome":4000}`)
	s.Equal(http.StatusOK, rec.Code)
	state = decode[controller.State](s, rec)
	s.Require().NotNil(state.Snapshot.Flags.BorrowerAMIPct)
	s.Equal(80.0, *state.Snapshot.Flags.BorrowerAMIPct)

	s.registry.Wait()
	rec = s.do(http.MethodGet, "/scenarios/scn-1/cra/snapshot", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("13217100602", decode[models.Snapshot](s, rec).Geography.FullTractFIPS)

	rec = s.do(http.MethodDelete, "/scenarios/scn-1/cra", "")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/scenarios/scn-1/cra", "")
	s.Equal(controller.StatusIdle, decode[controller.State](s, rec).Status)
}

func (s *HandlerSuite) TestRunWithIncompleteAddressReportsGuardMessage() {
	rec := s.do(http.MethodPost, "/scenarios/scn-1/cra", `{"address":{"city":"Covington","state":"GA"},"monthlyIncome":5000}`)

	s.Equal(http.StatusOK, rec.Code)
	state := decode[controller.State](s, rec)
	s.Equal(controller.StatusError, state.Status)
	s.Equal(controller.MsgAddressIncomplete, state.Error)
}

func (s *HandlerSuite) TestUpdateIncomeWithoutRunIsIdle() {
	rec := s.do(http.MethodPatch, "/scenarios/unknown/cra/income", `{"monthlyIncome":4000}`)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(controller.StatusIdle, decode[controller.State](s, rec).Status)

	rec = s.do(http.MethodPatch, "/scenarios/unknown/cra/income", `{"monthlyIncome":-5}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSnapshotNotFound() {
	rec := s.do(http.MethodGet, "/scenarios/missing/cra/snapshot", "")
	testutil.AssertStatusAndError(s.T(), rec, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestStateLookupTrimsScenarioID() {
	s.resolver.EXPECT().Resolve(gomock.Any(), covington, 5000.0).Return(fullSnapshot(), nil)

	rec := s.do(http.MethodPost, "/scenarios/scn-1/cra", covingtonBody)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/scenarios/%20scn-1%20/cra", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(controller.StatusSuccess, decode[controller.State](s, rec).Status)
}

// =============================================================================
// Stored snapshot reads
// =============================================================================

func (s *HandlerSuite) TestStoredFlagsAndAMI() {
	s.Require().NoError(s.store.SaveSnapshot(s.T().Context(), "scn-1", fullSnapshot()))

	rec := s.do(http.MethodGet, "/scenarios/scn-1/cra/flags", "")
	s.Equal(http.StatusOK, rec.Code)
	s.True(decode[models.Flags](s, rec).IsLowModTract)

	rec = s.do(http.MethodGet, "/scenarios/scn-1/cra/ami", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(60000.0, decode[AMIResponse](s, rec).AMIOverall)
}

func (s *HandlerSuite) TestStoredAMIMissing() {
	snap := fullSnapshot()
	snap.IncomeData = models.IncomeData{}
	s.Require().NoError(s.store.SaveSnapshot(s.T().Context(), "no-ami", snap))

	rec := s.do(http.MethodGet, "/scenarios/no-ami/cra/ami", "")
	testutil.AssertStatusAndError(s.T(), rec, http.StatusNotFound, "not_found")

	rec = s.do(http.MethodGet, "/scenarios/missing/cra/flags", "")
	testutil.AssertStatusAndError(s.T(), rec, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestStoredSnapshotsBatch() {
	s.Require().NoError(s.store.SaveSnapshot(s.T().Context(), "a", fullSnapshot()))
	s.Require().NoError(s.store.SaveSnapshot(s.T().Context(), "b", fullSnapshot()))

	rec := s.do(http.MethodGet, "/cra/snapshots?ids=a,b,missing,a", "")
	s.Equal(http.StatusOK, rec.Code)
	got := decode[map[string]models.Snapshot](s, rec)
	s.Len(got, 2)
	s.Equal("13217100602", got["b"].Geography.FullTractFIPS)

	rec = s.do(http.MethodGet, "/cra/snapshots", "")
	testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, "bad_request")

	ids := make([]string, maxBatchIDs+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("scn-%d", i)
	}
	rec = s.do(http.MethodGet, "/cra/snapshots?ids="+strings.Join(ids, ","), "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

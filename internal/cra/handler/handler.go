// Package handler exposes snapshot resolution over HTTP.
//
//	POST   /cra/resolve                  stateless resolution
//	GET    /cra/snapshots?ids=a,b        stored snapshots for several records
//	GET    /scenarios/{id}/cra           controller state for a record
//	POST   /scenarios/{id}/cra           run a resolution for a record
//	DELETE /scenarios/{id}/cra           clear the record's controller
//	PATCH  /scenarios/{id}/cra/income    re-derive flags for a new income
//	GET    /scenarios/{id}/cra/snapshot  snapshot stored with the record
//	GET    /scenarios/{id}/cra/flags     flags stored with the record
//	GET    /scenarios/{id}/cra/ami       area median income stored with the record
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"eligibility/internal/cra/controller"
	"eligibility/internal/cra/models"
	"eligibility/internal/cra/records"
	"eligibility/internal/platform/metrics"
	"eligibility/internal/platform/middleware"
	dErrors "eligibility/pkg/domain-errors"
	"eligibility/pkg/platform/httputil"
	"eligibility/pkg/platform/middleware/metadata"
	"eligibility/pkg/platform/middleware/requesttime"
	"eligibility/pkg/platform/sentinel"
	pstrings "eligibility/pkg/platform/strings"
)

const (
	requestTimeout = 60 * time.Second
	maxBatchIDs    = 100
)

// Resolver produces snapshots without per-record state.
type Resolver interface {
	Resolve(ctx context.Context, addr models.AddressInput, monthlyIncome float64) (*models.Snapshot, error)
}

// Controllers hands out per-record controllers.
type Controllers interface {
	Get(recordID string) (*controller.Controller, error)
	Lookup(recordID string) (*controller.Controller, bool)
	Remove(recordID string)
}

// Handler handles snapshot endpoints.
type Handler struct {
	logger      *slog.Logger
	resolver    Resolver
	controllers Controllers
	records     records.Reader
	metrics     *metrics.Metrics
}

// New creates a new snapshot Handler.
func New(resolver Resolver, controllers Controllers, reader records.Reader, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		logger:      logger,
		resolver:    resolver,
		controllers: controllers,
		records:     reader,
		metrics:     m,
	}
}

// Register registers the snapshot routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	craRouter := chi.NewRouter()
	craRouter.Use(middleware.Recovery(h.logger))
	craRouter.Use(middleware.RequestID)
	craRouter.Use(requesttime.Middleware)
	craRouter.Use(metadata.ClientMetadata)
	craRouter.Use(middleware.Logger(h.logger))
	craRouter.Use(middleware.Timeout(requestTimeout))
	craRouter.Use(middleware.ContentTypeJSON)
	craRouter.Use(middleware.LatencyMiddleware(h.metrics))

	craRouter.Post("/cra/resolve", h.handleResolve)
	craRouter.Get("/cra/snapshots", h.handleGetSnapshots)
	craRouter.Route("/scenarios/{id}/cra", func(sr chi.Router) {
		sr.Get("/", h.handleGetState)
		sr.Post("/", h.handleRun)
		sr.Delete("/", h.handleClear)
		sr.Patch("/income", h.handleUpdateIncome)
		sr.Get("/snapshot", h.handleGetSnapshot)
		sr.Get("/flags", h.handleGetFlags)
		sr.Get("/ami", h.handleGetAMI)
	})

	r.Mount("/", craRouter)
}

// ResolveRequest is the body of POST /cra/resolve and POST /scenarios/{id}/cra.
type ResolveRequest struct {
	Address       models.AddressInput `json:"address"`
	MonthlyIncome float64             `json:"monthlyIncome"`
}

func (r *ResolveRequest) Validate() error {
	r.Address = r.Address.Trimmed()
	if r.MonthlyIncome < 0 {
		return dErrors.New(dErrors.CodeValidation, "monthlyIncome must not be negative")
	}
	return nil
}

// IncomeRequest is the body of PATCH /scenarios/{id}/cra/income.
type IncomeRequest struct {
	MonthlyIncome float64 `json:"monthlyIncome"`
}

func (r *IncomeRequest) Validate() error {
	if r.MonthlyIncome < 0 {
		return dErrors.New(dErrors.CodeValidation, "monthlyIncome must not be negative")
	}
	return nil
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if !req.Address.Complete() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, controller.MsgConfirmFullAddress))
		return
	}

	snap, err := h.resolver.Resolve(ctx, req.Address, req.MonthlyIncome)
	if err != nil {
		h.logger.WarnContext(ctx, "snapshot resolution failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, resolveError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	c, ok := h.controllers.Lookup(recordID)
	if !ok {
		httputil.WriteJSON(w, http.StatusOK, controller.State{Status: controller.StatusIdle})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c.State())
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.controllers.Get(recordID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create controller",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start resolution"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c.RunCRA(ctx, req.Address, req.MonthlyIncome, recordID))
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	h.controllers.Remove(recordID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[IncomeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, found := h.controllers.Lookup(recordID)
	if !found {
		httputil.WriteJSON(w, http.StatusOK, controller.State{Status: controller.StatusIdle})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c.UpdateIncomeFlags(ctx, req.MonthlyIncome))
}

// AMIResponse is the body of GET /scenarios/{id}/cra/ami.
type AMIResponse struct {
	AMIOverall float64 `json:"amiOverall"`
}

func (h *Handler) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	snap, err := h.records.FindSnapshot(ctx, recordID)
	if err != nil {
		h.writeReadError(w, r, recordID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleGetFlags(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	flags, err := records.Flags(r.Context(), h.records, recordID)
	if err != nil {
		h.writeReadError(w, r, recordID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flags)
}

func (h *Handler) handleGetAMI(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	ami, err := records.AMI(r.Context(), h.records, recordID)
	if err != nil {
		h.writeReadError(w, r, recordID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AMIResponse{AMIOverall: ami})
}

func (h *Handler) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	ids := pstrings.SplitList(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "ids query parameter is required"))
		return
	}
	if len(ids) > maxBatchIDs {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("at most %d ids per request", maxBatchIDs)))
		return
	}
	snaps, err := h.records.FindSnapshots(r.Context(), ids)
	if err != nil {
		h.writeReadError(w, r, strings.Join(ids, ","), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snaps)
}

func (h *Handler) writeReadError(w http.ResponseWriter, r *http.Request, recordID string, err error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no snapshot stored for this scenario"))
		return
	}
	ctx := r.Context()
	h.logger.ErrorContext(ctx, "failed to load stored snapshot",
		"request_id", middleware.GetRequestID(ctx),
		"record_id", recordID,
		"error", err,
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load snapshot"))
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "scenario id is required"))
		return "", false
	}
	return id, true
}

func resolveError(err error) error {
	switch {
	case errors.Is(err, models.ErrAddressIncomplete):
		return dErrors.Wrap(err, dErrors.CodeValidation, controller.MsgConfirmFullAddress)
	case errors.Is(err, models.ErrAddressNotFound):
		return dErrors.Wrap(err, dErrors.CodeUnprocessable, controller.MsgAddressNotLocated)
	case errors.Is(err, models.ErrTractNotFound):
		return dErrors.Wrap(err, dErrors.CodeUnprocessable, controller.MsgTractNotFound)
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, controller.MsgTemporarilyDown)
	}
}

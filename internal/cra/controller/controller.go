// Package controller holds the caller-facing resolution state for one record:
// the current snapshot, a coarse status and a user-facing message.
//
// Overlapping RunCRA calls are not cancelled. Each call takes a run token and
// its result is applied only if no newer call (or Clear) has happened since,
// so the visible state always reflects the most recent request.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"eligibility/internal/cra/domain/flags"
	"eligibility/internal/cra/metrics"
	"eligibility/internal/cra/models"
	"eligibility/pkg/requestcontext"
)

// Status is the coarse resolution state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// User-facing messages.
const (
	MsgAddressIncomplete  = "Address incomplete — need street address and ZIP"
	MsgAddressNotLocated  = "Address could not be located — please verify the address and try again."
	MsgTractNotFound      = "Census tract not found for this address. Rural or very new addresses may not be in the database."
	MsgConfirmFullAddress = "Please confirm your full address (street, city, state, ZIP) before running CRA check."
	MsgTemporarilyDown    = "CRA data temporarily unavailable. You can continue — this data will be resolved later."
)

const persistTimeout = 10 * time.Second

// Resolver produces snapshots.
type Resolver interface {
	Resolve(ctx context.Context, addr models.AddressInput, monthlyIncome float64) (*models.Snapshot, error)
}

// SnapshotWriter persists a resolved snapshot against a record.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, recordID string, snapshot *models.Snapshot) error
}

// State is a point-in-time view of the controller.
type State struct {
	Snapshot *models.Snapshot `json:"snapshot"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`
	Status   Status           `json:"status"`
}

// Controller serializes state updates for one record.
type Controller struct {
	resolver Resolver
	writer   SnapshotWriter
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	token   uint64
	state   State
	touched time.Time

	// next holds the newest unwritten snapshot; one writer drains it at a time.
	next    *write
	writing bool
	pending sync.WaitGroup
}

type write struct {
	recordID string
	snapshot *models.Snapshot
}

// Option configures a Controller.
type Option func(*Controller)

// WithSnapshotWriter enables the background hand-off of resolved snapshots.
func WithSnapshotWriter(w SnapshotWriter) Option {
	return func(c *Controller) {
		c.writer = w
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// New creates an idle controller.
func New(resolver Resolver, opts ...Option) (*Controller, error) {
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}
	c := &Controller{
		resolver: resolver,
		logger:   slog.New(slog.DiscardHandler),
		state:    State{Status: StatusIdle},
		touched:  time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RunCRA resolves addr and returns the state visible once this call settles.
// If a newer call started meanwhile, its state is what comes back.
// A non-empty recordID hands the snapshot to the writer in the background.
func (c *Controller) RunCRA(ctx context.Context, addr models.AddressInput, monthlyIncome float64, recordID string) State {
	if !addr.Locatable() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.state.Error = MsgAddressIncomplete
		c.state.Status = StatusError
		return c.state
	}

	c.mu.Lock()
	c.token++
	token := c.token
	c.state = State{Loading: true, Status: StatusLoading}
	c.touched = time.Now()
	c.mu.Unlock()

	snap, err := c.resolver.Resolve(context.WithoutCancel(ctx), addr, monthlyIncome)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched = time.Now()
	if token != c.token {
		c.logger.DebugContext(ctx, "discarding superseded resolution", "run", token, "current", c.token)
		return c.state
	}

	if err != nil {
		c.state = State{Status: StatusError, Error: userFacingError(err)}
		c.metrics.IncResolution(string(StatusError))
		c.logger.WarnContext(ctx, "snapshot resolution failed", "record_id", recordID, "error", err)
		return c.state
	}

	c.state = State{Snapshot: snap, Status: StatusSuccess}
	if !snap.DataQuality.FullDataAvailable {
		c.state.Status = StatusPartial
		c.state.Error = partialMessage(snap.DataQuality)
	}
	c.metrics.IncResolution(string(c.state.Status))

	if recordID != "" && c.writer != nil {
		c.persist(ctx, recordID, snap)
	}
	return c.state
}

// UpdateIncomeFlags re-derives flags on the held snapshot for a new income.
// It makes no network calls and is a no-op without a snapshot or AMI data.
func (c *Controller) UpdateIncomeFlags(ctx context.Context, monthlyIncome float64) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.state.Snapshot
	if snap == nil || !snap.IncomeData.HasAMI() {
		return c.state
	}
	c.touched = time.Now()
	c.state.Snapshot = snap.WithFlags(flags.Derive(flags.InputFromSnapshot(snap, monthlyIncome), requestcontext.Now(ctx)))
	return c.state
}

// Clear resets to idle and invalidates any in-flight run.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	c.state = State{Status: StatusIdle}
}

// idleAt reports whether nothing has touched the controller for maxIdle as of
// now and no run or write is outstanding.
func (c *Controller) idleAt(now time.Time, maxIdle time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.state.Loading && !c.writing && now.Sub(c.touched) >= maxIdle
}

// Wait blocks until background persistence hand-offs have finished.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// persist queues snap for the record store. Must be called with c.mu held.
// Writes for a controller are applied in order and an unwritten snapshot is
// replaced by a newer one, so the store never ends up older than the state.
func (c *Controller) persist(ctx context.Context, recordID string, snap *models.Snapshot) {
	c.next = &write{recordID: recordID, snapshot: snap}
	if c.writing {
		return
	}
	c.writing = true
	c.pending.Add(1)
	go c.drain(context.WithoutCancel(ctx))
}

func (c *Controller) drain(ctx context.Context) {
	defer c.pending.Done()
	for {
		c.mu.Lock()
		w := c.next
		c.next = nil
		if w == nil {
			c.writing = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.save(ctx, w)
	}
}

func (c *Controller) save(ctx context.Context, w *write) {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := c.writer.SaveSnapshot(ctx, w.recordID, w.snapshot); err != nil {
		c.metrics.IncPersistenceFailure()
		c.logger.ErrorContext(ctx, "snapshot persistence failed",
			"record_id", w.recordID,
			"error", err,
		)
		return
	}
	c.logger.DebugContext(ctx, "snapshot persisted", "record_id", w.recordID)
}

func partialMessage(q models.DataQuality) string {
	names := q.Unavailable()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return fmt.Sprintf("Some data unavailable: %s. Showing available data.", strings.Join(parts, ", "))
}

func userFacingError(err error) string {
	switch {
	case errors.Is(err, models.ErrAddressNotFound):
		return MsgAddressNotLocated
	case errors.Is(err, models.ErrTractNotFound):
		return MsgTractNotFound
	case errors.Is(err, models.ErrAddressIncomplete):
		return MsgConfirmFullAddress
	default:
		return MsgTemporarilyDown
	}
}

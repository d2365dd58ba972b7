// Package reaper removes expired leases from the store in the background.
//
// Each sweep opens its own snapshot, looks at the first lease carrying the
// server's default lifetime and removes it when expired. Leases stamped with
// any other lifetime are never selected.
package reaper

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/here/internal/clock"
	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/logging"
	"github.com/dmitrijs2005/here/internal/models"
	"github.com/dmitrijs2005/here/internal/server/metrics"
	"github.com/dmitrijs2005/here/internal/server/storage"
)

// Outcome classifies one sweep.
type Outcome string

const (
	// OutcomeRemoved means an expired lease was removed and flushed.
	OutcomeRemoved Outcome = "removed"
	// OutcomeLive means a candidate was found but has not expired yet.
	OutcomeLive Outcome = "live"
	// OutcomeIdle means no lease with the default lifetime exists.
	OutcomeIdle Outcome = "idle"
	// OutcomeError means the store could not be read or written.
	OutcomeError Outcome = "error"
)

// Default pacing between sweeps.
const (
	DefaultRelax        = 500 * time.Millisecond
	DefaultIdle         = 10 * time.Second
	DefaultErrorBackoff = 10 * time.Second
)

// Config controls selection and pacing.
type Config struct {
	// DefaultLifetime is the lease lifetime in seconds, both the selection key
	// and the expiry limit.
	DefaultLifetime int64
	Relax           time.Duration
	Idle            time.Duration
	ErrorBackoff    time.Duration
}

// Reaper runs sweeps against one store.
type Reaper struct {
	store   storage.Options
	cfg     Config
	clock   clock.Clock
	logger  logging.Logger
	metrics *metrics.Metrics
}

// New returns a Reaper. Zero pacing values fall back to the defaults.
func New(store storage.Options, cfg Config, c clock.Clock, logger logging.Logger, m *metrics.Metrics) *Reaper {
	if cfg.DefaultLifetime <= 0 {
		cfg.DefaultLifetime = common.DefaultLifetimeSeconds
	}
	if cfg.Relax <= 0 {
		cfg.Relax = DefaultRelax
	}
	if cfg.Idle <= 0 {
		cfg.Idle = DefaultIdle
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = DefaultErrorBackoff
	}
	return &Reaper{
		store:   store,
		cfg:     cfg,
		clock:   c,
		logger:  logger.With("module", "reaper"),
		metrics: m,
	}
}

// Sweep performs one iteration. A missing candidate is not an error.
func (r *Reaper) Sweep(ctx context.Context) (Outcome, error) {
	s, err := storage.Open(ctx, r.store)
	if err != nil {
		return OutcomeError, err
	}
	defer s.Close()

	lease, err := s.QueryFirst(func(l models.Lease) bool {
		return l.Lifetime == r.cfg.DefaultLifetime
	})
	if errors.Is(err, common.ErrNotFound) {
		return OutcomeIdle, nil
	}
	if err != nil {
		return OutcomeError, err
	}

	limit := time.Duration(r.cfg.DefaultLifetime) * time.Second
	if !lease.Expired(r.clock.Now(), limit) {
		return OutcomeLive, nil
	}

	if err := s.Remove(lease); err != nil {
		return OutcomeError, err
	}
	if err := s.Flush(ctx); err != nil {
		return OutcomeError, err
	}
	r.logger.Info(ctx, "lease expired",
		"account", lease.ClientInfo.Account,
		"id", lease.ClientInfo.ID.String(),
		"record_time", lease.RecordTime)
	r.metrics.Reaped()
	return OutcomeRemoved, nil
}

// Delay returns how long to wait after a sweep with outcome o.
func (r *Reaper) Delay(o Outcome) time.Duration {
	switch o {
	case OutcomeRemoved, OutcomeLive:
		return r.cfg.Relax
	case OutcomeIdle:
		return r.cfg.Idle
	default:
		return r.cfg.ErrorBackoff
	}
}

// Run sweeps until ctx is cancelled and then returns ctx.Err(). Sweep errors
// are logged and retried after the error backoff.
func (r *Reaper) Run(ctx context.Context) error {
	r.logger.Info(ctx, "reaper started",
		"lifetime", r.cfg.DefaultLifetime,
		"relax", r.cfg.Relax.String(),
		"idle", r.cfg.Idle.String())
	for {
		outcome, err := r.Sweep(ctx)
		r.metrics.Sweep(string(outcome))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error(ctx, "sweep failed", "error", err, "retry_in", r.cfg.ErrorBackoff.String())
		} else {
			r.logger.Debug(ctx, "sweep done", "outcome", string(outcome))
		}
		if err := clock.Wait(ctx, r.clock, r.Delay(outcome)); err != nil {
			return err
		}
	}
}

// Package agent keeps one account's presence lease alive.
//
// The agent is a small state machine:
//
//	Probing -> Connected -> Registering <-> Retrying
//
// Probing polls the server info endpoint until it answers. Registering
// detects local addresses, posts a presence record and sleeps for the
// lifetime the server grants. A failed post moves to Retrying, which waits
// the retry delay and posts the same record again. All waits go through the
// injected clock and end early when the context is cancelled.
package agent

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/here/internal/client/client"
	"github.com/dmitrijs2005/here/internal/clock"
	"github.com/dmitrijs2005/here/internal/cryptox"
	"github.com/dmitrijs2005/here/internal/logging"
	"github.com/dmitrijs2005/here/internal/models"
	"github.com/dmitrijs2005/here/internal/netx"
)

type State string

const (
	StateProbing     State = "probing"
	StateConnected   State = "connected"
	StateRegistering State = "registering"
	StateRetrying    State = "retrying"
)

// AddrSource returns the addresses to announce.
type AddrSource func() ([]netip.Addr, error)

// Config is the identity the agent announces.
type Config struct {
	Account    string
	Passwd     *string
	RetryDelay time.Duration
}

type Agent struct {
	client    client.Client
	clock     clock.Clock
	logger    logging.Logger
	addrs     AddrSource
	account   string
	digest    *string
	retry     time.Duration
	sessionID uuid.UUID

	state  State
	server models.AppInfo
	record *models.PresenceRecord
}

type Option func(*Agent)

// WithAddrSource replaces local address discovery.
func WithAddrSource(src AddrSource) Option {
	return func(a *Agent) { a.addrs = src }
}

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id uuid.UUID) Option {
	return func(a *Agent) { a.sessionID = id }
}

// New creates an agent in the Probing state. The password digest and the
// session id are computed here, once per process.
func New(c client.Client, cfg Config, clk clock.Clock, logger logging.Logger, opts ...Option) *Agent {
	a := &Agent{
		client:    c,
		clock:     clk,
		logger:    logger.With("module", "agent", "account", cfg.Account),
		addrs:     netx.LocalIPs,
		account:   cfg.Account,
		digest:    cryptox.OptionalDigest(cfg.Account, cfg.Passwd),
		retry:     cfg.RetryDelay,
		sessionID: uuid.New(),
		state:     StateProbing,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) State() State { return a.state }

func (a *Agent) SessionID() uuid.UUID { return a.sessionID }

// Run steps the state machine until ctx is cancelled and returns ctx.Err().
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info(ctx, "agent started", "session", a.sessionID.String())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait := a.Step(ctx)
		if err := clock.Wait(ctx, a.clock, wait); err != nil {
			return err
		}
	}
}

// Step runs the current state once, moves to the next state and returns how
// long to wait before the next step.
func (a *Agent) Step(ctx context.Context) time.Duration {
	switch a.state {
	case StateProbing:
		return a.probe(ctx)
	case StateConnected:
		a.logger.Info(ctx, "got the app information", "server", a.server.String())
		a.state = StateRegistering
		return 0
	case StateRegistering:
		return a.register(ctx)
	case StateRetrying:
		return a.retryPost(ctx)
	}
	panic(fmt.Sprintf("agent: unknown state %q", a.state))
}

func (a *Agent) probe(ctx context.Context) time.Duration {
	info, err := a.client.GetServerInfo(ctx)
	if err != nil {
		a.logger.Warn(ctx, "cannot get the app information from the server yet",
			"error", err, "retry_in", a.retry.String())
		return a.retry
	}
	a.server = info
	a.state = StateConnected
	return 0
}

func (a *Agent) register(ctx context.Context) time.Duration {
	addrs, err := a.addrs()
	if err != nil {
		a.logger.Warn(ctx, "cannot read local addresses", "error", err, "retry_in", a.retry.String())
		a.record = nil
		a.state = StateRetrying
		return a.retry
	}
	record := models.NewPresenceRecord(models.RecordConfig{
		ID:             a.sessionID,
		Account:        a.account,
		PasswordDigest: a.digest,
		Addrs:          addrs,
	})
	a.record = &record
	return a.post(ctx)
}

func (a *Agent) retryPost(ctx context.Context) time.Duration {
	if a.record == nil {
		a.state = StateRegistering
		return 0
	}
	return a.post(ctx)
}

func (a *Agent) post(ctx context.Context) time.Duration {
	resp, err := a.client.PostClientInfo(ctx, *a.record)
	if err != nil {
		a.logger.Warn(ctx, "cannot post presence", "error", err, "retry_in", a.retry.String())
		a.state = StateRetrying
		return a.retry
	}
	lifetime := time.Duration(resp.Lifetime) * time.Second
	if lifetime <= 0 {
		lifetime = a.retry
	}
	a.logger.Info(ctx, "successfully posted",
		"ipv4s", len(a.record.IPv4s), "ipv6s", len(a.record.IPv6s), "next_in", lifetime.String())
	a.state = StateRegistering
	return lifetime
}

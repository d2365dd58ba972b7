// Package registry implements the presence registry operations on top of the
// lease store. Every call opens its own store snapshot; there is no state
// shared between calls besides the backing file.
package registry

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/here/internal/clock"
	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/cryptox"
	"github.com/dmitrijs2005/here/internal/logging"
	"github.com/dmitrijs2005/here/internal/models"
	"github.com/dmitrijs2005/here/internal/server/metrics"
	"github.com/dmitrijs2005/here/internal/server/storage"
)

// Metric result labels.
const (
	resultOK              = "ok"
	resultNotFound        = "not_found"
	resultInvalidPassword = "invalid_password"
	resultDatabaseError   = "database_error"
)

// MaxConcurrentVerifications bounds how many password digests are derived
// at the same time. Each derivation holds its Argon2 memory until it returns.
const MaxConcurrentVerifications = 4

type Service struct {
	store    storage.Options
	lifetime int64
	info     models.AppInfo
	clock    clock.Clock
	logger   logging.Logger
	metrics  *metrics.Metrics

	verify      func(account, password, digest string) bool
	verifySlots *semaphore.Weighted
}

// NewService builds the registry. lifetime is the default lease lifetime in
// seconds assigned to every registration.
func NewService(store storage.Options, lifetime int64, version string, c clock.Clock, logger logging.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		lifetime: lifetime,
		info:     models.AppInfo{Name: common.AppName, Version: version},
		clock:    c,
		logger:   logger.With("module", "registry"),
		metrics:  m,

		verify:      cryptox.VerifyPassword,
		verifySlots: semaphore.NewWeighted(MaxConcurrentVerifications),
	}
}

func (s *Service) GetServerInfo() models.AppInfo {
	return s.info
}

// GetClientInfo looks up the first lease registered for account.
//
// Without passwd an unprotected record yields (nil, nil): presence is
// confirmed but nothing is disclosed. With passwd the record must be
// protected and the digest must match, in which case the full record is
// returned.
func (s *Service) GetClientInfo(ctx context.Context, account string, passwd *string) (*models.PresenceRecord, error) {
	record, err := s.lookup(ctx, account)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			s.metrics.Lookup(resultNotFound)
		default:
			s.metrics.Lookup(resultDatabaseError)
			s.logger.Error(ctx, "lookup failed", "account", account, "error", err)
		}
		return nil, err
	}

	if passwd == nil {
		if record.HasPassword() {
			s.metrics.Lookup(resultInvalidPassword)
			return nil, common.ErrInvalidPassword
		}
		s.metrics.Lookup(resultOK)
		return nil, nil
	}

	if !record.HasPassword() {
		s.metrics.Lookup(resultInvalidPassword)
		return nil, common.ErrInvalidPassword
	}
	ok, err := s.checkPassword(ctx, account, *passwd, *record.Passwd)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.Lookup(resultInvalidPassword)
		return nil, common.ErrInvalidPassword
	}
	s.metrics.Lookup(resultOK)
	return &record, nil
}

// checkPassword waits for a free verification slot. It fails only when ctx
// is done first.
func (s *Service) checkPassword(ctx context.Context, account, password, digest string) (bool, error) {
	if err := s.verifySlots.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("waiting for password check: %w", err)
	}
	defer s.verifySlots.Release(1)
	return s.verify(account, password, digest), nil
}

func (s *Service) lookup(ctx context.Context, account string) (models.PresenceRecord, error) {
	st, err := storage.Open(ctx, s.store)
	if err != nil {
		return models.PresenceRecord{}, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer st.Close()

	lease, err := st.QueryFirst(func(l models.Lease) bool {
		return l.ClientInfo.Account == account
	})
	if errors.Is(err, common.ErrNotFound) {
		return models.PresenceRecord{}, common.ErrNotFound
	}
	if err != nil {
		return models.PresenceRecord{}, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return lease.ClientInfo, nil
}

// PostClientInfo stores record as a new lease with the default lifetime and
// returns that lifetime. Existing leases for the same account are left alone.
func (s *Service) PostClientInfo(ctx context.Context, record models.PresenceRecord) (int64, error) {
	lease := models.NewLease(record, s.clock.Now(), s.lifetime)
	if err := s.add(ctx, lease); err != nil {
		s.metrics.Registration(resultDatabaseError)
		s.logger.Error(ctx, "registration failed",
			"account", record.Account, "id", record.ID.String(), "error", err)
		return 0, err
	}
	s.metrics.Registration(resultOK)
	s.logger.Debug(ctx, "lease stored",
		"account", record.Account, "id", record.ID.String(), "lifetime", s.lifetime)
	return s.lifetime, nil
}

func (s *Service) add(ctx context.Context, lease models.Lease) error {
	st, err := storage.Open(ctx, s.store)
	if err != nil {
		return fmt.Errorf("%w: open: %w", common.ErrDatabase, err)
	}
	defer st.Close()

	if err := st.Add(lease); err != nil {
		return fmt.Errorf("%w: add: %w", common.ErrDatabase, err)
	}
	if err := st.Flush(ctx); err != nil {
		return fmt.Errorf("%w: flush: %w", common.ErrDatabase, err)
	}
	return nil
}

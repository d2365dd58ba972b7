package reaper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/here/internal/clock"
	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/logging"
	"github.com/dmitrijs2005/here/internal/models"
	"github.com/dmitrijs2005/here/internal/server/metrics"
	"github.com/dmitrijs2005/here/internal/server/storage"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, opts storage.Options, leases ...models.Lease) {
	t.Helper()
	s, err := storage.Open(context.Background(), opts)
	require.NoError(t, err)
	defer s.Close()
	for _, l := range leases {
		require.NoError(t, s.Add(l))
	}
	require.NoError(t, s.Flush(context.Background()))
}

func stored(t *testing.T, opts storage.Options) []models.Lease {
	t.Helper()
	s, err := storage.Open(context.Background(), opts)
	require.NoError(t, err)
	defer s.Close()
	return s.Leases()
}

func lease(account string, at time.Time, lifetime int64) models.Lease {
	return models.NewLease(models.NewPresenceRecord(models.RecordConfig{ID: uuid.New(), Account: account}), at, lifetime)
}

func newReaper(t *testing.T, c clock.Clock, m *metrics.Metrics) (*Reaper, storage.Options) {
	t.Helper()
	opts := storage.Options{Backend: storage.BackendJSONFile, Path: filepath.Join(t.TempDir(), "client-info.db")}
	return New(opts, Config{DefaultLifetime: 60}, c, logging.Nop(), m), opts
}

func TestSweep_ExpiryBoundary(t *testing.T) {
	c := clock.NewManual(t0)
	r, opts := newReaper(t, c, nil)
	seed(t, opts, lease("alice", t0, 60))
	ctx := context.Background()

	c.Advance(60 * time.Second)
	outcome, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLive, outcome)
	assert.Len(t, stored(t, opts), 1)

	c.Advance(time.Second)
	outcome, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, outcome)
	assert.Empty(t, stored(t, opts))

	outcome, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIdle, outcome)
}

func TestSweep_RemovesOnePerIteration(t *testing.T) {
	c := clock.NewManual(t0.Add(2 * time.Minute))
	r, opts := newReaper(t, c, nil)
	a, b, live := lease("alice", t0, 60), lease("bob", t0, 60), lease("carol", c.Now(), 60)
	seed(t, opts, a, b, live)

	outcome, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, outcome)
	left := stored(t, opts)
	require.Len(t, left, 2)
	assert.True(t, left[0].Equal(b))
	assert.True(t, left[1].Equal(live))
}

func TestSweep_IgnoresOtherLifetimes(t *testing.T) {
	c := clock.NewManual(t0.Add(time.Hour))
	r, opts := newReaper(t, c, nil)
	seed(t, opts, lease("legacy", t0, 30))

	outcome, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeIdle, outcome)
	assert.Len(t, stored(t, opts), 1)
}

func TestSweep_StoreError(t *testing.T) {
	c := clock.NewManual(t0)
	r, opts := newReaper(t, c, nil)
	require.NoError(t, os.WriteFile(opts.Path, []byte("{broken"), 0o600))

	outcome, err := r.Sweep(context.Background())
	require.ErrorIs(t, err, common.ErrStoreIO)
	assert.Equal(t, OutcomeError, outcome)
}

func TestDelay(t *testing.T) {
	r := New(storage.Options{}, Config{}, clock.Real{}, logging.Nop(), nil)
	assert.Equal(t, DefaultRelax, r.Delay(OutcomeRemoved))
	assert.Equal(t, DefaultRelax, r.Delay(OutcomeLive))
	assert.Equal(t, DefaultIdle, r.Delay(OutcomeIdle))
	assert.Equal(t, DefaultErrorBackoff, r.Delay(OutcomeError))
	assert.Equal(t, int64(common.DefaultLifetimeSeconds), r.cfg.DefaultLifetime)
}

func TestRun_PacesSweepsAndStopsOnCancel(t *testing.T) {
	c := clock.NewManual(t0.Add(2 * time.Minute))
	m := metrics.New()
	r, opts := newReaper(t, c, m)
	seed(t, opts, lease("alice", t0, 60))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// first sweep removes alice and waits the relax delay
	require.True(t, c.BlockUntil(1, time.Second))
	assert.Equal(t, DefaultRelax, c.Waited())
	assert.Empty(t, stored(t, opts))

	// second sweep finds nothing and idles
	c.Advance(DefaultRelax)
	require.Eventually(t, func() bool { return c.Waited() == DefaultRelax+DefaultIdle }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	const want = `
# HELP here_reaper_reaped_total Expired leases removed by the reaper.
# TYPE here_reaper_reaped_total counter
here_reaper_reaped_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(want), "here_reaper_reaped_total"))
}

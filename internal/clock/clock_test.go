package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealNowUsesUTC(t *testing.T) {
	now := Real{}.Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestManual_AdvanceFiresDueTimers(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	short := m.After(time.Second)
	long := m.After(time.Minute)
	require.Equal(t, 2, m.Pending())

	m.Advance(time.Second)
	select {
	case at := <-short:
		assert.Equal(t, start.Add(time.Second), at)
	default:
		t.Fatal("short timer did not fire")
	}
	select {
	case <-long:
		t.Fatal("long timer fired early")
	default:
	}
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, time.Second+time.Minute, m.Waited())
}

func TestManual_NonPositiveFiresImmediately(t *testing.T) {
	m := NewManual(time.Now())
	select {
	case <-m.After(0):
	default:
		t.Fatal("zero duration must fire immediately")
	}
	assert.Zero(t, m.Pending())
}

func TestWait_CancelledContext(t *testing.T) {
	m := NewManual(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, m, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWait_ReturnsAfterAdvance(t *testing.T) {
	m := NewManual(time.Now())
	done := make(chan error, 1)
	go func() { done <- Wait(context.Background(), m, time.Second) }()

	require.True(t, m.BlockUntil(1, time.Second))
	m.Advance(time.Second)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Advance")
	}
}

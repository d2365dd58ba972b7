// Package clock abstracts time so lease expiry and retry pacing can be driven
// deterministically in tests.
package clock

import (
	"context"
	"time"
)

// Clock abstracts time-related functions.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Real implements Clock using the standard library.
type Real struct{}

// Now returns the current UTC time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// After mirrors time.After.
func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Wait blocks for d on c or until ctx is done, whichever comes first. It
// returns ctx.Err() when cancelled.
func Wait(ctx context.Context, c Clock, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.After(d):
		return nil
	}
}

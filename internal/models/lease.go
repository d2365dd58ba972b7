package models

import "time"

// Lease wraps a PresenceRecord with the server-side expiry metadata. A lease is
// written once and never modified.
type Lease struct {
	ClientInfo PresenceRecord `json:"client_info"`
	RecordTime time.Time      `json:"record_time"`
	Lifetime   int64          `json:"lifetime"`
}

// NewLease stamps record with now and lifetime (seconds).
func NewLease(record PresenceRecord, now time.Time, lifetime int64) Lease {
	return Lease{
		ClientInfo: record.Clone(),
		RecordTime: now.UTC(),
		Lifetime:   lifetime,
	}
}

// Elapsed returns the time passed since the lease was created.
func (l Lease) Elapsed(now time.Time) time.Duration {
	return now.Sub(l.RecordTime)
}

// Expired reports whether more than limit has passed since creation. The
// boundary itself is still live.
func (l Lease) Expired(now time.Time, limit time.Duration) bool {
	return l.Elapsed(now) > limit
}

// LifetimeDuration returns Lifetime as a time.Duration.
func (l Lease) LifetimeDuration() time.Duration {
	return time.Duration(l.Lifetime) * time.Second
}

// Equal reports full value equality.
func (l Lease) Equal(o Lease) bool {
	return l.Lifetime == o.Lifetime &&
		l.RecordTime.Equal(o.RecordTime) &&
		l.ClientInfo.Equal(o.ClientInfo)
}

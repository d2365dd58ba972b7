// Package models holds the presence data shared by the here client and
// server: presence records, leases, and the JSON wire forms of the API.
package models

import (
	"net/netip"
	"slices"

	"github.com/google/uuid"
)

// PresenceRecord is one client's claimed identity and location.
//
// ID identifies a single run of the client agent, not the account. Passwd,
// when set, carries the password digest; nil means the record is readable by
// anyone who knows the account name.
type PresenceRecord struct {
	ID      uuid.UUID    `json:"id"`
	Account string       `json:"account"`
	Passwd  *string      `json:"passwd"`
	IPv4s   []netip.Addr `json:"ipv4s"`
	IPv6s   []netip.Addr `json:"ipv6s"`
}

// RecordConfig lists the fields recognized by NewPresenceRecord.
type RecordConfig struct {
	ID             uuid.UUID
	Account        string
	PasswordDigest *string
	Addrs          []netip.Addr
}

// NewPresenceRecord builds a record from cfg. Addresses are split by family
// and kept in the order given; duplicates are kept as well.
func NewPresenceRecord(cfg RecordConfig) PresenceRecord {
	r := PresenceRecord{
		ID:      cfg.ID,
		Account: cfg.Account,
		IPv4s:   []netip.Addr{},
		IPv6s:   []netip.Addr{},
	}
	if cfg.PasswordDigest != nil {
		d := *cfg.PasswordDigest
		r.Passwd = &d
	}
	for _, a := range cfg.Addrs {
		if !a.IsValid() {
			continue
		}
		if a.Is4() || a.Is4In6() {
			r.IPv4s = append(r.IPv4s, a.Unmap())
		} else {
			r.IPv6s = append(r.IPv6s, a)
		}
	}
	return r
}

// HasPassword reports whether the record is password protected.
func (r PresenceRecord) HasPassword() bool {
	return r.Passwd != nil
}

// Equal reports full value equality.
func (r PresenceRecord) Equal(o PresenceRecord) bool {
	if r.ID != o.ID || r.Account != o.Account {
		return false
	}
	if (r.Passwd == nil) != (o.Passwd == nil) {
		return false
	}
	if r.Passwd != nil && *r.Passwd != *o.Passwd {
		return false
	}
	return slices.Equal(r.IPv4s, o.IPv4s) && slices.Equal(r.IPv6s, o.IPv6s)
}

// Clone returns a deep copy.
func (r PresenceRecord) Clone() PresenceRecord {
	c := r
	if r.Passwd != nil {
		p := *r.Passwd
		c.Passwd = &p
	}
	c.IPv4s = slices.Clone(r.IPv4s)
	c.IPv6s = slices.Clone(r.IPv6s)
	return c
}

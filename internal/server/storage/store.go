// Package storage implements the lease store: an ordered collection of leases
// persisted as a single file. Each open loads a full snapshot; changes stay
// private to that snapshot until Flush replaces the file's contents.
//
// There is no locking between snapshots. Two writers that open, modify and
// flush concurrently race, and the last flush wins.
package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/models"
)

// Backend names a persistence format.
type Backend string

const (
	// BackendJSONFile keeps leases as one JSON array.
	BackendJSONFile Backend = "jsonfile"
	// BackendSQLite keeps leases in one SQLite database file.
	BackendSQLite Backend = "sqlite"
)

// ParseBackend validates a backend name. Empty selects BackendJSONFile.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendJSONFile:
		return BackendJSONFile, nil
	case BackendSQLite:
		return BackendSQLite, nil
	}
	return "", fmt.Errorf("unknown store backend %q", s)
}

// Options selects where and how the store is persisted.
type Options struct {
	Backend Backend
	Path    string
}

// persister loads and replaces the whole backing collection.
type persister interface {
	load(ctx context.Context) ([]models.Lease, error)
	save(ctx context.Context, leases []models.Lease) error
	close() error
}

// Store is one opened snapshot of the lease collection.
type Store struct {
	p      persister
	leases []models.Lease
}

// Open loads the collection at opts.Path, creating an empty one when the file
// does not exist. Any failure is reported as common.ErrStoreIO.
func Open(ctx context.Context, opts Options) (*Store, error) {
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}

	var p persister
	switch backend {
	case BackendSQLite:
		p, err = openSQLite(ctx, opts.Path)
	default:
		p, err = openJSONFile(opts.Path)
	}
	if err != nil {
		return nil, err
	}
	return newStore(ctx, p)
}

func newStore(ctx context.Context, p persister) (*Store, error) {
	leases, err := p.load(ctx)
	if err != nil {
		_ = p.close()
		return nil, err
	}
	return &Store{p: p, leases: leases}, nil
}

// Close releases the backing file. Unflushed changes are discarded.
func (s *Store) Close() error {
	return s.p.close()
}

// Add appends lease. An equal lease already in the snapshot yields
// common.ErrDuplicateKey.
func (s *Store) Add(lease models.Lease) error {
	if s.index(lease) >= 0 {
		return common.ErrDuplicateKey
	}
	s.leases = append(s.leases, lease)
	return nil
}

// QueryFirst returns the first lease, in insertion order, for which pred
// holds. common.ErrNotFound is returned when none does.
func (s *Store) QueryFirst(pred func(models.Lease) bool) (models.Lease, error) {
	for _, l := range s.leases {
		if pred(l) {
			return l, nil
		}
	}
	return models.Lease{}, common.ErrNotFound
}

// Remove deletes the first lease equal to lease.
func (s *Store) Remove(lease models.Lease) error {
	i := s.index(lease)
	if i < 0 {
		return common.ErrNotFound
	}
	s.leases = slices.Delete(s.leases, i, i+1)
	return nil
}

// Flush replaces the persisted collection with this snapshot.
func (s *Store) Flush(ctx context.Context) error {
	return s.p.save(ctx, s.leases)
}

// Len returns the number of leases in the snapshot.
func (s *Store) Len() int {
	return len(s.leases)
}

// Leases returns a copy of the snapshot in insertion order.
func (s *Store) Leases() []models.Lease {
	return slices.Clone(s.leases)
}

func (s *Store) index(lease models.Lease) int {
	return slices.IndexFunc(s.leases, lease.Equal)
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/netip"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/dbx"
	"github.com/dmitrijs2005/here/internal/filex"
	"github.com/dmitrijs2005/here/internal/models"
	"github.com/dmitrijs2005/here/internal/server/storage/migrations"
)

// busyTimeoutMs lets concurrent snapshots wait for the write lock instead of
// failing straight away with SQLITE_BUSY.
const busyTimeoutMs = 5000

type sqliteStore struct {
	db *sql.DB
}

// migrateUp is a seam for testing the schema step.
var migrateUp = func(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// sqliteDSN builds a URI filename for path. Characters that carry meaning in
// a URI, such as '?', '#' and '%', are percent-encoded.
func sqliteDSN(path string) string {
	escaped := (&url.URL{Path: path}).EscapedPath()
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", escaped, busyTimeoutMs)
}

func openSQLite(ctx context.Context, path string) (*sqliteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty store path", common.ErrStoreIO)
	}
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrStoreIO, path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrStoreIO, path, err)
	}
	if err := migrateUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate %s: %v", common.ErrStoreIO, path, err)
	}
	return newSQLiteStore(db), nil
}

func newSQLiteStore(db *sql.DB) *sqliteStore {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) load(ctx context.Context) ([]models.Lease, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, account, passwd, ipv4s, ipv6s, record_time, lifetime
		FROM leases ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list leases: %v", common.ErrStoreIO, err)
	}
	defer rows.Close()

	leases := []models.Lease{}
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStoreIO, err)
		}
		leases = append(leases, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate lease rows: %v", common.ErrStoreIO, err)
	}
	return leases, nil
}

func scanLease(rows *sql.Rows) (models.Lease, error) {
	var (
		l                    models.Lease
		sessionID            string
		passwd               sql.NullString
		ipv4s, ipv6s         string
		recordTime, lifetime int64
	)
	if err := rows.Scan(&sessionID, &l.ClientInfo.Account, &passwd, &ipv4s, &ipv6s, &recordTime, &lifetime); err != nil {
		return l, fmt.Errorf("failed to scan lease row: %w", err)
	}
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return l, fmt.Errorf("bad session id %q: %w", sessionID, err)
	}
	l.ClientInfo.ID = id
	if passwd.Valid {
		p := passwd.String
		l.ClientInfo.Passwd = &p
	}
	if l.ClientInfo.IPv4s, err = decodeAddrs(ipv4s); err != nil {
		return l, err
	}
	if l.ClientInfo.IPv6s, err = decodeAddrs(ipv6s); err != nil {
		return l, err
	}
	l.RecordTime = time.Unix(0, recordTime).UTC()
	l.Lifetime = lifetime
	return l, nil
}

func (s *sqliteStore) save(ctx context.Context, leases []models.Lease) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM leases`); err != nil {
			return fmt.Errorf("failed to clear leases: %w", err)
		}
		for i, l := range leases {
			ipv4s, err := encodeAddrs(l.ClientInfo.IPv4s)
			if err != nil {
				return err
			}
			ipv6s, err := encodeAddrs(l.ClientInfo.IPv6s)
			if err != nil {
				return err
			}
			var passwd sql.NullString
			if l.ClientInfo.Passwd != nil {
				passwd = sql.NullString{String: *l.ClientInfo.Passwd, Valid: true}
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO leases (position, session_id, account, passwd, ipv4s, ipv6s, record_time, lifetime)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				i+1, l.ClientInfo.ID.String(), l.ClientInfo.Account, passwd,
				ipv4s, ipv6s, l.RecordTime.UnixNano(), l.Lifetime)
			if err != nil {
				return fmt.Errorf("failed to insert lease %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreIO, err)
	}
	return nil
}

func (s *sqliteStore) close() error {
	return s.db.Close()
}

func encodeAddrs(addrs []netip.Addr) (string, error) {
	if addrs == nil {
		addrs = []netip.Addr{}
	}
	b, err := json.Marshal(addrs)
	if err != nil {
		return "", fmt.Errorf("encode addresses: %w", err)
	}
	return string(b), nil
}

func decodeAddrs(s string) ([]netip.Addr, error) {
	addrs := []netip.Addr{}
	if err := json.Unmarshal([]byte(s), &addrs); err != nil {
		return nil, fmt.Errorf("decode addresses %q: %w", s, err)
	}
	return addrs, nil
}

package ibge

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/censo-nomes/pkg/cache"

	_ "modernc.org/sqlite"
)

// RespCache is a persistent HTTP response cache backed by SQLite. It keeps
// one row per request URL and serves bodies younger than the TTL, so a
// restarted server does not re-fetch reference data it already holds.
type RespCache struct {
	db  *sql.DB
	ttl time.Duration
	now cache.Clock
}

// OpenRespCache opens (or creates) the cache database at path. Entries
// older than ttl are treated as misses and overwritten on the next Put.
func OpenRespCache(path string, ttl time.Duration, now cache.Clock) (*RespCache, error) {
	if now == nil {
		now = time.Now
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open response cache: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS responses (
		url        TEXT PRIMARY KEY,
		body       BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create responses table: %w", err)
	}

	return &RespCache{db: db, ttl: ttl, now: now}, nil
}

// Close closes the underlying database.
func (r *RespCache) Close() error {
	return r.db.Close()
}

// Get returns the cached body for url when present and fresh.
func (r *RespCache) Get(url string) ([]byte, bool, error) {
	var body []byte
	var fetchedAt int64
	err := r.db.QueryRow(`SELECT body, fetched_at FROM responses WHERE url = ?`, url).
		Scan(&body, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached response: %w", err)
	}
	if r.now().Sub(time.Unix(fetchedAt, 0)) > r.ttl {
		return nil, false, nil
	}
	return body, true, nil
}

// Put stores (or replaces) the body for url, stamped with the current time.
func (r *RespCache) Put(url string, body []byte) error {
	_, err := r.db.Exec(
		`INSERT INTO responses (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, r.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store cached response: %w", err)
	}
	return nil
}

// Prune deletes entries older than the TTL and returns how many went away.
func (r *RespCache) Prune() (int64, error) {
	cutoff := r.now().Add(-r.ttl).Unix()
	res, err := r.db.Exec(`DELETE FROM responses WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune responses: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

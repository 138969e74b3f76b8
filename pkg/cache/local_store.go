package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLocalMaxEntries bounds the in-process tier. Entries average a few
// KB after encoding, so the default keeps the tier well under 100MB.
const DefaultLocalMaxEntries = 10000

// localEntry carries the encoded value together with its own expiry so
// that strategies with different TTLs can share one store.
type localEntry struct {
	data      []byte
	expiresAt time.Time
}

// LocalStore is the process-local tier: a bounded LRU whose entries expire
// individually. Expired entries are purged lazily on the access that finds
// them; there is no sweeper goroutine.
//
// LocalStore is safe for concurrent use (the underlying LRU locks
// internally, and each operation holds that lock only for the map work,
// never across I/O).
type LocalStore struct {
	entries *lru.Cache[string, localEntry]
}

// NewLocalStore creates the local tier. maxEntries <= 0 selects the
// default bound.
func NewLocalStore(maxEntries int) (*LocalStore, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultLocalMaxEntries
	}

	entries, err := lru.New[string, localEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &LocalStore{entries: entries}, nil
}

// Get returns the stored bytes for key. An entry whose expiry has passed
// is removed and reported as absent.
func (s *LocalStore) Get(key string) ([]byte, bool) {
	entry, ok := s.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !time.Now().Before(entry.expiresAt) {
		s.entries.Remove(key)
		return nil, false
	}
	return entry.data, true
}

// Set inserts or overwrites key with expiry = now + ttl
func (s *LocalStore) Set(key string, data []byte, ttl time.Duration) {
	s.entries.Add(key, localEntry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	})
}

// Delete removes key
func (s *LocalStore) Delete(key string) {
	s.entries.Remove(key)
}

// Len returns the current entry count, counting not-yet-purged expired
// entries (the diagnostic surface tolerates that slack)
func (s *LocalStore) Len() int {
	return s.entries.Len()
}

// Purge removes every entry
func (s *LocalStore) Purge() {
	s.entries.Purge()
}

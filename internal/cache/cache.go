// Package cache stores serialized responses for the offline worker.
//
// Each store is named (e.g. "static-v1") and keyed by request URL. Stores
// are memory-only, disk-only, or layered with memory in front of disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

// NoExpiration marks entries that never expire
const NoExpiration time.Duration = -1

// Entry is one stored response together with the URL it answers
type Entry struct {
	URL       string    `json:"url"`
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"` // Zero means never
}

// Expired reports whether the entry is past its expiry at now
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Cache is a named store of responses keyed by request URL
type Cache interface {
	Name() string
	Get(url string) (Entry, bool)
	// Put stores data for url. Zero ttl uses the store's default, negative never expires.
	Put(url string, data []byte, ttl time.Duration) error
	Delete(url string) error
	Clear() error
	// Entries lists live entries, most recently stored first
	Entries() ([]Entry, error)
}

// Name returns the versioned name of a cache, e.g. "static-v1"
func Name(kind, version string) string {
	if version == "" {
		return kind
	}
	return kind + "-" + version
}

func newEntry(url string, data []byte, ttl time.Duration, now time.Time) Entry {
	e := Entry{URL: url, Data: data, StoredAt: now}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	return e
}

// key hashes a URL into a file-safe identifier
func key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])
}

func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StoredAt.After(entries[j].StoredAt)
	})
}

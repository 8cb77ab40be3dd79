// Package cache implements the gateway's two-tier freshness model: a
// short-TTL fingerprint cache that tracks the current release set for
// a repository, and a long-TTL content cache that holds synthesized
// index bytes keyed by a synthetic URL plus the fingerprint they were
// built against.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Entry is one cached artifact: the bytes served to a client plus the
// fingerprint of the release set it was generated from, so a reader
// can tell whether the content is still current without recomputing
// it.
type Entry struct {
	Body        []byte
	ContentType string
	Fingerprint string
	GeneratedAt time.Time
}

// Store holds the two tiers. Fingerprints are cheap to recompute and
// expire quickly so staleness windows stay short; content is expensive
// to regenerate (range-fetches, decoding, signing) and is kept far
// longer, since it is only ever served after its fingerprint has been
// confirmed current or a background refresh has replaced it.
type Store struct {
	fingerprints *gocache.Cache
	content      *gocache.Cache
}

// New builds a Store with the given TTLs. The background janitor runs
// at an interval equal to the longer of the two TTLs; when both are
// zero the janitor is disabled and entries never expire.
func New(fingerprintTTL, contentTTL time.Duration) *Store {
	cleanup := contentTTL
	if fingerprintTTL > cleanup {
		cleanup = fingerprintTTL
	}
	if cleanup <= 0 {
		cleanup = gocache.NoExpiration
	}
	return &Store{
		fingerprints: gocache.New(fingerprintTTL, cleanup),
		content:      gocache.New(contentTTL, cleanup),
	}
}

// Fingerprint returns the cached release-set fingerprint for key, if
// still fresh.
func (s *Store) Fingerprint(key string) (string, bool) {
	v, ok := s.fingerprints.Get(key)
	if !ok {
		return "", false
	}
	fp, _ := v.(string)
	return fp, fp != "" || ok
}

// SetFingerprint stores the current release-set fingerprint for key.
func (s *Store) SetFingerprint(key, fingerprint string) {
	s.fingerprints.SetDefault(key, fingerprint)
}

// Content returns the cached artifact for key.
func (s *Store) Content(key string) (Entry, bool) {
	v, ok := s.content.Get(key)
	if !ok {
		return Entry{}, false
	}
	entry, ok := v.(Entry)
	return entry, ok
}

// SetContent stores a generated artifact for key.
func (s *Store) SetContent(key string, entry Entry) {
	s.content.SetDefault(key, entry)
}

// NeedsRefresh reports whether the cached content for key is missing,
// or was generated against a fingerprint other than current. Callers
// use this to decide between serving cached bytes outright and
// kicking off regeneration (possibly in the background, serving the
// stale copy in the meantime).
func (s *Store) NeedsRefresh(key, currentFingerprint string) bool {
	entry, ok := s.Content(key)
	if !ok {
		return true
	}
	return entry.Fingerprint != currentFingerprint
}

// ClearAll drops every cached fingerprint and content entry. Used by
// the ?cache=false query flag (see coordinator.ClearAllCache).
func (s *Store) ClearAll() {
	s.fingerprints.Flush()
	s.content.Flush()
}

package repository

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/liliang-cn/docflow/internal/domain"
)

// SessionStore keeps conversation sessions in memory. Entries never expire on
// their own; the engine evicts them explicitly so a sweep cannot race a turn.
type SessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionStore creates a store that hides sessions older than ttl.
// A ttl of zero keeps sessions until they are deleted.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		cache: cache.New(cache.NoExpiration, 0),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns a copy of the session
func (s *SessionStore) Get(id string) (*domain.Session, bool) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	session := x.(*domain.Session)
	if s.expired(session) {
		return nil, false
	}
	return session.Clone(), true
}

// Put saves a copy of the session
func (s *SessionStore) Put(session *domain.Session) {
	s.cache.Set(session.ID, session.Clone(), cache.NoExpiration)
}

// Delete removes a session
func (s *SessionStore) Delete(id string) {
	s.cache.Delete(id)
}

// OlderThan returns the ids of sessions created more than maxAge ago
func (s *SessionStore) OlderThan(maxAge time.Duration) []string {
	if maxAge <= 0 {
		return nil
	}
	cutoff := s.now().Add(-maxAge)
	var ids []string
	for id, item := range s.cache.Items() {
		if item.Object.(*domain.Session).CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// DeleteIfOlderThan removes the session only if it is still older than maxAge.
// A session recreated under the same id since it was listed is kept.
func (s *SessionStore) DeleteIfOlderThan(id string, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	x, found := s.cache.Get(id)
	if !found {
		return false
	}
	if !x.(*domain.Session).CreatedAt.Before(s.now().Add(-maxAge)) {
		return false
	}
	s.cache.Delete(id)
	return true
}

// Count returns the number of live sessions, leaving out expired ones not yet evicted
func (s *SessionStore) Count() int {
	n := 0
	for _, item := range s.cache.Items() {
		if !s.expired(item.Object.(*domain.Session)) {
			n++
		}
	}
	return n
}

func (s *SessionStore) expired(session *domain.Session) bool {
	return s.ttl > 0 && s.now().Sub(session.CreatedAt) > s.ttl
}

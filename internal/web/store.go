package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/opskit/internal/metrics"
	"github.com/desertthunder/opskit/internal/session"
	"github.com/desertthunder/opskit/internal/tasks"
	"github.com/google/uuid"
)

// CookieName is the dashboard session cookie.
const CookieName = "opskit_session"

// Entry is one browser's dashboard state.
type Entry struct {
	ID      string
	Session *session.Session

	mu      sync.Mutex
	result  *tasks.AuditResult
	profile *tasks.Profile
}

// SetResult keeps the latest comparison for the CSV download and map view.
func (e *Entry) SetResult(r *tasks.AuditResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.result = r
}

// Result returns the latest comparison, or nil.
func (e *Entry) Result() *tasks.AuditResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// SetProfile keeps the latest recording profile for the beacon CSV download.
func (e *Entry) SetProfile(p *tasks.Profile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profile = p
}

// Profile returns the latest recording profile, or nil.
func (e *Entry) Profile() *tasks.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// Store keeps dashboard sessions in memory, keyed by a random cookie value.
//
// With a non-zero idle timeout, sessions unused for longer are dropped: on lookup, and in a sweep
// whenever a new session is created.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	lastSeen map[string]time.Time
	idle     time.Duration
	now      func() time.Time
}

// NewStore creates an empty store. idle of 0 keeps sessions until logout.
func NewStore(idle time.Duration) *Store {
	return &Store{
		entries:  make(map[string]*Entry),
		lastSeen: make(map[string]time.Time),
		idle:     idle,
		now:      time.Now,
	}
}

// Create registers sess under a new random ID.
func (s *Store) Create(sess *session.Session) *Entry {
	e := &Entry{ID: uuid.NewString(), Session: sess}

	s.mu.Lock()
	s.sweepLocked()
	s.entries[e.ID] = e
	s.lastSeen[e.ID] = s.now()
	n := len(s.entries)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return e
}

// Get returns the entry for id and marks it used, or nil when unknown or idle too long.
func (s *Store) Get(id string) *Entry {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}

	now := s.now()
	if s.expired(id, now) {
		s.deleteLocked(id)
		n := len(s.entries)
		s.mu.Unlock()
		metrics.ActiveSessions.Set(float64(n))
		return nil
	}
	s.lastSeen[id] = now
	s.mu.Unlock()
	return e
}

// Delete forgets id. Unknown IDs are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	s.deleteLocked(id)
	n := len(s.entries)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
}

// Sweep drops every idle session and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	removed := s.sweepLocked()
	n := len(s.entries)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return removed
}

func (s *Store) expired(id string, now time.Time) bool {
	return s.idle > 0 && now.Sub(s.lastSeen[id]) > s.idle
}

func (s *Store) sweepLocked() int {
	if s.idle <= 0 {
		return 0
	}
	now := s.now()
	removed := 0
	for id := range s.entries {
		if s.expired(id, now) {
			s.deleteLocked(id)
			removed++
		}
	}
	return removed
}

func (s *Store) deleteLocked(id string) {
	delete(s.entries, id)
	delete(s.lastSeen, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// FromRequest resolves the request's session cookie.
func (s *Store) FromRequest(r *http.Request) *Entry {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	return s.Get(c.Value)
}

type entryKey struct{}

func withEntry(ctx context.Context, e *Entry) context.Context {
	return context.WithValue(ctx, entryKey{}, e)
}

// EntryFrom returns the session entry attached by the auth middleware.
func EntryFrom(ctx context.Context) *Entry {
	e, _ := ctx.Value(entryKey{}).(*Entry)
	return e
}

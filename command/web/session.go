package web

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"intervention-stats/connectors/cache"
	"intervention-stats/domain/report"

	"github.com/google/uuid"
)

// session is one user's workspace: the uploaded dataset, its load cache and
// the result of the last analysis. Sessions never share state.
type session struct {
	id     string
	loader *cache.Loader

	// lastSeen is unix nanoseconds, read by eviction without taking mu.
	lastSeen atomic.Int64

	mu   sync.Mutex
	name string
	last *report.Result
}

func (s *session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *session) idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// registry owns the live sessions and evicts the idle ones on access.
type registry struct {
	ttl  time.Duration
	now  func() time.Time
	load cache.LoadFunc

	mu    sync.Mutex
	items map[string]*session
}

func newRegistry(ttl time.Duration, load cache.LoadFunc) *registry {
	return &registry{ttl: ttl, now: time.Now, load: load, items: map[string]*session{}}
}

// get returns the live session id, refreshing its idle timer.
func (r *registry) get(id string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()
	s, ok := r.items[id]
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// getOrCreate reuses id when it is live, otherwise opens a new session.
func (r *registry) getOrCreate(id string) *session {
	if id != "" {
		if s, ok := r.get(id); ok {
			return s
		}
	}
	s := &session{
		id:     uuid.NewString(),
		loader: cache.NewLoader(r.load),
	}
	s.touch(r.now())
	r.mu.Lock()
	r.items[s.id] = s
	r.mu.Unlock()
	slog.Info("session.created", "session", s.id)
	return s
}

func (r *registry) evictLocked() {
	if r.ttl <= 0 {
		return
	}
	now := r.now()
	for id, s := range r.items {
		if idle := s.idle(now); idle > r.ttl {
			delete(r.items, id)
			slog.Info("session.evicted", "session", id, "idle", idle)
		}
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

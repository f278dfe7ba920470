package session

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

var ErrClosed = errors.New("session manager closed")

// Manager is the single owner of session state for the process.  It is
// built once at startup, handed to every consumer, and closed on shutdown,
// which tears down every live tracker.
type Manager struct {
	resolver *Resolver
	rdb      *redis.Client
	secret   string

	mu       sync.Mutex
	closed   bool
	trackers map[*Tracker]struct{}
}

func NewManager(resolver *Resolver, rdb *redis.Client, jwtSecret string) *Manager {
	return &Manager{
		resolver: resolver,
		rdb:      rdb,
		secret:   jwtSecret,
		trackers: make(map[*Tracker]struct{}),
	}
}

func (m *Manager) Resolver() *Resolver { return m.resolver }

// Track starts a tracker for the given access token.  The caller must Close
// it; Manager.Close closes any that are left.
func (m *Manager) Track(ctx context.Context, rawToken string) (*Tracker, error) {
	return m.TrackSource(ctx, NewTokenSource(m.rdb, m.secret, rawToken))
}

// TrackSource is Track for an arbitrary Source.
func (m *Manager) TrackSource(ctx context.Context, src Source) (*Tracker, error) {
	t := NewTracker(m.resolver, src)
	t.onClose = func() {
		m.mu.Lock()
		delete(m.trackers, t)
		m.mu.Unlock()
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.trackers[t] = struct{}{}
	m.mu.Unlock()

	if err := t.Start(ctx); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// Notify publishes a session event for userID.  Without Redis it is a no-op.
func (m *Manager) Notify(ctx context.Context, userID, event string) error {
	if m.rdb == nil {
		return nil
	}
	return m.rdb.Publish(ctx, Channel(userID), event).Err()
}

// Active returns the number of live trackers.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trackers)
}

// Close stops accepting trackers and closes the live ones.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	live := make([]*Tracker, 0, len(m.trackers))
	for t := range m.trackers {
		live = append(live, t)
	}
	m.mu.Unlock()

	for _, t := range live {
		t.Close()
	}
}

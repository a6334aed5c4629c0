package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/leadreach/leadreach/internal/model"
)

// Memory is an in-process stand-in for Cache. State is lost on restart and
// not shared between replicas, so it is only used without REDIS_URL.
type Memory struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]model.Session
	flashes  map[string][]model.Flash
	groups   map[string]memoryGroups
	buckets  map[string]*bucket
}

type memoryGroups struct {
	list      model.GroupList
	expiresAt time.Time
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		now:      time.Now,
		sessions: make(map[string]model.Session),
		flashes:  make(map[string][]model.Flash),
		groups:   make(map[string]memoryGroups),
		buckets:  make(map[string]*bucket),
	}
}

// SetClock overrides the time source. Tests only.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// GetSession loads a session by ID.
func (m *Memory) GetSession(ctx context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrCacheMiss
	}
	if sess.IsExpired(m.now()) {
		delete(m.sessions, id)
		return nil, ErrCacheMiss
	}
	return &sess, nil
}

// SaveSession stores a copy of the session.
func (m *Memory) SaveSession(ctx context.Context, sess *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess.IsExpired(m.now()) {
		delete(m.sessions, sess.ID)
		return nil
	}
	m.sessions[sess.ID] = *sess
	return nil
}

// DeleteSession removes a session and its flashes.
func (m *Memory) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	delete(m.flashes, id)
	return nil
}

// PushFlash queues a flash for the session.
func (m *Memory) PushFlash(ctx context.Context, sessionID string, flash model.Flash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flashes[sessionID] = append(m.flashes[sessionID], flash)
	return nil
}

// PopFlashes returns and clears queued flashes.
func (m *Memory) PopFlashes(ctx context.Context, sessionID string) ([]model.Flash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	flashes := m.flashes[sessionID]
	delete(m.flashes, sessionID)
	return flashes, nil
}

// GetGroups returns a cached group list.
func (m *Memory) GetGroups(ctx context.Context, userKey string) (*model.GroupList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.groups[userKey]
	if !ok || !m.now().Before(entry.expiresAt) {
		delete(m.groups, userKey)
		return nil, ErrCacheMiss
	}
	list := entry.list
	list.Groups = append([]model.BusinessGroup(nil), entry.list.Groups...)
	return &list, nil
}

// SetGroups caches a group list for staleTime.
func (m *Memory) SetGroups(ctx context.Context, userKey string, list *model.GroupList, staleTime time.Duration) error {
	if staleTime <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *list
	stored.Groups = append([]model.BusinessGroup(nil), list.Groups...)
	m.groups[userKey] = memoryGroups{list: stored, expiresAt: m.now().Add(staleTime)}
	return nil
}

// InvalidateGroups drops a cached list.
func (m *Memory) InvalidateGroups(ctx context.Context, userKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.groups, userKey)
	return nil
}

// CheckLoginRateLimit applies the same token bucket as the Redis script.
func (m *Memory) CheckLoginRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(burst)}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rate := float64(ratePerMinute) / 60.0
	key := hashIP(ip)

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(burst), lastUpdate: now}
		m.buckets[key] = b
	}

	elapsed := now.Sub(b.lastUpdate).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(float64(burst), b.tokens+elapsed*rate)
	}
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return &RateLimitResult{Allowed: true, Remaining: int64(math.Floor(b.tokens))}, nil
	}

	retry := math.Ceil((1 - b.tokens) / rate)
	return &RateLimitResult{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: time.Duration(retry) * time.Second,
	}, nil
}

// Package session binds browser cookies to backend bearer tokens.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/leadreach/leadreach/internal/cache"
	"github.com/leadreach/leadreach/internal/model"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultCookieName = "leadreach_session"
	DefaultTTL        = 24 * time.Hour

	flashCookieName   = "leadreach_flash"
	flashCookieMaxAge = 60
	maxFlashMessage   = 200
)

// ErrNoSession is returned by Restore when the request is anonymous.
var ErrNoSession = errors.New("no session")

// Store persists session records and their flash queues.
// Implemented by cache.Cache and cache.Memory.
type Store interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	SaveSession(ctx context.Context, sess *model.Session) error
	DeleteSession(ctx context.Context, id string) error
	PushFlash(ctx context.Context, sessionID string, flash model.Flash) error
	PopFlashes(ctx context.Context, sessionID string) ([]model.Flash, error)
}

// Config controls the session cookie.
type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager issues, restores and destroys sessions.
type Manager struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a Manager.
func NewManager(store Store, cfg Config, logger *slog.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "session"),
		now:    time.Now,
	}
}

// CookieName returns the session cookie name.
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// Login creates a session for the backend token and sets the cookie.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, token string, user model.User) (*model.Session, error) {
	id, err := newToken()
	if err != nil {
		return nil, err
	}
	csrf, err := newToken()
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	sess := &model.Session{
		ID:        id,
		Token:     token,
		User:      user,
		CSRFToken: csrf,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.TTL),
	}

	if err := m.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    id,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Logout deletes the session record and expires the cookie.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	m.expireCookie(w, m.cfg.CookieName)
	if sessionID == "" {
		return nil
	}
	if err := m.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Restore loads the session named by the request cookie.
// Returns ErrNoSession for missing, unknown, expired or corrupt sessions.
func (m *Manager) Restore(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || !validTokenFormat(cookie.Value) {
		return nil, ErrNoSession
	}

	ctx := r.Context()
	sess, err := m.store.GetSession(ctx, cookie.Value)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		return nil, ErrNoSession
	case errors.Is(err, cache.ErrCorruptEntry):
		m.logger.Warn("dropping corrupt session record")
		if delErr := m.store.DeleteSession(ctx, cookie.Value); delErr != nil {
			m.logger.Error("failed to delete corrupt session", "error", delErr)
		}
		return nil, ErrNoSession
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess.IsExpired(m.now()) || sess.Token == "" {
		_ = m.store.DeleteSession(ctx, cookie.Value)
		return nil, ErrNoSession
	}
	return sess, nil
}

// AddFlash queues a flash for the session's next page.
func (m *Manager) AddFlash(ctx context.Context, sessionID string, flash model.Flash) error {
	if err := m.store.PushFlash(ctx, sessionID, flash); err != nil {
		return fmt.Errorf("push flash: %w", err)
	}
	return nil
}

// PopFlashes returns and clears the session's queued flashes.
func (m *Manager) PopFlashes(ctx context.Context, sessionID string) ([]model.Flash, error) {
	flashes, err := m.store.PopFlashes(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("pop flashes: %w", err)
	}
	return flashes, nil
}

// FlashAnonymous stores a flash in a short-lived cookie for visitors
// without a session, e.g. right after a forced logout.
func (m *Manager) FlashAnonymous(w http.ResponseWriter, flash model.Flash) {
	data, err := json.Marshal(flash)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   flashCookieMaxAge,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopAnonymousFlashes reads and clears the anonymous flash cookie.
func (m *Manager) PopAnonymousFlashes(w http.ResponseWriter, r *http.Request) []model.Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	m.expireCookie(w, flashCookieName)

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flash model.Flash
	if err := json.Unmarshal(data, &flash); err != nil {
		return nil
	}
	if !knownLevel(flash.Level) || flash.Message == "" || len(flash.Message) > maxFlashMessage {
		return nil
	}
	return []model.Flash{flash}
}

func (m *Manager) expireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func knownLevel(level model.FlashLevel) bool {
	switch level {
	case model.FlashSuccess, model.FlashError, model.FlashInfo:
		return true
	}
	return false
}

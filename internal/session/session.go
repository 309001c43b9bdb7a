// Package session provides cookie-backed, server-side sessions and the
// flash message store that rides on them.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UserKey is the single session key holding the logged-in user's name.
// It is removed on logout and for anonymous users.
const UserKey = "scribe_user"

// GotoKey holds the path to redirect to after a successful login.
const GotoKey = "scribe_goto"

// Session is the per-client key-value store. Values are strings; anything
// richer belongs in a real backend, not a cookie session.
type Session struct {
	ID string

	mu      sync.Mutex
	values  map[string]string
	flash   []FlashMessage
	expires time.Time
	fresh   bool
}

// Get returns the value for key, empty when absent.
func (s *Session) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Set stores a value.
func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes a key and returns its previous value.
func (s *Session) Delete(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[key]
	delete(s.values, key)
	return v
}

// FlashLevel categorizes a flash message.
type FlashLevel string

const (
	FlashInfo  FlashLevel = "info"
	FlashError FlashLevel = "error"
)

// FlashMessage is an ephemeral, one-request notification.
type FlashMessage struct {
	Level   FlashLevel
	Message string
}

// FlashInfo queues an informational flash message.
func (s *Session) FlashInfo(msg string) { s.addFlash(FlashInfo, msg) }

// FlashError queues an error flash message.
func (s *Session) FlashError(msg string) { s.addFlash(FlashError, msg) }

func (s *Session) addFlash(level FlashLevel, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = append(s.flash, FlashMessage{Level: level, Message: msg})
}

// TakeFlash consumes and returns all queued flash messages.
func (s *Session) TakeFlash() []FlashMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.flash
	s.flash = nil
	return out
}

// ClearFlash drops queued flash messages without returning them.
func (s *Session) ClearFlash() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = nil
}

// Manager issues and tracks sessions. Sessions live in memory; a restart
// logs everyone out, which is acceptable for a wiki.
type Manager struct {
	cookieName string
	ttl        time.Duration
	secure     bool

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(cookieName string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		sessions:   make(map[string]*Session),
	}
}

// Load returns the session identified by the request cookie, or a fresh one
// when the cookie is missing, unknown or expired.
func (m *Manager) Load(r *http.Request) *Session {
	if c, err := r.Cookie(m.cookieName); err == nil {
		m.mu.RLock()
		s, ok := m.sessions[c.Value]
		m.mu.RUnlock()
		if ok && time.Now().Before(s.expires) {
			return s
		}
	}
	s := &Session{
		ID:      uuid.NewString(),
		values:  make(map[string]string),
		expires: time.Now().Add(m.ttl),
		fresh:   true,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Save extends the session lifetime and sets the session cookie on fresh
// sessions.
func (m *Manager) Save(w http.ResponseWriter, s *Session) {
	s.mu.Lock()
	s.expires = time.Now().Add(m.ttl)
	fresh := s.fresh
	s.fresh = false
	s.mu.Unlock()

	if !fresh {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PurgeExpired drops sessions past their expiry.
func (m *Manager) PurgeExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		expired := now.After(s.expires)
		s.mu.Unlock()
		if expired {
			delete(m.sessions, id)
			purged++
		}
	}
	return purged
}

// GC purges expired sessions on the given interval until ctx is done.
func (m *Manager) GC(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			m.PurgeExpired(now)
		}
	}
}

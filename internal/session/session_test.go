package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIssuesAndReusesSessions(t *testing.T) {
	m := NewManager("scribe_session", time.Hour, false)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	s := m.Load(r)
	require.NotEmpty(t, s.ID)

	w := httptest.NewRecorder()
	s.Set(UserKey, "alice")
	m.Save(w, s)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "scribe_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	s2 := m.Load(r2)
	assert.Equal(t, s.ID, s2.ID)
	assert.Equal(t, "alice", s2.Get(UserKey))
}

func TestSaveSetsCookieOnlyOnce(t *testing.T) {
	m := NewManager("scribe_session", time.Hour, false)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	w1 := httptest.NewRecorder()
	m.Save(w1, s)
	assert.Len(t, w1.Result().Cookies(), 1)

	w2 := httptest.NewRecorder()
	m.Save(w2, s)
	assert.Empty(t, w2.Result().Cookies())
}

func TestUnknownCookieGetsFreshSession(t *testing.T) {
	m := NewManager("scribe_session", time.Hour, false)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "scribe_session", Value: "bogus"})

	s := m.Load(r)
	assert.NotEqual(t, "bogus", s.ID)
}

func TestFlashIsConsumedOnce(t *testing.T) {
	m := NewManager("scribe_session", time.Hour, false)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	s.FlashError("version conflict")
	s.FlashInfo("changes saved")

	msgs := s.TakeFlash()
	require.Len(t, msgs, 2)
	assert.Equal(t, FlashError, msgs[0].Level)
	assert.Equal(t, "version conflict", msgs[0].Message)
	assert.Equal(t, FlashInfo, msgs[1].Level)

	assert.Empty(t, s.TakeFlash())
}

func TestClearFlash(t *testing.T) {
	m := NewManager("scribe_session", time.Hour, false)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	s.FlashInfo("pending")
	s.ClearFlash()
	assert.Empty(t, s.TakeFlash())
}

func TestPurgeExpired(t *testing.T) {
	m := NewManager("scribe_session", time.Minute, false)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 0, m.PurgeExpired(time.Now()))
	assert.Equal(t, 1, m.PurgeExpired(time.Now().Add(2*time.Minute)))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "scribe_session", Value: s.ID})
	s2 := m.Load(r)
	assert.NotEqual(t, s.ID, s2.ID, "expired session is not reused")
}

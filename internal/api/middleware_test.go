package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sweepRequest(t *testing.T, sweeper *SessionSweeper, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	handler := sweeper.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/users", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSessionSweeperSetsCookie(t *testing.T) {
	sweeper := NewSessionSweeper([]byte("secret"), 30*time.Minute)

	rec := sweepRequest(t, sweeper, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestSessionSweeperExpiresIdleSession(t *testing.T) {
	sweeper := NewSessionSweeper([]byte("secret"), 30*time.Minute)

	stale := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	rec := sweepRequest(t, sweeper, stale+"."+sweeper.sign(stale))

	assert.Equal(t, StatusSessionExpired, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge, "the cookie is cleared")
}

func TestSessionSweeperAcceptsActiveSession(t *testing.T) {
	sweeper := NewSessionSweeper([]byte("secret"), 30*time.Minute)

	recent := strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10)
	rec := sweepRequest(t, sweeper, recent+"."+sweeper.sign(recent))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionSweeperIgnoresTamperedCookie(t *testing.T) {
	sweeper := NewSessionSweeper([]byte("secret"), 30*time.Minute)

	// an unsigned stale timestamp must not trigger the sweep
	stale := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	rec := sweepRequest(t, sweeper, stale+".forged-signature")

	assert.Equal(t, http.StatusOK, rec.Code)
}

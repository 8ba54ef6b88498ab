package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian/internal/shared"
)

func sessionTestHandler(t *testing.T, inner http.HandlerFunc) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(client, "meridian_session", "test-secret", time.Hour, false)

	var handler http.Handler = inner
	stack := MiddlewareStack(MiddlewareConfig{Logger: slog.Default(), SessionManager: sm})
	for i := len(stack) - 1; i >= 0; i-- {
		handler = stack[i](handler)
	}
	return handler, mr
}

func sessionCookie(t *testing.T, res *http.Response) string {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == "meridian_session" {
			return c.Value
		}
	}
	t.Fatal("session cookie not set")
	return ""
}

func TestSessionCommittedOnExplicitWrite(t *testing.T) {
	handler, mr := sessionTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		shared.SessionFromContext(r.Context()).Set("greeting", "hello")
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	id := sessionCookie(t, rec.Result())
	stored, err := mr.Get("session:" + id)
	require.NoError(t, err)
	assert.Contains(t, stored, "hello")
}

func TestSessionCommittedWithoutExplicitWrite(t *testing.T) {
	handler, mr := sessionTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		// Returns without touching the ResponseWriter; the server will send
		// an implicit 200 after the chain unwinds.
		shared.SessionFromContext(r.Context()).Set("chatbot.pending", "ACME")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	id := sessionCookie(t, rec.Result())
	stored, err := mr.Get("session:" + id)
	require.NoError(t, err)
	assert.Contains(t, stored, "ACME")
}

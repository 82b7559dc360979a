package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkarelin/docforge/internal/errs"
	"github.com/mkarelin/docforge/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...ClientOption) (*Client, *session.MemStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := session.NewMemStore()
	return New(srv.URL, store, zap.NewNop(), opts...), store
}

func TestNew_TimeoutAppliesInAnyOptionOrder(t *testing.T) {
	t.Parallel()
	store := session.NewMemStore()

	c := New("http://x", store, zap.NewNop(),
		WithTimeout(5*time.Second), WithHTTPClient(&http.Client{}))
	require.Equal(t, 5*time.Second, c.http.Timeout)

	c = New("http://x", store, zap.NewNop(),
		WithHTTPClient(&http.Client{}), WithTimeout(5*time.Second))
	require.Equal(t, 5*time.Second, c.http.Timeout)
}

func TestDo_AttachesBearerHeader(t *testing.T) {
	t.Parallel()
	var gotAuth string
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	require.NoError(t, store.SetToken("T", time.Now().Add(time.Minute)))

	_, err := c.Do(context.Background(), http.MethodGet, "/projects/", nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer T", gotAuth)
}

func TestDo_UnauthenticatedSkipsHeader(t *testing.T) {
	t.Parallel()
	var gotAuth string
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	require.NoError(t, store.SetToken("T", time.Now().Add(time.Minute)))

	_, err := c.Do(context.Background(), http.MethodPost, "/auth/login", map[string]string{"username": "u"}, Unauthenticated())
	require.NoError(t, err)
	require.Empty(t, gotAuth)
}

func TestDo_401ClearsTokenAndFiresHook(t *testing.T) {
	t.Parallel()
	expired := 0
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), WithSessionExpiredHook(func() { expired++ }))
	require.NoError(t, store.SetToken("stale", time.Now().Add(time.Minute)))

	_, err := c.Do(context.Background(), http.MethodGet, "/projects/", nil)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, 1, expired, "expiry hook must fire once")

	_, ok := store.Token()
	require.False(t, ok, "401 must clear the stored token")
}

func TestDo_404MapsToNotFound(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Project not found"}`))
	}))

	_, err := c.Do(context.Background(), http.MethodGet, "/projects/x", nil)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Contains(t, err.Error(), "Project not found")
}

func TestDo_Non2xxCarriesServerDetail(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Username already registered"}`))
	}))

	_, err := c.Do(context.Background(), http.MethodPost, "/auth/register", map[string]string{})
	require.ErrorIs(t, err, errs.ErrRequestFailed)
	require.Contains(t, err.Error(), "Username already registered")
}

func TestDo_Non2xxWithoutDetailUsesGenericMessage(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom, not json`))
	}))

	_, err := c.Do(context.Background(), http.MethodGet, "/projects/", nil)
	require.ErrorIs(t, err, errs.ErrRequestFailed)
	require.Contains(t, err.Error(), "status 500")
}

func TestDo_204ReturnsNoContent(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	res, err := c.Do(context.Background(), http.MethodDelete, "/projects/1", nil)
	require.NoError(t, err)
	require.True(t, res.NoContent)
	require.Empty(t, res.Body)
}

func TestDo_BinaryReturnsBlob(t *testing.T) {
	t.Parallel()
	payload := []byte{0x50, 0x4b, 0x03, 0x04, 0x00}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	}))

	res, err := c.Do(context.Background(), http.MethodGet, "/export/1", nil, Binary())
	require.NoError(t, err)
	require.Equal(t, payload, res.Blob)
}

func TestDo_NetworkFailureIsTransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // connection refused from here on

	c := New(url, session.NewMemStore(), zap.NewNop())
	_, err := c.Do(context.Background(), http.MethodGet, "/projects/", nil)
	require.ErrorIs(t, err, errs.ErrTransport)
	require.NotErrorIs(t, err, errs.ErrRequestFailed)
}

func TestDo_SingleAttemptNoRetries(t *testing.T) {
	t.Parallel()
	calls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.Do(context.Background(), http.MethodGet, "/projects/", nil)
	require.ErrorIs(t, err, errs.ErrRequestFailed)
	require.Equal(t, 1, calls)
}

func TestHelpers_JSONRoundTrips(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /thing", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"x"}`))
	})
	mux.HandleFunc("POST /thing", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"name":"y"}`))
	})
	mux.HandleFunc("DELETE /thing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c, _ := newTestClient(t, mux)

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "/thing", &out))
	require.Equal(t, "x", out.Name)

	require.NoError(t, c.PostJSON(context.Background(), "/thing", map[string]int{"a": 1}, &out))
	require.Equal(t, "y", out.Name)

	require.NoError(t, c.Delete(context.Background(), "/thing"))
}

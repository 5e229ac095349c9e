package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lepinkainen/naoka/internal/cache"
	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/ratelimit"
	"github.com/lepinkainen/naoka/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, string, *[]time.Duration) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var slept []time.Duration
	client := NewClient("test",
		WithHTTPClient(server.Client()),
		WithRateLimiter(ratelimit.New("test", 0)),
	)
	client.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return client, server.URL, &slept
}

func TestClientGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"name":"bebop"}`))
	}))
	defer server.Close()

	client := NewClient("test", WithHTTPClient(server.Client()), WithRateLimiter(ratelimit.New("test", 0)))

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "bebop", out.Name)
}

func TestClientPostJSON(t *testing.T) {
	client, endpoint, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, client.PostJSON(context.Background(), endpoint, map[string]any{"query": "{}"}, &out))
	assert.True(t, out.OK)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, endpoint, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	var out map[string]any
	require.NoError(t, client.GetJSON(context.Background(), endpoint, &out))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestClient_HonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	client, endpoint, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	var out map[string]any
	require.NoError(t, client.GetJSON(context.Background(), endpoint, &out))
	assert.Equal(t, []time.Duration{5 * time.Second}, *slept)
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, endpoint, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such page", http.StatusNotFound)
	})

	var out map[string]any
	err := client.GetJSON(context.Background(), endpoint, &out)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	require.True(t, errors.IsRemoteFetchError(err))
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "no such page")
}

func TestClient_BadJSON(t *testing.T) {
	client, endpoint, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	var out map[string]any
	err := client.GetJSON(context.Background(), endpoint, &out)
	require.Error(t, err)
	assert.True(t, errors.IsRemoteFetchError(err))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(1))
	assert.Equal(t, 4*time.Second, backoffDelay(3))
	assert.Equal(t, 10*time.Second, backoffDelay(8))
}

func TestCached_WithoutPageCacheAlwaysFetches(t *testing.T) {
	client := NewClient("anilist")

	calls := 0
	for range 2 {
		value, err := Cached(client, "k", func() (int, error) {
			calls++
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, value)
	}
	assert.Equal(t, 2, calls)
}

func TestCached_WithPageCache(t *testing.T) {
	testutil.ResetConfig(t)
	viper.Set("cache.dbfile", testutil.NewTestEnv(t).DBPath("cache"))
	require.NoError(t, cache.ResetGlobalCache())
	t.Cleanup(func() { _ = cache.ResetGlobalCache() })

	client := NewClient("anilist", WithPageCache())

	calls := 0
	fetch := func() ([]string, error) {
		calls++
		return []string{"bebop", "trigun"}, nil
	}
	for range 2 {
		value, err := Cached(client, "ANIME:1", fetch)
		require.NoError(t, err)
		assert.Equal(t, []string{"bebop", "trigun"}, value)
	}
	assert.Equal(t, 1, calls)
}

package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

type listing []struct {
	Games []struct {
		ID string `json:"id"`
	} `json:"games"`
}

func TestFetchJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "basketbot-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"games":[{"id":"25001"},{"id":"25002"}]}]`))
	}))
	defer srv.Close()

	var out listing
	err := NewClient(logging.NewNop(), WithUserAgent("basketbot-test")).FetchJSON(context.Background(), srv.URL, &out)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Games, 2)
	assert.Equal(t, "25002", out[0].Games[1].ID)
}

func TestFetchJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var out listing
	err := NewClient(logging.NewNop(), WithRetries(2, time.Millisecond)).FetchJSON(context.Background(), srv.URL, &out)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var out listing
	err := NewClient(logging.NewNop(), WithRetries(3, time.Millisecond)).FetchJSON(context.Background(), srv.URL, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchJSONMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	var out listing
	err := NewClient(logging.NewNop()).FetchJSON(context.Background(), srv.URL, &out)
	assert.Error(t, err)
}

func TestFetchJSONGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var out listing
	err := NewClient(logging.NewNop(), WithRetries(2, time.Millisecond)).FetchJSON(context.Background(), srv.URL, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchJSONStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var out listing
	err := NewClient(logging.NewNop(), WithRetries(5, time.Hour)).FetchJSON(ctx, srv.URL, &out)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

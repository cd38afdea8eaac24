package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantry/backend/internal/domain"
)

func newTestRequester(retries int) *Requester {
	return NewRequester(Options{MaxRetries: retries, BaseBackoff: time.Millisecond}, nil)
}

func TestExponentialBackoff(t *testing.T) {
	base := 500 * time.Millisecond
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, exponentialBackoff(base, tt.attempt))
	}
}

func TestNewRequester_Defaults(t *testing.T) {
	r := NewRequester(Options{}, nil)

	assert.Equal(t, defaultTimeout, r.httpClient.Timeout)
	assert.Equal(t, defaultBaseBackoff, r.baseBackoff)
	assert.Zero(t, r.maxRetries)
	assert.NotNil(t, r.rateLimiter)
}

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Pantry/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7}`))
	}))
	defer server.Close()

	var out struct{ ID int }
	err := newTestRequester(0).GetJSON(context.Background(), server.URL, &out)

	require.NoError(t, err)
	assert.Equal(t, 7, out.ID)
}

func TestGetJSON_ServerError_Retries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	var out struct{ ID int }
	err := newTestRequester(3).GetJSON(context.Background(), server.URL, &out)

	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestGetJSON_GivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var out any
	err := newTestRequester(2).GetJSON(context.Background(), server.URL, &out)

	assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestGetJSON_ClientErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantErrs []error
	}{
		{"not found", http.StatusNotFound, []error{domain.ErrNetworkUnavailable, domain.ErrProductNotFound}},
		{"payment required", http.StatusPaymentRequired, []error{domain.ErrNetworkUnavailable}},
		{"unauthorized", http.StatusUnauthorized, []error{domain.ErrNetworkUnavailable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			var out any
			err := newTestRequester(3).GetJSON(context.Background(), server.URL, &out)

			for _, want := range tt.wantErrs {
				assert.ErrorIs(t, err, want)
			}
			assert.Equal(t, int32(1), attempts.Load())
		})
	}
}

func TestGetJSON_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	var out struct{ ID int }
	err := newTestRequester(3).GetJSON(context.Background(), server.URL, &out)

	assert.ErrorIs(t, err, domain.ErrMalformedUpstream)
}

func TestGetJSON_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	var out any
	err := newTestRequester(1).GetJSON(context.Background(), url, &out)

	assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
}

func TestGetJSON_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out any
	err := NewRequester(Options{MaxRetries: 5, BaseBackoff: time.Hour}, nil).GetJSON(ctx, server.URL, &out)

	assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
}

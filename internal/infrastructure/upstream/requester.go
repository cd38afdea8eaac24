// Package upstream holds the HTTP plumbing shared by the recipe catalog
// clients: rate limiting, retries with exponential backoff, and error
// classification.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pantry/backend/internal/domain"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultBaseBackoff = 500 * time.Millisecond
	maxErrorBody       = 512
)

// Options tunes a Requester. Zero values pick sensible defaults.
type Options struct {
	Timeout       time.Duration
	RatePerSecond float64 // <= 0 disables limiting
	Burst         int
	MaxRetries    int
	BaseBackoff   time.Duration
	UserAgent     string

	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client
}

// Requester executes GET requests against a JSON API
type Requester struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	userAgent   string
	logger      *zap.Logger
}

// NewRequester creates a Requester from opts
func NewRequester(opts Options, log *zap.Logger) *Requester {
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	backoff := opts.BaseBackoff
	if backoff <= 0 {
		backoff = defaultBaseBackoff
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Pantry/1.0"
	}

	return &Requester{
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(limit, burst),
		maxRetries:  max(opts.MaxRetries, 0),
		baseBackoff: backoff,
		userAgent:   userAgent,
		logger:      log,
	}
}

// exponentialBackoff returns base, 2*base, 4*base... for attempts 1, 2, 3...
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

// statusError carries a non-2xx response
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// GetJSON fetches reqURL and decodes the body into out. Transport errors,
// 429 and 5xx are retried up to MaxRetries times.
//
// Errors wrap domain.ErrNetworkUnavailable for transport failures and
// non-2xx statuses (plus domain.ErrProductNotFound on 404, and
// domain.ErrRateLimited on 429), and domain.ErrMalformedUpstream for
// undecodable bodies.
func (r *Requester) GetJSON(ctx context.Context, reqURL string, out any) error {
	var lastErr error
	attempts := r.maxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := exponentialBackoff(r.baseBackoff, attempt-1)
			r.logger.Warn("retrying upstream request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, ctx.Err())
			case <-time.After(wait):
			}
		}

		if err := r.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", domain.ErrNetworkUnavailable, err)
		}

		body, err := r.do(ctx, reqURL)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%w: failed to decode response: %v", domain.ErrMalformedUpstream, err)
			}
			return nil
		}

		var se *statusError
		if errors.As(err, &se) {
			switch {
			case se.status == http.StatusNotFound:
				return fmt.Errorf("%w: %w", domain.ErrNetworkUnavailable, domain.ErrProductNotFound)
			case se.status == http.StatusTooManyRequests:
				lastErr = fmt.Errorf("%w: %w: %v", domain.ErrNetworkUnavailable, domain.ErrRateLimited, se)
			case retryable(se.status):
				lastErr = fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, se)
			default:
				return fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, se)
			}
			continue
		}

		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
		}
		lastErr = fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}

	r.logger.Warn("upstream request failed", zap.Int("attempts", attempts), zap.Error(lastErr))
	return lastErr
}

func (r *Requester) do(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	r.logger.Debug("upstream response",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &statusError{status: resp.StatusCode, body: string(body)}
	}
	return body, nil
}

package domain

import "errors"

var (
	// ErrNetworkUnavailable is returned when the upstream catalog cannot be reached
	// or answers with a non-success status
	ErrNetworkUnavailable = errors.New("upstream catalog unavailable")

	// ErrProductNotFound is returned when the upstream catalog has no such meal
	ErrProductNotFound = errors.New("meal not found in upstream catalog")

	// ErrMalformedUpstream is returned when an upstream payload lacks required fields
	ErrMalformedUpstream = errors.New("malformed upstream response")

	// ErrNotAvailable is returned when a meal can be served neither by the upstream nor by the offline cache
	ErrNotAvailable = errors.New("meal not available online or offline")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

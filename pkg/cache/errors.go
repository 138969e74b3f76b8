package cache

import "errors"

// ErrNotFound is returned when a key is not found in either cache tier
var ErrNotFound = errors.New("key not found in cache")

// ErrStrategyNotFound is returned when a caller requests a strategy name
// that was never registered. Unlike transport failures this is caller
// misuse and is surfaced instead of degraded.
var ErrStrategyNotFound = errors.New("cache strategy not registered")

// ErrCacheClosed is returned by operations attempted after Close
var ErrCacheClosed = errors.New("cache is closed")

// ErrRemoteDisabled is returned by remote operations when the Redis tier
// was disabled at construction time
var ErrRemoteDisabled = errors.New("remote cache tier is disabled")

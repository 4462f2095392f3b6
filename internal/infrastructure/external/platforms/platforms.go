// Package platforms implements the external data clients for the four
// supported competitive-programming platforms: LeetCode, CodeForces,
// CodeChef and AtCoder.
//
// Every client follows the same contract: given a username it returns a
// normalized statistics Result, or nil when the user cannot be found or the
// platform is unavailable. Ordinary "not found" and "service down"
// conditions are logged and absorbed here so that the rest of the system
// only ever sees fresh stats or their absence.
package platforms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
	"github.com/cptrack/cptrack-hub/pkg/circuitbreaker"
	"github.com/cptrack/cptrack-hub/pkg/retry"
)

// errNotFound marks a definitive "no such user" response. It is absorbed
// inside the clients and never retried or surfaced to callers.
var errNotFound = errors.New("user not found")

// browserUserAgent is sent on HTML fetches. CodeChef and LeetCode profile
// pages reject requests with obvious bot user agents.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds configuration shared by all platform clients.
// Base URLs are overridable so tests can point clients at local servers.
type Config struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration

	LeetCodeBaseURL        string
	CodeForcesBaseURL      string
	CodeChefBaseURL        string
	AtCoderBaseURL         string
	AtCoderProblemsBaseURL string

	// Retry controls retry behavior for transient fetch failures.
	Retry retry.Config

	// BreakerThreshold is the number of consecutive failures that opens a
	// platform's circuit. BreakerTimeout is how long an open circuit stays
	// open before probing. Zero values fall back to the breaker defaults.
	BreakerThreshold int
	BreakerTimeout   time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultConfig returns production endpoints and a 10 second timeout.
func DefaultConfig() Config {
	return Config{
		Timeout:                10 * time.Second,
		LeetCodeBaseURL:        "https://leetcode.com",
		CodeForcesBaseURL:      "https://codeforces.com",
		CodeChefBaseURL:        "https://www.codechef.com",
		AtCoderBaseURL:         "https://atcoder.jp",
		AtCoderProblemsBaseURL: "https://kenkoooo.com/atcoder",
		Retry:                  retry.DefaultConfig(),
		BreakerThreshold:       5,
		BreakerTimeout:         30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULTS
// ══════════════════════════════════════════════════════════════════════════════

// Result is a normalized fetch result. Exactly one stats block is set,
// matching the Platform field.
type Result struct {
	Platform tracker.Platform

	LeetCode   *tracker.LeetCodeStats
	CodeForces *tracker.CodeForcesStats
	CodeChef   *tracker.CodeChefStats
	AtCoder    *tracker.AtCoderStats
}

// ApplyTo merges the result into the tracker's matching raw stats block.
// Only the block for the fetched platform is touched; other platforms'
// data is left unchanged.
func (r *Result) ApplyTo(t *tracker.Tracker) {
	switch {
	case r.LeetCode != nil:
		t.LeetCode = *r.LeetCode
	case r.CodeForces != nil:
		t.CodeForces = *r.CodeForces
	case r.CodeChef != nil:
		t.CodeChef = *r.CodeChef
	case r.AtCoder != nil:
		t.AtCoder = *r.AtCoder
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT INTERFACE AND REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// Client fetches normalized statistics for one platform.
//
// Fetch returns (nil, nil) for ordinary "user not found" or "platform
// unavailable" conditions; a non-nil error means the attempt itself failed
// unexpectedly and is attributable to this platform only.
type Client interface {
	Platform() tracker.Platform
	Fetch(ctx context.Context, username string) (*Result, error)
}

// Registry maps each platform to its client.
type Registry map[tracker.Platform]Client

// NewRegistry builds clients for all supported platforms.
func NewRegistry(config Config, logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return Registry{
		tracker.PlatformLeetCode:   NewLeetCodeClient(config, logger),
		tracker.PlatformCodeForces: NewCodeForcesClient(config, logger),
		tracker.PlatformCodeChef:   NewCodeChefClient(config, logger),
		tracker.PlatformAtCoder:    NewAtCoderClient(config, logger),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED FETCH PLUMBING
// ══════════════════════════════════════════════════════════════════════════════

// fetcher bundles the HTTP client, circuit breaker and retrier shared by
// every platform client implementation.
type fetcher struct {
	http    *resty.Client
	breaker *circuitbreaker.Breaker
	retrier *retry.Retrier
	logger  *slog.Logger
}

func newFetcher(name string, config Config, logger *slog.Logger) *fetcher {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("platform", name)

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:             name,
		FailureThreshold: config.BreakerThreshold,
		Timeout:          config.BreakerTimeout,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit state changed", "from", from.String(), "to", to.String())
		},
	})

	retryCfg := config.Retry
	retryCfg.RetryIf = func(err error) bool {
		return !errors.Is(err, errNotFound)
	}
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Debug("retrying fetch", "attempt", attempt, "delay", delay.String(), "error", err)
	}

	return &fetcher{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", browserUserAgent),
		breaker: breaker,
		retrier: retry.New(retryCfg),
		logger:  log,
	}
}

// do runs fn through the circuit breaker and retrier.
//
// A definitive "no such user" answer is the platform responding normally,
// so it counts as a breaker success; only transport and server errors count
// against the breaker.
func (f *fetcher) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := f.breaker.Allow(); err != nil {
		return fmt.Errorf("circuit breaker: %w", err)
	}

	err := f.retrier.Do(ctx, fn)
	if err != nil && !errors.Is(err, errNotFound) {
		f.breaker.RecordFailure()
		return err
	}

	f.breaker.RecordSuccess()
	return err
}

// Package oracle wraps the LLM used for catalog inference behind a small
// Generator interface and a caching, retrying client. The model is treated
// as an unreliable collaborator: every response passes through a JSON repair
// chain before parsing, failures are retried a bounded number of times, and
// callers are expected to carry deterministic fallbacks of their own.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avforge/catalogstd/internal/cache"
)

// ErrGeneration indicates all attempts to obtain parseable JSON failed.
var ErrGeneration = errors.New("oracle generation failed")

// Generator produces raw model output for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DefaultMaxAttempts bounds generate+repair retries per prompt.
const DefaultMaxAttempts = 3

// Client layers caching, retries and duplicate-prompt suppression over a
// Generator.
type Client struct {
	gen         Generator
	store       cache.Store
	log         *slog.Logger
	maxAttempts int
	backoff     time.Duration

	mu       sync.Mutex
	inflight map[string]*sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithMaxAttempts overrides the retry bound.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay between retries.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// NewClient builds a caching oracle client. store may not be nil; pass a
// cache.MemoryStore for uncached operation.
func NewClient(gen Generator, store cache.Store, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		gen:         gen,
		store:       store,
		log:         log,
		maxAttempts: DefaultMaxAttempts,
		backoff:     500 * time.Millisecond,
		inflight:    make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GenerateJSON returns the parsed JSON object for prompt, consulting the
// cache first. Identical prompts issued concurrently are serialized so only
// the first pays for a generation; the rest hit the cache.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (map[string]any, error) {
	lock := c.promptLock(prompt)
	lock.Lock()
	defer lock.Unlock()

	if raw, err := c.store.Get(ctx, prompt); err == nil {
		if obj, perr := ParseJSON(raw); perr == nil {
			return obj, nil
		}
		// Poisoned cache entry: fall through and regenerate.
		c.log.Warn("discarding unparseable cache entry", "key", cache.Key(prompt))
	} else if !errors.Is(err, cache.ErrMiss) {
		c.log.Warn("cache lookup failed", "error", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt-1)):
			}
		}

		raw, err := c.gen.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			c.log.Warn("generation attempt failed", "attempt", attempt, "error", err)
			continue
		}
		obj, err := ParseJSON(raw)
		if err != nil {
			lastErr = err
			c.log.Warn("response not parseable as JSON", "attempt", attempt, "error", err)
			continue
		}

		// Cache the repaired canonical form, not the raw output.
		canonical, _ := json.Marshal(obj)
		if err := c.store.Set(ctx, prompt, string(canonical)); err != nil {
			c.log.Warn("cache store failed", "error", err)
		}
		return obj, nil
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrGeneration, c.maxAttempts, lastErr)
}

// promptLock returns the per-prompt mutex, creating it on first use.
func (c *Client) promptLock(prompt string) *sync.Mutex {
	key := cache.Key(prompt)
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.inflight[key]
	if !ok {
		lock = &sync.Mutex{}
		c.inflight[key] = lock
	}
	return lock
}

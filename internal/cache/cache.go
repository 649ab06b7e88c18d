// Package cache persists oracle responses keyed by the prompt that produced
// them, so repeated analyses of the same catalog never pay for a second
// generation. Three backends share one interface: file (the default), an
// in-process map, and Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrMiss is returned by Get when no entry exists for the prompt.
var ErrMiss = errors.New("cache miss")

// Store is a prompt-keyed response cache. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the cached response for prompt, or ErrMiss.
	Get(ctx context.Context, prompt string) (string, error)
	// Set stores the response for prompt, overwriting any previous entry.
	Set(ctx context.Context, prompt, response string) error
}

// Key derives the stable cache key for a prompt.
func Key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

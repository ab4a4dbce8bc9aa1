package quota

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/store"
)

// DefaultCap is the number of free guest analyses per device.
const DefaultCap = 3

// Counter tracks consumed guest analyses. The cap is enforced by Increment
// itself, so the persisted count can never exceed it through this type even
// if a caller skips the CanUse pre-check.
type Counter struct {
	kv  store.KV
	log zerolog.Logger
	cap int

	mu     sync.Mutex
	mem    int
	loaded bool
}

// New creates a Counter with the given cap. Non-positive caps fall back to
// DefaultCap.
func New(kv store.KV, cap int, log zerolog.Logger) *Counter {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Counter{kv: kv, log: log, cap: cap}
}

// Cap returns the configured cap.
func (c *Counter) Cap() int { return c.cap }

// Count returns the number of consumed guest analyses. A missing or corrupt
// persisted value reads as 0.
func (c *Counter) Count(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// CanUse reports whether another guest analysis may be issued.
func (c *Counter) CanUse(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx) < c.cap
}

// Remaining returns how many guest analyses are left.
func (c *Counter) Remaining(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	left := c.cap - c.load(ctx)
	if left < 0 {
		return 0
	}
	return left
}

// Increment charges one guest analysis and returns the new count. It refuses
// once the cap is reached. The count is persisted before returning so a
// subsequent read never sees stale quota; if the write fails the in-memory
// value still advances for this session. A restart may then reset to the last
// persisted value; the server applies its own ceiling either way.
func (c *Counter) Increment(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.load(ctx)
	if current >= c.cap {
		return current, errors.NewQuotaExceeded(current, c.cap)
	}

	c.mem = current + 1
	if err := c.kv.Set(ctx, store.KeyGuestUsageCount, strconv.Itoa(c.mem)); err != nil {
		c.log.Warn().Err(err).Int("count", c.mem).Msg("guest usage count persist failed, advancing in memory only")
	}
	return c.mem, nil
}

// load reads the persisted count once and caches it. Callers must hold c.mu.
func (c *Counter) load(ctx context.Context) int {
	if c.loaded {
		return c.mem
	}
	c.loaded = true

	raw, ok, err := c.kv.Get(ctx, store.KeyGuestUsageCount)
	if err != nil {
		c.log.Warn().Err(err).Msg("guest usage count read failed, assuming 0")
		return c.mem
	}
	if !ok {
		return c.mem
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.log.Warn().Str("value", raw).Msg("guest usage count corrupt, assuming 0")
		return c.mem
	}
	c.mem = n
	return c.mem
}

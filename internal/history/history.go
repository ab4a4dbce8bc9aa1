package history

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/vibecheckapp/vibecheck-cli/internal/store"
	"github.com/vibecheckapp/vibecheck-cli/internal/vibe"
)

// MaxEntries bounds the guest history cache; the oldest entries are silently
// dropped on overflow.
const MaxEntries = 10

// Cache is the device-local, append-only record of guest analysis results,
// persisted as one JSON array, newest first.
type Cache struct {
	kv  store.KV
	log zerolog.Logger
}

// New creates a Cache backed by kv.
func New(kv store.KV, log zerolog.Logger) *Cache {
	return &Cache{kv: kv, log: log}
}

// ReadAll returns every cached entry, newest first. Missing or corrupt
// persisted data degrades to an empty list, never an error: the user cannot
// recover a broken payload, so surfacing it would only confuse.
func (c *Cache) ReadAll(ctx context.Context) []vibe.VibeCheck {
	raw, ok, err := c.kv.Get(ctx, store.KeyGuestHistory)
	if err != nil {
		c.log.Warn().Err(err).Msg("guest history read failed, returning empty list")
		return []vibe.VibeCheck{}
	}
	if !ok {
		return []vibe.VibeCheck{}
	}
	return c.decode(raw)
}

// Prepend inserts entry at the front and truncates to MaxEntries. The
// read-modify-write happens inside a single store transaction so concurrent
// writers cannot interleave.
func (c *Cache) Prepend(ctx context.Context, entry vibe.VibeCheck) error {
	return c.kv.Update(ctx, store.KeyGuestHistory, func(current string, ok bool) (string, error) {
		var entries []vibe.VibeCheck
		if ok {
			entries = c.decode(current)
		}

		entries = append([]vibe.VibeCheck{entry}, entries...)
		if len(entries) > MaxEntries {
			entries = entries[:MaxEntries]
		}

		data, err := json.Marshal(entries)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
}

// Remove filters out the entry with the given id. A missing id is a no-op,
// not an error.
func (c *Cache) Remove(ctx context.Context, id string) error {
	return c.kv.Update(ctx, store.KeyGuestHistory, func(current string, ok bool) (string, error) {
		var entries []vibe.VibeCheck
		if ok {
			entries = c.decode(current)
		}

		kept := make([]vibe.VibeCheck, 0, len(entries))
		for _, e := range entries {
			if e.ID != id {
				kept = append(kept, e)
			}
		}

		data, err := json.Marshal(kept)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
}

// Clear drops the whole cache.
func (c *Cache) Clear(ctx context.Context) error {
	return c.kv.Delete(ctx, store.KeyGuestHistory)
}

// decode parses the persisted JSON array, degrading to empty on corruption.
func (c *Cache) decode(raw string) []vibe.VibeCheck {
	var entries []vibe.VibeCheck
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		c.log.Warn().Err(err).Msg("guest history corrupt, treating as empty")
		return []vibe.VibeCheck{}
	}
	if entries == nil {
		return []vibe.VibeCheck{}
	}
	return entries
}

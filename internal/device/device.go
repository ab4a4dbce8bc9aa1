package device

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/vibecheckapp/vibecheck-cli/internal/store"
)

// Prefix marks identifiers issued to guest installs.
const Prefix = "guest-"

// Identity issues and caches the stable per-install device identifier used
// to attribute guest usage server-side.
type Identity struct {
	kv  store.KV
	log zerolog.Logger

	mu     sync.Mutex
	cached string
}

// New creates an Identity backed by kv.
func New(kv store.KV, log zerolog.Logger) *Identity {
	return &Identity{kv: kv, log: log}
}

// GetOrCreate returns the persisted device identifier, generating and
// persisting one on first call. Persistence failures are not fatal: the
// generated identifier is kept in memory for the rest of the process and the
// failure is logged, so callers are never blocked on storage.
func (i *Identity) GetOrCreate(ctx context.Context) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cached != "" {
		return i.cached, nil
	}

	existing, ok, err := i.kv.Get(ctx, store.KeyDeviceID)
	if err != nil {
		i.log.Warn().Err(err).Msg("device id read failed, falling back to ephemeral identity")
	} else if ok && strings.HasPrefix(existing, Prefix) {
		i.cached = existing
		return existing, nil
	}

	id, err := generate()
	if err != nil {
		return "", err
	}

	if perr := i.kv.Set(ctx, store.KeyDeviceID, id); perr != nil {
		i.log.Warn().Err(perr).Msg("device id persist failed, identity is ephemeral for this process")
	}

	i.cached = id
	return id, nil
}

// generate builds a new identifier: the guest prefix plus a lowercase ULID.
func generate() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return Prefix + strings.ToLower(id.String()), nil
}

// Package ops implements the client operations shared by the CLI, the MCP
// server, and the web dashboard. Each operation takes an Env dependency
// bundle and an Input struct and returns an Output struct or a structured
// error.
package ops

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vibecheckapp/vibecheck-cli/internal/api"
	"github.com/vibecheckapp/vibecheck-cli/internal/device"
	"github.com/vibecheckapp/vibecheck-cli/internal/history"
	"github.com/vibecheckapp/vibecheck-cli/internal/quota"
	"github.com/vibecheckapp/vibecheck-cli/internal/session"
	"github.com/vibecheckapp/vibecheck-cli/internal/vibe"
)

// Pagination limits, matching the server's history handler.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Remote is the slice of the API client the operations need. *api.Client
// satisfies it; tests substitute fakes.
type Remote interface {
	CheckVibeGuest(ctx context.Context, moodText, deviceID string) (*vibe.VibeCheck, error)
	CheckVibe(ctx context.Context, moodText string) (*vibe.VibeCheck, error)
	Today(ctx context.Context) (*vibe.VibeCheck, error)
	History(ctx context.Context, limit, offset int) (*api.HistoryPage, error)
	Stats(ctx context.Context) (*vibe.Stats, error)
	Trend(ctx context.Context) ([]vibe.TrendPoint, error)
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

// Env bundles the dependencies the operations run against.
type Env struct {
	API     Remote
	Session *session.Manager
	Device  *device.Identity
	Quota   *quota.Counter
	History *history.Cache
	Log     zerolog.Logger

	submitting atomic.Bool
}

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// clampHistoryLimit applies the server's defaulting and ceiling rules.
func clampHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

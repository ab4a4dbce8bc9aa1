package ops

import (
	"context"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/session"
	"github.com/vibecheckapp/vibecheck-cli/internal/vibe"
)

// StatsOutput contains vibe statistics and where they were computed.
type StatsOutput struct {
	Stats  vibe.Stats `json:"stats"`
	Source string     `json:"source"`
}

// Stats returns streaks, totals, and averages. Guests get them computed
// locally from the cache; the signed-in path asks the server.
func Stats(ctx context.Context, env *Env) (*StatsOutput, error) {
	switch env.Session.Mode(ctx) {
	case session.ModeAuthenticated:
		stats, err := env.API.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return &StatsOutput{Stats: *stats, Source: "remote"}, nil
	case session.ModeGuest:
		return &StatsOutput{
			Stats:  vibe.ComputeStats(env.History.ReadAll(ctx)),
			Source: "local",
		}, nil
	default:
		return nil, errors.NewUnauthorized("")
	}
}

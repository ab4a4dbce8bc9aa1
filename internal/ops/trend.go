package ops

import (
	"context"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/session"
	"github.com/vibecheckapp/vibecheck-cli/internal/vibe"
)

// TrendOutput contains the score-over-time series, oldest first.
type TrendOutput struct {
	Points []vibe.TrendPoint `json:"points"`
	Source string            `json:"source"`
}

// Trend returns the vibe-score series for charting.
func Trend(ctx context.Context, env *Env) (*TrendOutput, error) {
	switch env.Session.Mode(ctx) {
	case session.ModeAuthenticated:
		points, err := env.API.Trend(ctx)
		if err != nil {
			return nil, err
		}
		return &TrendOutput{Points: points, Source: "remote"}, nil
	case session.ModeGuest:
		return &TrendOutput{
			Points: vibe.Trend(env.History.ReadAll(ctx)),
			Source: "local",
		}, nil
	default:
		return nil, errors.NewUnauthorized("")
	}
}

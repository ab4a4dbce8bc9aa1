package ops

import (
	"context"
	"time"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/session"
	"github.com/vibecheckapp/vibecheck-cli/internal/vibe"
)

// TodayOutput contains today's check, if one exists.
type TodayOutput struct {
	Check  *vibe.VibeCheck `json:"check"`
	Source string          `json:"source"`
}

// Today returns today's check or a nil Check when none was made yet. For
// guests the newest cached entry counts if it was made today (UTC days, same
// as the server).
func Today(ctx context.Context, env *Env) (*TodayOutput, error) {
	switch env.Session.Mode(ctx) {
	case session.ModeAuthenticated:
		check, err := env.API.Today(ctx)
		if err != nil {
			return nil, err
		}
		return &TodayOutput{Check: check, Source: "remote"}, nil
	case session.ModeGuest:
		out := &TodayOutput{Source: "local"}
		entries := env.History.ReadAll(ctx)
		if len(entries) > 0 && onDay(entries[0].CheckDate, time.Now().UTC()) {
			out.Check = &entries[0]
		}
		return out, nil
	default:
		return nil, errors.NewUnauthorized("")
	}
}

// onDay reports whether the ISO-8601 timestamp falls on the same UTC day as
// now.
func onDay(checkDate string, now time.Time) bool {
	t, err := time.Parse(time.RFC3339, checkDate)
	if err != nil {
		if t, err = time.Parse("2006-01-02", checkDate); err != nil {
			return false
		}
	}
	return t.UTC().Format("2006-01-02") == now.Format("2006-01-02")
}

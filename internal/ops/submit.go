package ops

import (
	"context"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/session"
	"github.com/vibecheckapp/vibecheck-cli/internal/vibe"
)

// SubmitInput contains parameters for the Submit operation.
type SubmitInput struct {
	MoodText string
}

// SubmitOutput contains the result of the Submit operation. Quota fields are
// only populated in guest mode.
type SubmitOutput struct {
	Check          vibe.VibeCheck `json:"check"`
	Mode           string         `json:"mode"`
	QuotaUsed      int            `json:"quota_used,omitempty"`
	QuotaRemaining int            `json:"quota_remaining,omitempty"`
}

// Submit runs one mood analysis. Only one submission may be in flight at a
// time; a second concurrent call fails fast with SUBMIT_IN_FLIGHT instead of
// queueing.
//
// The guest path charges the local counter only after the server accepted the
// submission, and the history entry is cached only after the charge: a failed
// request leaves both untouched, and a crash between the two steps loses a
// cache entry rather than a quota charge.
func Submit(ctx context.Context, env *Env, input SubmitInput) (*SubmitOutput, error) {
	moodText, err := vibe.ValidateMoodText(input.MoodText)
	if err != nil {
		return nil, err
	}

	if !env.submitting.CompareAndSwap(false, true) {
		return nil, errors.NewInFlight()
	}
	defer env.submitting.Store(false)

	mode := env.Session.Mode(ctx)
	switch mode {
	case session.ModeAuthenticated:
		return submitAuthed(ctx, env, moodText)
	case session.ModeGuest:
		return submitGuest(ctx, env, moodText)
	default:
		return nil, errors.NewUnauthorized("")
	}
}

func submitAuthed(ctx context.Context, env *Env, moodText string) (*SubmitOutput, error) {
	check, err := env.API.CheckVibe(ctx, moodText)
	if err != nil {
		return nil, err
	}
	return &SubmitOutput{
		Check: *check,
		Mode:  session.ModeAuthenticated.String(),
	}, nil
}

func submitGuest(ctx context.Context, env *Env, moodText string) (*SubmitOutput, error) {
	if !env.Quota.CanUse(ctx) {
		return nil, errors.NewQuotaExceeded(env.Quota.Count(ctx), env.Quota.Cap())
	}

	deviceID, err := env.Device.GetOrCreate(ctx)
	if err != nil {
		return nil, errors.NewNotReady("")
	}

	check, err := env.API.CheckVibeGuest(ctx, moodText, deviceID)
	if err != nil {
		return nil, err
	}
	if check.ID == "" {
		// Cached entries need an id so the dashboard and remove can address
		// them.
		if id, err := vibe.NewEntryID(); err == nil {
			check.ID = id
		}
	}

	used, err := env.Quota.Increment(ctx)
	if err != nil {
		// The server already accepted the check; a racy local refusal must
		// not discard the result.
		env.Log.Warn().Err(err).Msg("quota increment refused after accepted submission")
		used = env.Quota.Count(ctx)
	}
	if err := env.History.Prepend(ctx, *check); err != nil {
		env.Log.Warn().Err(err).Str("id", check.ID).Msg("history cache write failed")
	}

	return &SubmitOutput{
		Check:          *check,
		Mode:           session.ModeGuest.String(),
		QuotaUsed:      used,
		QuotaRemaining: env.Quota.Remaining(ctx),
	}, nil
}

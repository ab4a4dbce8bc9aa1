package ops

import (
	"context"
)

// StatusOutput reports the client's local state at a glance.
type StatusOutput struct {
	Mode               string `json:"mode"`
	DeviceID           string `json:"device_id,omitempty"`
	QuotaUsed          int    `json:"quota_used"`
	QuotaCap           int    `json:"quota_cap"`
	QuotaRemaining     int    `json:"quota_remaining"`
	CachedEntries      int    `json:"cached_entries"`
	OnboardingComplete bool   `json:"onboarding_complete"`
}

// Status summarizes session mode, device identity, quota, and cache state.
// It never fails: an unresolvable device id just leaves the field empty.
func Status(ctx context.Context, env *Env) *StatusOutput {
	out := &StatusOutput{
		Mode:               env.Session.Mode(ctx).String(),
		QuotaUsed:          env.Quota.Count(ctx),
		QuotaCap:           env.Quota.Cap(),
		QuotaRemaining:     env.Quota.Remaining(ctx),
		CachedEntries:      len(env.History.ReadAll(ctx)),
		OnboardingComplete: env.Session.OnboardingComplete(ctx),
	}
	if id, err := env.Device.GetOrCreate(ctx); err == nil {
		out.DeviceID = id
	}
	return out
}

package ops

import (
	"context"
	"strings"
	"testing"
	"time"

	apperrors "github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/quota"
	"github.com/vibecheckapp/vibecheck-cli/internal/vibe"
)

func TestStatus_FreshInstall(t *testing.T) {
	env, _ := newTestEnv(&fakeRemote{})

	out := Status(context.Background(), env)
	if out.Mode != "unauthenticated" {
		t.Errorf("mode = %q", out.Mode)
	}
	if out.QuotaUsed != 0 || out.QuotaCap != quota.DefaultCap || out.QuotaRemaining != quota.DefaultCap {
		t.Errorf("quota fields = %+v", out)
	}
	if out.CachedEntries != 0 {
		t.Errorf("cached entries = %d", out.CachedEntries)
	}
	if !strings.HasPrefix(out.DeviceID, "guest-") {
		t.Errorf("device id = %q", out.DeviceID)
	}
	if out.OnboardingComplete {
		t.Error("onboarding complete on fresh install")
	}
}

func TestStatus_GuestWithUsage(t *testing.T) {
	env, _ := newTestEnv(&fakeRemote{})
	asGuest(t, env)
	ctx := context.Background()

	if _, err := env.Quota.Increment(ctx); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := env.History.Prepend(ctx, *sampleCheck("v1")); err != nil {
		t.Fatalf("Prepend failed: %v", err)
	}

	out := Status(ctx, env)
	if out.Mode != "guest" || out.QuotaUsed != 1 || out.CachedEntries != 1 {
		t.Errorf("status = %+v", out)
	}
}

func TestStats_GuestComputesLocally(t *testing.T) {
	env, _ := newTestEnv(&fakeRemote{})
	asGuest(t, env)
	ctx := context.Background()

	for _, score := range []int{60, 80} {
		c := sampleCheck("v")
		c.VibeScore = score
		if err := env.History.Prepend(ctx, *c); err != nil {
			t.Fatalf("Prepend failed: %v", err)
		}
	}

	out, err := Stats(ctx, env)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if out.Source != "local" {
		t.Errorf("source = %q", out.Source)
	}
	if out.Stats.TotalChecks != 2 || out.Stats.AvgVibeScore != 70 {
		t.Errorf("stats = %+v", out.Stats)
	}
}

func TestStats_AuthenticatedUsesRemote(t *testing.T) {
	remote := &fakeRemote{statsResp: &vibe.Stats{TotalChecks: 40, TopAesthetic: "Cozy Era"}}
	env, _ := newTestEnv(remote)
	ctx := context.Background()
	if err := env.Session.LoginSucceeded(ctx, "at", "rt"); err != nil {
		t.Fatalf("LoginSucceeded failed: %v", err)
	}

	out, err := Stats(ctx, env)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if out.Source != "remote" || out.Stats.TotalChecks != 40 {
		t.Errorf("out = %+v", out)
	}
}

func TestTrend_GuestOldestFirst(t *testing.T) {
	env, _ := newTestEnv(&fakeRemote{})
	asGuest(t, env)
	ctx := context.Background()

	first := sampleCheck("old")
	first.VibeScore = 50
	second := sampleCheck("new")
	second.VibeScore = 90
	for _, c := range []*vibe.VibeCheck{first, second} {
		if err := env.History.Prepend(ctx, *c); err != nil {
			t.Fatalf("Prepend failed: %v", err)
		}
	}

	out, err := Trend(ctx, env)
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if len(out.Points) != 2 || out.Points[0].VibeScore != 50 || out.Points[1].VibeScore != 90 {
		t.Errorf("points = %+v, want oldest first", out.Points)
	}
}

func TestToday_GuestUsesNewestCachedEntry(t *testing.T) {
	env, _ := newTestEnv(&fakeRemote{})
	asGuest(t, env)
	ctx := context.Background()

	stale := sampleCheck("old")
	stale.CheckDate = "2020-01-01T10:00:00Z"
	if err := env.History.Prepend(ctx, *stale); err != nil {
		t.Fatalf("Prepend failed: %v", err)
	}

	out, err := Today(ctx, env)
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if out.Check != nil {
		t.Errorf("check = %+v, want nil for a stale entry", out.Check)
	}

	fresh := sampleCheck("now")
	fresh.CheckDate = time.Now().UTC().Format(time.RFC3339)
	if err := env.History.Prepend(ctx, *fresh); err != nil {
		t.Fatalf("Prepend failed: %v", err)
	}

	out, err = Today(ctx, env)
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if out.Check == nil || out.Check.ID != "now" {
		t.Errorf("check = %+v, want today's entry", out.Check)
	}
}

func TestToday_AuthenticatedNoCheckYet(t *testing.T) {
	env, _ := newTestEnv(&fakeRemote{})
	ctx := context.Background()
	if err := env.Session.LoginSucceeded(ctx, "at", "rt"); err != nil {
		t.Fatalf("LoginSucceeded failed: %v", err)
	}

	out, err := Today(ctx, env)
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if out.Check != nil || out.Source != "remote" {
		t.Errorf("out = %+v", out)
	}
}

func TestRemove(t *testing.T) {
	env, _ := newTestEnv(&fakeRemote{})
	asGuest(t, env)
	ctx := context.Background()

	if err := env.History.Prepend(ctx, *sampleCheck("v1")); err != nil {
		t.Fatalf("Prepend failed: %v", err)
	}

	out, err := Remove(ctx, env, RemoveInput{ID: "v1"})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !out.Removed {
		t.Error("Removed = false for existing entry")
	}

	out, err = Remove(ctx, env, RemoveInput{ID: "ghost"})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if out.Removed {
		t.Error("Removed = true for missing entry")
	}

	if _, err := Remove(ctx, env, RemoveInput{ID: "  "}); !apperrors.Is(err, apperrors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST for blank id", err)
	}
}

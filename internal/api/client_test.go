package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/vibecheckapp/vibecheck-cli/internal/errors"
)

type fakeCreds struct {
	access  string
	refresh string
	stored  int
}

func (f *fakeCreds) AccessToken(ctx context.Context) (string, bool, error) {
	return f.access, f.access != "", nil
}

func (f *fakeCreds) RefreshToken(ctx context.Context) (string, bool, error) {
	return f.refresh, f.refresh != "", nil
}

func (f *fakeCreds) StoreTokens(ctx context.Context, accessToken, refreshToken string) error {
	f.access = accessToken
	f.refresh = refreshToken
	f.stored++
	return nil
}

func newTestClient(url string, creds CredentialStore) *Client {
	return New(Options{
		BaseURL:     url,
		Timeout:     5 * time.Second,
		RetryBudget: 500 * time.Millisecond,
		Credentials: creds,
		Logger:      zerolog.Nop(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": true, "message": msg})
}

func TestCheckVibeGuest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/vibes/guest" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req guestCheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.MoodText != "feeling great" || req.DeviceID != "guest-abc123" {
			t.Errorf("request body = %+v", req)
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": "v1", "mood_text": req.MoodText, "aesthetic": "Chill Vibes",
			"vibe_score": 80, "emoji": "😌", "check_date": "2025-06-10T00:00:00Z",
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{})
	got, err := c.CheckVibeGuest(context.Background(), "feeling great", "guest-abc123")
	if err != nil {
		t.Fatalf("CheckVibeGuest failed: %v", err)
	}
	if got.ID != "v1" || got.VibeScore != 80 {
		t.Errorf("result = %+v", got)
	}
}

func TestCheckVibeGuest_ForbiddenIsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "free limit reached, sign up for unlimited vibes")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{})
	_, err := c.CheckVibeGuest(context.Background(), "mood", "guest-abc123")
	if !apperrors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("err = %v, want RATE_LIMITED", err)
	}
}

func TestCheckVibeGuest_TooManyRequestsIsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "slow down")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{})
	_, err := c.CheckVibeGuest(context.Background(), "mood", "guest-abc123")
	if !apperrors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("err = %v, want RATE_LIMITED", err)
	}
}

func TestCheckVibeGuest_BadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest, "mood_text and device_id are required")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{})
	_, err := c.CheckVibeGuest(context.Background(), "", "")
	if !apperrors.Is(err, apperrors.ErrInvalidRequest) {
		t.Fatalf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestCheckVibeGuest_TransportFailureIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(srv.URL, &fakeCreds{})
	_, err := c.CheckVibeGuest(context.Background(), "mood", "guest-abc123")
	if !apperrors.Is(err, apperrors.ErrNetwork) {
		t.Fatalf("err = %v, want NETWORK", err)
	}
}

func TestCheckVibeGuest_NeverRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusInternalServerError, "boom")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{})
	_, err := c.CheckVibeGuest(context.Background(), "mood", "guest-abc123")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("submission sent %d times, want exactly 1", got)
	}
}

func TestCheckVibe_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-access" {
			t.Errorf("Authorization = %q", got)
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": "v2", "check_date": "2025-06-10T00:00:00Z"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{access: "tok-access"})
	got, err := c.CheckVibe(context.Background(), "mood")
	if err != nil {
		t.Fatalf("CheckVibe failed: %v", err)
	}
	if got.ID != "v2" {
		t.Errorf("result = %+v", got)
	}
}

func TestCheckVibe_NoTokenIsUnauthorized(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0", &fakeCreds{})
	_, err := c.CheckVibe(context.Background(), "mood")
	if !apperrors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
}

func TestCheckVibe_RefreshOnceOn401(t *testing.T) {
	var submits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/vibes", func(w http.ResponseWriter, r *http.Request) {
		switch submits.Add(1) {
		case 1:
			if got := r.Header.Get("Authorization"); got != "Bearer stale" {
				t.Errorf("first attempt Authorization = %q", got)
			}
			writeError(w, http.StatusUnauthorized, "token expired")
		default:
			if got := r.Header.Get("Authorization"); got != "Bearer fresh" {
				t.Errorf("replay Authorization = %q", got)
			}
			writeJSON(w, http.StatusCreated, map[string]any{"id": "v3", "check_date": "2025-06-10T00:00:00Z"})
		}
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode refresh request: %v", err)
		}
		if req.RefreshToken != "refresh-1" {
			t.Errorf("refresh_token = %q", req.RefreshToken)
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "fresh", "refresh_token": "refresh-2"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := &fakeCreds{access: "stale", refresh: "refresh-1"}
	c := newTestClient(srv.URL, creds)

	got, err := c.CheckVibe(context.Background(), "mood")
	if err != nil {
		t.Fatalf("CheckVibe failed: %v", err)
	}
	if got.ID != "v3" {
		t.Errorf("result = %+v", got)
	}
	if submits.Load() != 2 {
		t.Errorf("submit attempts = %d, want 2", submits.Load())
	}
	if creds.access != "fresh" || creds.refresh != "refresh-2" {
		t.Errorf("rotated pair not persisted: %+v", creds)
	}
}

func TestCheckVibe_RefreshFailureReturnsUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/vibes", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "token expired")
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "refresh token revoked")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{access: "stale", refresh: "revoked"})
	_, err := c.CheckVibe(context.Background(), "mood")
	if !apperrors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
}

func TestToday_NotFoundMeansNoCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "No vibe check today")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{access: "tok"})
	got, err := c.Today(context.Background())
	if err != nil {
		t.Fatalf("Today failed: %v", err)
	}
	if got != nil {
		t.Errorf("Today = %+v, want nil", got)
	}
}

func TestHistory_PassesPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "5" || q.Get("offset") != "10" {
			t.Errorf("query = %v", q)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{"id": "h1", "check_date": "2025-06-10T00:00:00Z"}},
			"total": 42, "limit": 5, "offset": 10,
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{access: "tok"})
	page, err := c.History(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if page.Total != 42 || len(page.Data) != 1 || page.Data[0].ID != "h1" {
		t.Errorf("page = %+v", page)
	}
}

func TestStats_RetriesTransientServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeError(w, http.StatusInternalServerError, "transient")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"current_streak": 2, "longest_streak": 5, "total_checks": 9,
			"top_aesthetic": "Chill Vibes", "avg_vibe_score": 71.5,
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{access: "tok"})
	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalChecks != 9 || stats.AvgVibeScore != 71.5 {
		t.Errorf("stats = %+v", stats)
	}
	if calls.Load() < 2 {
		t.Errorf("calls = %d, want a retry after the 500", calls.Load())
	}
}

func TestStats_DoesNotRetryUnauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeError(w, http.StatusUnauthorized, "nope")
	}))
	defer srv.Close()

	// No refresh token, so the 401 is final.
	c := newTestClient(srv.URL, &fakeCreds{access: "tok"})
	_, err := c.Stats(context.Background())
	if !apperrors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Email != "a@b.co" || req.Password != "hunter22" {
			t.Errorf("request = %+v", req)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "at", "refresh_token": "rt",
			"user": map[string]any{"id": "u1", "email": "a@b.co"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{})
	out, err := c.Login(context.Background(), "a@b.co", "hunter22")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if out.AccessToken != "at" || out.User.Email != "a@b.co" {
		t.Errorf("response = %+v", out)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{})
	_, err := c.Login(context.Background(), "a@b.co", "wrong")
	if !apperrors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
}

func TestRegister_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusConflict, "email already registered")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{})
	_, err := c.Register(context.Background(), "a@b.co", "hunter22")
	if !apperrors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestLogout_NoRefreshTokenIsNoop(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0", &fakeCreds{})
	if err := c.Logout(context.Background()); err != nil {
		t.Errorf("Logout without refresh token should be a no-op, got: %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/auth/account" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "account deleted"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCreds{access: "tok"})
	if err := c.DeleteAccount(context.Background()); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
}

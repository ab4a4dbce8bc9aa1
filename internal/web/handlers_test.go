package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vibecheckapp/vibecheck-cli/internal/history"
	"github.com/vibecheckapp/vibecheck-cli/internal/store"
	"github.com/vibecheckapp/vibecheck-cli/internal/vibe"
)

func setupTest(t *testing.T) (*Server, *history.Cache) {
	t.Helper()
	hist := history.New(store.NewMemory(), zerolog.Nop())
	srv, err := New(hist, zerolog.Nop())
	if err != nil {
		t.Fatalf("web.New: %v", err)
	}
	return srv, hist
}

func seedEntry(t *testing.T, hist *history.Cache, id string) {
	t.Helper()
	err := hist.Prepend(context.Background(), vibe.VibeCheck{
		ID:           id,
		MoodText:     "tired but hopeful",
		Aesthetic:    "Cozy Era",
		ColorPrimary: "#92400e",
		VibeScore:    68,
		Emoji:        "☕",
		Insight:      "Your vibe is **Cozy Era** today.",
		CheckDate:    "2025-06-10T08:30:00Z",
	})
	if err != nil {
		t.Fatalf("seed entry %q: %v", id, err)
	}
}

func TestHandleList_Empty(t *testing.T) {
	srv, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No vibe checks cached yet") {
		t.Error("empty state message missing")
	}
}

func TestHandleList_ShowsEntries(t *testing.T) {
	srv, hist := setupTest(t)
	seedEntry(t, hist, "v1")

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(body, "Cozy Era") || !strings.Contains(body, "tired but hopeful") {
		t.Error("entry fields missing from list page")
	}
	if !strings.Contains(body, `/history/v1`) {
		t.Error("detail link missing")
	}
}

func TestHandleDetail_RendersInsightMarkdown(t *testing.T) {
	srv, hist := setupTest(t)
	seedEntry(t, hist, "v1")

	req := httptest.NewRequest(http.MethodGet, "/history/v1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(body, "<strong>Cozy Era</strong>") {
		t.Error("insight markdown not rendered to HTML")
	}
}

func TestHandleDetail_NotFound(t *testing.T) {
	srv, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/history/ghost", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDelete(t *testing.T) {
	srv, hist := setupTest(t)
	seedEntry(t, hist, "v1")

	req := httptest.NewRequest(http.MethodDelete, "/history/v1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out struct {
		Removed bool `json:"removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.Removed {
		t.Error("removed = false")
	}
	if got := len(hist.ReadAll(context.Background())); got != 0 {
		t.Errorf("entries = %d after delete, want 0", got)
	}
}

func TestHandleLegalPages(t *testing.T) {
	srv, _ := setupTest(t)

	for path, want := range map[string]string{
		"/legal/terms":   "Terms of Service",
		"/legal/privacy": "Privacy Policy",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("%s: %q missing from page", path, want)
		}
	}
}

func TestRootRedirectsToHistory(t *testing.T) {
	srv, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/history" {
		t.Errorf("Location = %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy missing")
	}
}

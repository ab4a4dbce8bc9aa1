package web

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vibecheckapp/vibecheck-cli/internal/errors"
	"github.com/vibecheckapp/vibecheck-cli/internal/history"
)

// Handlers holds dependencies for the dashboard handlers.
type Handlers struct {
	hist     *history.Cache
	log      zerolog.Logger
	renderer *Renderer
}

// HandleList renders the cached history, newest first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	entries := h.hist.ReadAll(r.Context())
	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{Title: "Vibe history", Nav: "history"},
		Entries:  entries,
	})
}

// HandleDetail renders one cached entry with its insight as markdown.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	for _, e := range h.hist.ReadAll(r.Context()) {
		if e.ID == id {
			h.renderer.renderPage(w, r, "detail", DetailPageData{
				PageData:    PageData{Title: e.Aesthetic, Nav: "history"},
				Entry:       e,
				InsightHTML: renderMarkdown(e.Insight),
			})
			return
		}
	}
	h.renderer.renderError(w, r, &errors.VibeError{
		Code:    errors.ErrInvalidRequest,
		Status:  http.StatusNotFound,
		Message: "entry not found",
	})
}

// HandleDelete removes a cached entry. Deleting an unknown id succeeds; the
// outcome the client asked for already holds.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.hist.Remove(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("dashboard delete failed")
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"id": id, "removed": true})
}

// HandleLegal renders an embedded legal markdown document.
func (h *Handlers) HandleLegal(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := legalFS.ReadFile("legal/" + name + ".md")
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInternal(err))
			return
		}
		title := "Terms of Service"
		if name == "privacy" {
			title = "Privacy Policy"
		}
		h.renderer.renderPage(w, r, "legal", LegalPageData{
			PageData: PageData{Title: title, Nav: name},
			BodyHTML: renderMarkdown(string(raw)),
		})
	}
}

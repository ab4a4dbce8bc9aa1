// Package web serves the local read-only dashboard over the guest history
// cache, plus the legal pages.
package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/vibecheckapp/vibecheck-cli/internal/history"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:embed legal/*.md
var legalFS embed.FS

// Server is the dashboard HTTP server.
type Server struct {
	hist    *history.Cache
	log     zerolog.Logger
	handler http.Handler
}

// New creates a Server over the local history cache.
func New(hist *history.Cache, log zerolog.Logger) (*Server, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	renderer := NewRenderer(templateSub)

	h := &Handlers{
		hist:     hist,
		log:      log,
		renderer: renderer,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/history", http.StatusFound)
	})
	mux.HandleFunc("GET /history", h.HandleList)
	mux.HandleFunc("GET /history/{id}", h.HandleDetail)
	mux.HandleFunc("DELETE /history/{id}", h.HandleDelete)
	mux.HandleFunc("GET /legal/terms", h.HandleLegal("terms"))
	mux.HandleFunc("GET /legal/privacy", h.HandleLegal("privacy"))

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return &Server{
		hist:    hist,
		log:     log,
		handler: securityHeaders(mux),
	}, nil
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr and shuts down gracefully on SIGINT/SIGTERM.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.handler,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info().Str("addr", addr).Msg("dashboard listening")
	if strings.Contains(addr, "0.0.0.0") || strings.Contains(addr, "::") {
		s.log.Warn().Msg("binding to all interfaces, dashboard may be reachable from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		s.log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Package ops serves health and runtime statistics over HTTP.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/aiftbot/core/buildinfo"
	"github.com/m3rciful/aiftbot/core/journal"
	"github.com/m3rciful/aiftbot/core/logger"
)

const component = "ops"

// Counter reports a live size, e.g. session or accumulator entries.
type Counter interface {
	Len() int
}

// SendStats reports outbound Telegram results.
type SendStats interface {
	SentCount() uint64
	ErrorCount() uint64
}

// JournalReader queries the dispatch journal.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	RouteCounts(ctx context.Context, since time.Time) ([]journal.RouteCount, error)
}

// Options wires the server. Journal and Sender are optional.
type Options struct {
	Listen      string
	Sessions    Counter
	Accumulator Counter
	Sender      SendStats
	Journal     JournalReader
}

// Stats is the /stats response body.
type Stats struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	UptimeSec   int64  `json:"uptime_sec"`
	Sessions    int    `json:"sessions"`
	Accumulated int    `json:"accumulated"`
	Sent        uint64 `json:"sent"`
	SendErrors  uint64 `json:"send_errors"`
}

// Server is the ops HTTP server.
type Server struct {
	opts    Options
	started time.Time
	now     func() time.Time
}

// New returns a Server; call Handler or Start.
func New(opts Options) *Server {
	return &Server{opts: opts, started: time.Now(), now: time.Now}
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/stats", s.handleStats)
	r.Route("/journal", func(r chi.Router) {
		r.Use(s.requireJournal)
		r.Get("/recent", s.handleRecent)
		r.Get("/routes", s.handleRoutes)
	})
	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info(ctx, component, "ops.start", slog.String("listen", s.opts.Listen))
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ops: shutdown: %w", err)
		}
		logger.Info(ctx, component, "ops.stop")
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("ops: serve: %w", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug(r.Context(), component, "http.request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", ww.Status()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Duration("duration", logger.Took(start)),
		)
	})
}

func (s *Server) requireJournal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Journal == nil {
			writeError(w, http.StatusNotFound, "journal disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	st := Stats{
		Version:   buildinfo.Version,
		Commit:    buildinfo.Commit,
		UptimeSec: int64(s.now().Sub(s.started) / time.Second),
	}
	if s.opts.Sessions != nil {
		st.Sessions = s.opts.Sessions.Len()
	}
	if s.opts.Accumulator != nil {
		st.Accumulated = s.opts.Accumulator.Len()
	}
	if s.opts.Sender != nil {
		st.Sent = s.opts.Sender.SentCount()
		st.SendErrors = s.opts.Sender.ErrorCount()
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be 1..500")
			return
		}
		limit = n
	}
	entries, err := s.opts.Journal.Recent(r.Context(), limit)
	if err != nil {
		logger.Warn(r.Context(), component, "journal.recent", slog.String("err", err.Error()))
		writeError(w, http.StatusInternalServerError, "journal query failed")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "since must be a positive duration")
			return
		}
		window = d
	}
	counts, err := s.opts.Journal.RouteCounts(r.Context(), s.now().Add(-window))
	if err != nil {
		logger.Warn(r.Context(), component, "journal.routes", slog.String("err", err.Error()))
		writeError(w, http.StatusInternalServerError, "journal query failed")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

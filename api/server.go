// Package api provides the HTTP server for NewsPulse.
//
// It exposes the comparative analysis pipeline, stored reports, narration
// audio and a WebSocket progress stream, and serves the embedded dashboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/newspulse/internal/comparative"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/datasource"
	"github.com/seenimoa/newspulse/internal/narration"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/report"
	"github.com/seenimoa/newspulse/internal/scheduler"
	"github.com/seenimoa/newspulse/internal/store"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/web"
)

// Analyzer is the part of the pipeline service the server drives.
type Analyzer interface {
	RunDetailed(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	Subscribe(fn pipeline.ProgressFunc)
	Store() store.ReportStore
	OpenAudio(ctx context.Context, ref string) (io.ReadCloser, error)
	SourceName() string
	AnnotatorName() string
}

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	svc       Analyzer
	wsHub     *WSHub
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
	serveUI   bool
	started   time.Time
}

// NewServer creates a server with all routes and middleware. Pipeline
// progress is forwarded to WebSocket clients.
func NewServer(cfg *config.Config, svc Analyzer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		wsHub:   NewWSHub(),
		logger:  logger.With("component", "api"),
		serveUI: true,
		started: time.Now(),
	}
	svc.Subscribe(func(ev pipeline.Progress) {
		s.wsHub.Broadcast(WSMessage{Type: "progress", Data: ev})
	})
	s.router = s.buildRouter()
	return s
}

// SetServeUI controls whether the embedded dashboard is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// SetScheduler exposes the watchlist scheduler's status.
func (s *Server) SetScheduler(sch *scheduler.Scheduler) {
	s.scheduler = sch
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.requestTimeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go s.wsHub.Run()
	defer s.wsHub.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) requestTimeout() time.Duration {
	if d := config.Seconds(s.cfg.API.TimeoutSec); d > 0 {
		return d
	}
	return 180 * time.Second
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Run-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// The WebSocket is long-lived and stays outside the timeout.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout()))

			r.Get("/health", s.handleHealth)
			r.Post("/analyze", s.handleAnalyze)

			r.Get("/reports", s.handleListReports)
			r.Get("/reports/{company}", s.handleGetReport)
			r.Get("/reports/{company}/html", s.handleReportHTML)

			r.Get("/audio", s.handleAudio)

			r.Get("/watchlist", s.handleWatchlist)

			r.Get("/config", s.handleGetConfig)
			r.Get("/config/keys", s.handleGetConfigKeys)
		})
	})

	if s.serveUI {
		s.mountSPA(r, web.DistFS())
	}
	return r
}

// mountSPA serves the embedded dashboard. Unknown paths fall back to
// index.html.
func (s *Server) mountSPA(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServer(http.FS(distFS))

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}
		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, distFS)
			return
		}
		f.Close()
		if strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		fileServer.ServeHTTP(w, r)
	})
}

func serveIndexHTML(w http.ResponseWriter, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "web UI not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Company  string `json:"company"`
	Articles int    `json:"articles,omitempty"`
}

// AnalyzeDetail wraps the payload with run metadata for ?detail=true.
type AnalyzeDetail struct {
	RunID   string           `json:"run_id"`
	Fetched int              `json:"fetched"`
	Dropped int              `json:"dropped"`
	Timings pipeline.Timings `json:"timings"`
	Report  report.Payload   `json:"report"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":     "ok",
			"source":     s.svc.SourceName(),
			"annotator":  s.svc.AnnotatorName(),
			"narration":  s.cfg.Narration.Enabled,
			"storage":    s.cfg.Storage.Backend,
			"ws_clients": s.wsHub.ClientCount(),
			"uptime":     time.Since(s.started).Round(time.Second).String(),
		},
	})
}

// handleAnalyze runs the pipeline and answers with the reference payload.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Company) == "" {
		writeError(w, http.StatusBadRequest, "company is required")
		return
	}
	if req.Articles < 0 {
		writeError(w, http.StatusBadRequest, "articles must not be negative")
		return
	}

	res, err := s.svc.RunDetailed(r.Context(), pipeline.Request{Company: req.Company, Articles: req.Articles})
	if err != nil {
		s.writeRunError(w, req.Company, err)
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "analysis_complete",
		Data: map[string]any{
			"run_id":   res.RunID,
			"company":  res.Report.Subject,
			"dominant": res.Report.DominantSentiment,
			"verdict":  res.Report.Verdict,
		},
	})

	w.Header().Set("X-Run-ID", res.RunID)
	payload := report.NewPayload(res.Report)
	if detail, _ := strconv.ParseBool(r.URL.Query().Get("detail")); detail {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: AnalyzeDetail{
			RunID:   res.RunID,
			Fetched: res.Fetched,
			Dropped: res.Dropped,
			Timings: res.Timings,
			Report:  payload,
		}})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// writeRunError maps pipeline errors onto status codes.
func (s *Server) writeRunError(w http.ResponseWriter, company string, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNoArticles):
		writeError(w, http.StatusNotFound, "No articles found for "+strings.TrimSpace(company))
	case errors.Is(err, datasource.ErrEmptyCompany):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, comparative.ErrDataContractViolation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("analysis failed", "company", company, "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed: "+err.Error())
	}
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Store()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "report storage is disabled")
		return
	}
	keys, err := st.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: keys})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.NewPayload(rep))
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	cfg := report.DefaultConfig()
	if rep.NarrationAvailable() {
		cfg.AudioURL = "/api/v1/audio?ref=" + url.QueryEscape(rep.NarrationReference)
	}
	html, err := report.GenerateHTML(rep, cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, html) //nolint:errcheck
}

func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (*models.ComparativeReport, bool) {
	st := s.svc.Store()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "report storage is disabled")
		return nil, false
	}
	company := chi.URLParam(r, "company")
	rep, err := st.Get(r.Context(), company)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "no report for "+company)
		return nil, false
	case errors.Is(err, store.ErrEmptyKey):
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return rep, true
}

// handleAudio streams narration audio by reference.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" || ref == models.NarrationUnavailable {
		writeError(w, http.StatusBadRequest, "ref is required")
		return
	}
	rc, err := s.svc.OpenAudio(r.Context(), ref)
	switch {
	case errors.Is(err, pipeline.ErrNarrationDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, narration.ErrInvalidReference):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, narration.ErrAudioNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("audio stream interrupted", "ref", ref, "error", err)
	}
}

// WatchlistStatus is the body of GET /api/v1/watchlist.
type WatchlistStatus struct {
	Enabled   bool              `json:"enabled"`
	Schedule  string            `json:"schedule,omitempty"`
	Companies []string          `json:"companies,omitempty"`
	Next      *time.Time        `json:"next,omitempty"`
	LastRun   *time.Time        `json:"last_run,omitempty"`
	Succeeded []string          `json:"succeeded,omitempty"`
	Failed    map[string]string `json:"failed,omitempty"`
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: WatchlistStatus{}})
		return
	}
	st := WatchlistStatus{
		Enabled:   true,
		Schedule:  s.cfg.Watchlist.Schedule,
		Companies: s.scheduler.Companies(),
	}
	if next := s.scheduler.Next(); !next.IsZero() {
		st.Next = &next
	}
	if last := s.scheduler.Last(); last != nil {
		st.LastRun = &last.Started
		st.Succeeded = last.Succeeded
		st.Failed = make(map[string]string, len(last.Failed))
		for c, err := range last.Failed {
			st.Failed[c] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: st})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// Addr formats host and port for ListenAndServe.
func Addr(cfg config.APIConfig) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

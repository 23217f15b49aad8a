// Package server exposes the render pipeline over HTTP.
//
// Routes:
//
//	GET /healthz                  liveness and build info
//	GET /render.{format}          render the fractal (png, bmp, tiff)
//	GET /runs?limit=N             recent run records, newest first
//	GET /runs/{id}                one run record
//
// /render accepts the query parameters strategy, n, max_iter, size and
// refresh. The domain is fixed by the server's configuration; only the
// resolution and iteration budget vary per request.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/newton/pkg/buildinfo"
	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/executor"
	"github.com/matzehuels/newton/pkg/observability"
	"github.com/matzehuels/newton/pkg/pipeline"
	"github.com/matzehuels/newton/pkg/render"
	"github.com/matzehuels/newton/pkg/store"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Config configures the server.
type Config struct {
	Addr         string
	MaxN         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxConcurrent bounds simultaneous renders. Zero means 4.
	MaxConcurrent int

	// Defaults are the pipeline options requests start from.
	Defaults pipeline.Options
}

// Server serves the HTTP API.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	pool   *executor.WorkerPool
	logger *log.Logger
	router chi.Router
}

// New creates a server. Accelerated renders share one worker pool, released
// by Close.
func New(runner *pipeline.Runner, cfg Config, logger *log.Logger) *Server {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		pool:   executor.NewWorkerPool(cfg.Defaults.Workers),
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.With(middleware.Throttle(s.cfg.MaxConcurrent)).Get("/render.{format}", s.handleRender)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Get("/{id}", s.handleGetRun)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// Close releases the worker pool.
func (s *Server) Close() {
	s.pool.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, err)
		return
	}
	opts, err := s.renderOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []render.Format{format}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	data := result.Artifacts[format]
	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("X-Result-Hash", result.ResultHash)
	h.Set("X-Strategy", result.Stats.Strategy)
	h.Set("X-Cache", cacheStatus(result.CacheInfo.ComputeHit))
	if !result.CacheInfo.ComputeHit {
		h.Set("X-Compute-Millis", strconv.FormatInt(result.Stats.ComputeTime.Milliseconds(), 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) renderOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.cfg.Defaults
	opts.Pool = s.pool
	opts.Logger = s.logger.With("request_id", RequestIDFrom(r.Context()))

	q := r.URL.Query()
	if v := q.Get("strategy"); v != "" {
		kind, err := executor.ParseKind(v)
		if err != nil {
			return opts, err
		}
		opts.Strategy = kind
	}
	if v := q.Get("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > s.cfg.MaxN {
			return opts, errors.New(errors.ErrCodeInvalidGrid, "n must be an integer in [1, %d], got %q", s.cfg.MaxN, v)
		}
		opts.Grid.N = n
	}
	if v := q.Get("max_iter"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 0 || m > 1<<16 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "max_iter must be an integer in [0, 65536], got %q", v)
		}
		opts.Kernel.MaxIter = m
	}
	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 0 || size > s.cfg.MaxN {
			return opts, errors.New(errors.ErrCodeInvalidInput, "size must be an integer in [0, %d], got %q", s.cfg.MaxN, v)
		}
		opts.Size = size
	}
	if v := q.Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "refresh must be a boolean, got %q", v)
		}
		opts.Refresh = refresh
	}
	return opts, nil
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 1000 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be an integer in [0, 1000], got %q", v))
			return
		}
		limit = n
	}
	runs, err := s.runner.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "run id %q is not a uuid", id))
		return
	}
	rec, err := s.runner.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, statusFor(err), errorBody{Error: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type ctxKey struct{}

// requestID propagates the caller's X-Request-ID or assigns a new uuid.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestIDFrom returns the request ID stored in ctx.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// instrument logs every request and emits HTTP hooks.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", RequestIDFrom(r.Context()))
	})
}

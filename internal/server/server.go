// Package server exposes a dashboard session over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ppiankov/schooldash/internal/chart"
	"github.com/ppiankov/schooldash/internal/locale"
	"github.com/ppiankov/schooldash/internal/pipeline"
	"github.com/ppiankov/schooldash/internal/view"
)

// Options configures the HTTP surface
type Options struct {
	AllowedOrigins []string
	Preferences    *locale.Preferences // Optional; locale changes are persisted when set
	StaticDir      string              // Optional directory served at the root
	Logger         *zap.Logger
}

// Server serves the dashboard API for one session
type Server struct {
	session *pipeline.Pipeline
	prefs   *locale.Preferences
	logger  *zap.Logger
	handler http.Handler
}

// New builds the router for session
func New(session *pipeline.Pipeline, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		session: session,
		prefs:   opts.Preferences,
		logger:  logger,
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:         86400,
	})

	r := mux.NewRouter()
	r.Use(recoveryMiddleware(logger))
	r.Use(loggingMiddleware(logger))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dataset", s.handleDataset).Methods(http.MethodGet)
	api.HandleFunc("/views", s.handleViews).Methods(http.MethodGet)
	api.HandleFunc("/views/{category}", s.handleView).Methods(http.MethodGet)
	api.HandleFunc("/views/{category}/chart", s.handleChart).Methods(http.MethodGet)
	api.HandleFunc("/summary/{category}", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/locale", s.handleGetLocale).Methods(http.MethodGet)
	api.HandleFunc("/locale", s.handleSetLocale).Methods(http.MethodPut)

	if opts.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(opts.StaticDir)))
	}

	s.handler = corsHandler.Handler(r)
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on ln until ctx ends, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"session": s.session.ID(),
		"loaded":  s.session.Dataset() != nil,
	})
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	ds := s.session.Dataset()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, pipeline.ErrNotLoaded.Error())
		return
	}
	meta := s.session.Meta()
	writeJSON(w, http.StatusOK, map[string]any{
		"session":    s.session.ID(),
		"updated_at": ds.UpdatedAt,
		"loaded_at":  s.session.LoadedAt(),
		"records":    ds.Len(),
		"faults":     len(s.session.Faults()),
		"from_cache": meta.FromCache,
		"locale":     s.session.Dictionary().Tag,
	})
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Category int    `json:"category"`
		Name     string `json:"name"`
		Title    string `json:"title"`
	}
	var out []entry
	for _, sel := range view.Selections() {
		name := view.RecipeFor(sel).Name
		out = append(out, entry{Category: int(sel), Name: name, Title: s.session.Title(name)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	res, ok := s.selectView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": int(res.View.Selection),
		"name":     res.View.Recipe,
		"summary":  res.Summary,
		"chart":    present(res.View.Chart.Intent(), s.session),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	res, ok := s.selectView(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", res.View.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.View.Image)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.View.Image); err != nil {
		s.logger.Warn("Failed to write chart", zap.String("view", res.View.Recipe), zap.Error(err))
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	n := category(r)
	text, err := s.session.Summary(n)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": int(view.ParseSelection(n)),
		"summary":  text,
	})
}

func (s *Server) handleGetLocale(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"locale":    s.session.Dictionary().Tag,
		"supported": locale.Supported(),
	})
}

func (s *Server) handleSetLocale(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Locale string `json:"locale"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tag, err := locale.ParseTag(body.Locale)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dict, err := locale.Load(tag)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.prefs != nil {
		if err := s.prefs.SetLocale(tag); err != nil {
			s.logger.Error("Failed to persist locale", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to persist locale")
			return
		}
	}

	s.session.SetDictionary(dict)
	reloaded := s.session.Load(r.Context()) == nil

	writeJSON(w, http.StatusOK, map[string]any{
		"locale":   tag,
		"reloaded": reloaded,
	})
}

func (s *Server) selectView(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	res, err := s.session.Select(r.Context(), category(r))
	if err != nil {
		s.writeSessionError(w, err)
		return nil, false
	}
	return res, true
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNotLoaded), errors.Is(err, view.ErrNoDataset):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, chart.ErrNoData):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// category reads the view number from the path; unparseable input maps to the default view
func category(r *http.Request) int {
	n, _ := strconv.Atoi(mux.Vars(r)["category"])
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"error":     message,
		"code":      code,
		"status":    http.StatusText(code),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

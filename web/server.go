// ABOUTME: HTTP console server: the console page, a JSON view API, live view push over SSE,
// ABOUTME: and rate-limited start/stop/clear actions behind a single chi router.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/2389-research/streamconsole/console"
	"github.com/2389-research/streamconsole/render"
	"github.com/2389-research/streamconsole/sse"
)

// maxActionBody caps the size of a start/stop/clear request body.
const maxActionBody = 64 << 10

// Controller is the session surface the server drives. *console.Session implements it.
type Controller interface {
	Start(prompt string) bool
	Stop()
	Clear()
	Snapshot() console.Snapshot
	Subscribe() (<-chan console.Snapshot, func())
}

var _ Controller = (*console.Session)(nil)

// ServerConfig holds the configuration for the console server.
type ServerConfig struct {
	Addr           string              // listen address (default: "127.0.0.1:8080")
	StreamURL      string              // shown on the page
	Examples       []string            // canned prompts
	RatePerMinute  int                 // per-IP limit on action endpoints; 0 disables
	RenderCacheTTL time.Duration       // lifetime of cached markdown renders; 0 keeps them until Clear
	Gatherer       prometheus.Gatherer // served on /metrics; prometheus.DefaultGatherer when nil
	Logger         zerolog.Logger
	Heartbeat      time.Duration // SSE keep-alive interval (default: 15s)
}

// Server is the web console for one session.
type Server struct {
	session   Controller
	templates *TemplateEngine
	cache     *render.Cache
	projector console.Projector
	router    chi.Router
	cfg       ServerConfig
	log       zerolog.Logger
}

// NewServer creates a Server over session and sets up routing.
func NewServer(session Controller, cfg ServerConfig) (*Server, error) {
	if session == nil {
		return nil, errors.New("session must not be nil")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 15 * time.Second
	}

	tmpl, err := NewTemplateEngine()
	if err != nil {
		return nil, fmt.Errorf("initializing templates: %w", err)
	}

	cache := render.NewCache(render.Markdown, cfg.RenderCacheTTL)
	s := &Server{
		session:   session,
		templates: tmpl,
		cache:     cache,
		projector: console.Projector{Markdown: cache.Markdown},
		cfg:       cfg,
		log:       cfg.Logger,
	}
	s.router = s.buildRouter()
	return s, nil
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully. WriteTimeout stays zero because the view
// stream is long-lived.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("web console listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	return nil
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))

	staticFS, err := fs.Sub(StaticFS, "static")
	if err != nil {
		s.log.Warn().Err(err).Msg("static assets unavailable")
	} else {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Get("/fragments/output", s.handleOutputFragment)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/view/stream", s.handleViewStream)
		r.Get("/examples", s.handleExamples)

		r.Group(func(r chi.Router) {
			if s.cfg.RatePerMinute > 0 {
				r.Use(rateLimit(s.cfg.RatePerMinute, time.Minute))
			}
			r.Post("/start", s.handleStart)
			r.Post("/stop", s.handleStop)
			r.Post("/clear", s.handleClear)
		})
	})

	return r
}

// rateLimit limits requests per client IP with a JSON 429 response.
func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":  "rate_limit_exceeded",
				"detail": "Too many requests. Please try again later.",
			})
		}),
	)
}

// currentView projects the session's current snapshot. Cached renders whose
// lifetime has passed are dropped first.
func (s *Server) currentView() console.ViewModel {
	s.cache.Prune()
	return s.projector.Project(s.session.Snapshot())
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := PageData{
		Title:     "Console",
		View:      s.currentView(),
		Examples:  s.cfg.Examples,
		StreamURL: s.cfg.StreamURL,
	}
	if err := s.templates.Render(w, "console.html", data); err != nil {
		s.log.Error().Err(err).Msg("rendering console page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOutputFragment(w http.ResponseWriter, r *http.Request) {
	html, err := s.templates.Fragment("output", s.currentView())
	if err != nil {
		s.log.Error().Err(err).Msg("rendering output fragment")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	examples := s.cfg.Examples
	if examples == nil {
		examples = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"examples": examples})
}

// viewPush is the payload of one "view" event on the live stream.
type viewPush struct {
	Status      console.Status   `json:"status"`
	StatusLabel string           `json:"status_label"`
	StatusClass console.Category `json:"status_class"`
	HTML        string           `json:"html"`
}

// handleViewStream pushes a "view" event with the rendered output fragment
// after every session change, starting with the current state. The stream
// ends when the client disconnects or the session is closed.
func (s *Server) handleViewStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates, unsubscribe := s.session.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	var seq int
	push := func(snap console.Snapshot) bool {
		seq++
		frame, err := s.viewFrame(snap, seq)
		if err != nil {
			s.log.Error().Err(err).Msg("rendering view push")
			return false
		}
		if _, err := io.WriteString(w, frame); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !push(s.session.Snapshot()) {
		return
	}

	heartbeat := time.NewTicker(s.cfg.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if !push(snap) {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// viewFrame re-projects the whole output card for every push. Markdown for
// events already shown comes from the render cache, so each event is
// converted once per stream and later pushes only pay for templating.
func (s *Server) viewFrame(snap console.Snapshot, seq int) (string, error) {
	vm := s.projector.Project(snap)
	html, err := s.templates.Fragment("output", vm)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(viewPush{
		Status:      vm.Status,
		StatusLabel: vm.StatusLabel,
		StatusClass: vm.StatusClass,
		HTML:        html,
	})
	if err != nil {
		return "", fmt.Errorf("encoding view push: %w", err)
	}
	return sse.Message{Event: "view", ID: strconv.Itoa(seq), Data: string(data), Retry: -1}.Format(), nil
}

type actionRequest struct {
	Prompt string `json:"prompt"`
}

type actionResponse struct {
	Started bool              `json:"started"`
	View    console.ViewModel `json:"view"`
}

// handleStart starts a stream from a JSON or form prompt. A blank prompt is
// not an error; the response reports started=false and the state is unchanged.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	prompt, err := readPrompt(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	started := s.session.Start(prompt)
	s.respondAction(w, r, started)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.session.Stop()
	s.respondAction(w, r, false)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.session.Clear()
	s.cache.Clear()
	s.respondAction(w, r, false)
}

// respondAction answers JSON clients with the new view and redirects plain
// form posts back to the page.
func (s *Server) respondAction(w http.ResponseWriter, r *http.Request, started bool) {
	if isFormPost(r) && !wantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Started: started, View: s.currentView()})
}

func readPrompt(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxActionBody)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("decoding request: %w", err)
		}
		return req.Prompt, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("parsing form: %w", err)
	}
	return r.FormValue("prompt"), nil
}

func isFormPost(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

func wantsJSON(r *http.Request) bool {
	for _, v := range r.Header.Values("Accept") {
		for _, part := range strings.Split(v, ",") {
			if mt, _, err := mime.ParseMediaType(strings.TrimSpace(part)); err == nil && mt == "application/json" {
				return true
			}
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

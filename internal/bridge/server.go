// Package bridge is the presentation boundary: a loopback HTTP and websocket API
// that the local renderer drives. All engine calls are serialized.
package bridge

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/message"

	"github.com/p-n-ai/pai-tutorial/internal/quiz"
	"github.com/p-n-ai/pai-tutorial/internal/tutorial"
	"github.com/p-n-ai/pai-tutorial/internal/view"
)

// RequestObserver records per-request metrics.
type RequestObserver interface {
	ObserveRequest(route string, status int)
}

// Config holds dependencies for the bridge.
type Config struct {
	Engine   *tutorial.Engine
	Printer  *message.Printer            // defaults to English
	Metrics  http.Handler                // served on /metrics when set
	Observer RequestObserver             // optional
	Ready    func(context.Context) error // readiness probe, defaults to always ready
}

// Server serves the tutorial API.
type Server struct {
	mu       sync.Mutex
	engine   *tutorial.Engine
	printer  *message.Printer
	metrics  http.Handler
	observer RequestObserver
	ready    func(context.Context) error
	hub      *hub
}

// response is the body of every successful mutation.
type response struct {
	View       view.ViewModel `json:"view"`
	Result     *quiz.Result   `json:"result,omitempty"`
	Action     string         `json:"action,omitempty"`
	NextModule int            `json:"nextModule,omitempty"`
	AllDone    bool           `json:"allDone,omitempty"`
}

// New creates the bridge and subscribes it to engine transitions.
func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("bridge requires an engine")
	}
	s := &Server{
		engine:   cfg.Engine,
		printer:  cfg.Printer,
		metrics:  cfg.Metrics,
		observer: cfg.Observer,
		ready:    cfg.Ready,
		hub:      newHub(),
	}
	if s.printer == nil {
		s.printer = view.NewPrinter("en")
	}
	if s.ready == nil {
		s.ready = func(context.Context) error { return nil }
	}

	s.mu.Lock()
	s.engine.Subscribe(func(snap tutorial.Snapshot) {
		s.hub.broadcast(view.Render(snap, s.engine.Catalog(), s.printer))
	})
	s.mu.Unlock()
	return s, nil
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /ws", s.handleWebsocket)

	mux.HandleFunc("POST /api/modules/{id}/start", s.withModuleID(s.engine.StartModule))
	mux.HandleFunc("POST /api/modules/{id}/retake", s.withModuleID(s.engine.RetakeQuiz))
	mux.HandleFunc("POST /api/modules/back", s.handleBack)
	mux.HandleFunc("POST /api/modules/continue", s.handleContinue)

	mux.HandleFunc("POST /api/steps/next", s.simple(s.engine.NextStep))
	mux.HandleFunc("POST /api/steps/previous", s.simple(s.engine.PreviousStep))
	mux.HandleFunc("POST /api/steps/{index}", s.withIndex(s.engine.JumpToStep))

	mux.HandleFunc("POST /api/quiz/options/{index}", s.withIndex(s.engine.SelectAnswer))
	mux.HandleFunc("POST /api/quiz/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/quiz/advance", s.simple(s.engine.AdvanceQuiz))
	mux.HandleFunc("POST /api/quiz/activate", s.handleActivate)

	mux.HandleFunc("POST /api/reset", s.handleReset)

	return s.observe(mux)
}

// View renders the current view model.
func (s *Server) View() view.ViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render()
}

func (s *Server) render() view.ViewModel {
	return view.Render(s.engine.Snapshot(), s.engine.Catalog(), s.printer)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		slog.Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.View())
}

// simple adapts an engine operation without arguments.
func (s *Server) simple(op func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := op(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response{View: s.render()})
	}
}

func (s *Server) withModuleID(op func(int) error) http.HandlerFunc {
	return s.withPathInt("id", op)
}

func (s *Server) withIndex(op func(int) error) http.HandlerFunc {
	return s.withPathInt("index", op)
}

func (s *Server) withPathInt(name string, op func(int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.PathValue(name))
		if err != nil {
			writeError(w, fmt.Errorf("%w: %s must be a number", errBadRequest, name))
			return
		}
		s.simple(func() error { return op(n) })(w, r)
	}
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.simple(func() error {
		s.engine.BackToModules()
		return nil
	})(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.simple(func() error {
		s.engine.ResetAll()
		return nil
	})(w, r)
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, allDone, err := s.engine.ContinueToNextModule()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{View: s.render(), NextModule: next, AllDone: allDone})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.engine.SubmitAnswer()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{View: s.render(), Result: &res})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	action, res, err := s.engine.Activate()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{View: s.render(), Result: res, Action: actionName(action)})
}

func actionName(a quiz.Action) string {
	switch a {
	case quiz.Advanced:
		return "advanced"
	case quiz.Completed:
		return "completed"
	default:
		return "submitted"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is needed for the websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func (s *Server) observe(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		slog.Debug("bridge request", "route", route, "status", rec.status)
		if s.observer != nil {
			s.observer.ObserveRequest(route, rec.status)
		}
	})
}

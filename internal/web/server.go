package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/example/checkin-scheduler/internal/scheduler"
	"github.com/example/checkin-scheduler/internal/southwest"
)

const maxEventBytes = 64 << 10

type Runner interface {
	Run(ctx context.Context, h southwest.Handle) (scheduler.Report, error)
}

// Server exposes the push trigger. Auth, when set, wraps /trigger. A nil
// Runner leaves the route answering 503.
type Server struct {
	Runner Runner
	Auth   func(http.Handler) http.Handler
	Log    zerolog.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.Log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if s.Auth != nil {
			r.Use(s.Auth)
		}
		r.Post("/trigger", s.handleTrigger)
	})

	return r
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if s.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, "trigger disabled")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "event too large")
		return
	}
	ev, err := DecodeEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ev.IsPriming() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "primed"})
		return
	}

	h := ev.Handle()
	if err := h.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.Runner.Run(r.Context(), h)
	if err != nil {
		s.Log.Error().Err(err).Str("reservation", h.Number).Msg("trigger run failed")
		status := http.StatusBadGateway
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, NewReportView(rep))
}

func LoggingMiddleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// Start serves h until ctx is done, then shuts down gracefully. Runs still in
// flight get the shutdown grace period to finish.
func Start(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("starting HTTP server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

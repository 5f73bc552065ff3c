package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/usecase"
)

// SessionReader exposes a chat's current session.
type SessionReader interface {
	Session(ctx context.Context, chatID int64) (model.Session, error)
}

// Server is the admin HTTP surface: health, metrics and the order desk.
type Server struct {
	orders   usecase.OrderUseCase
	sessions SessionReader
	auth     *AuthManager
	checks   []HealthCheck
	log      *zerolog.Logger

	srv *http.Server
}

func NewServer(orders usecase.OrderUseCase, sessions SessionReader, auth *AuthManager, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{orders: orders, sessions: sessions, auth: auth, log: &l}
}

// HealthCheck probes one dependency for /readyz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func (s *Server) WithHealthChecks(checks ...HealthCheck) *Server {
	s.checks = append(s.checks, checks...)
	return s
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(TraceID, Recover(s.log), RequestLog(s.log), Timeout(10*time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/readyz", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/orders", s.listOrders)
		r.Get("/orders/{id}", s.getOrder)
		r.Post("/orders/{id}/contacted", s.markContacted)
		r.Get("/sessions/{chatID}", s.getSession)
	})
	return r
}

// ListenAndServe blocks until ctx is done, then drains for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", port).Msg("admin API listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// ready answers 503 when any dependency probe fails.
func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	results := make(map[string]string, len(s.checks))
	status := http.StatusOK
	for _, c := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := c.Check(ctx)
		cancel()
		if err != nil {
			status = http.StatusServiceUnavailable
			results[c.Name] = err.Error()
			s.log.Warn().Err(err).Str("check", c.Name).Msg("readiness probe failed")
			continue
		}
		results[c.Name] = "ok"
	}
	writeJSON(w, status, map[string]any{"checks": results})
}

// Package server exposes the chat service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ollama-chatbot/internal/domain"
	"ollama-chatbot/internal/usecase"
	"ollama-chatbot/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// ChatService is the orchestrator the HTTP surface is bound to.
type ChatService interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	History(ctx context.Context, userID string) ([]domain.ChatTurn, error)
}

// Server routes HTTP requests to the chat service.
type Server struct {
	chat   ChatService
	log    *zap.Logger
	router chi.Router
}

// New creates a Server with its routes and middleware installed.
func New(chat ChatService, log *zap.Logger) (*Server, error) {
	if chat == nil {
		return nil, errors.New("server: chat service must not be nil")
	}
	s := &Server{chat: chat, log: logger.OrNop(log)}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogging(s.log))
	r.Use(recoverer(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With", correlationHeader},
		ExposedHeaders: []string{correlationHeader},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Post("/chat", s.handleChat)
	r.Get("/history", s.handleHistory)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on srv until ctx is cancelled, then shuts down
// gracefully. srv.Handler is replaced by s.
func (s *Server) ListenAndServe(ctx context.Context, srv *http.Server) error {
	srv.Handler = s
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

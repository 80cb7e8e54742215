// Package server serves the viewer page: an upload form that processes each
// submitted workbook independently and renders the results.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/KaramelBytes/plmview-cli/internal/report"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const readHeaderTimeout = 5 * time.Second

// Options configures the server.
type Options struct {
	Addr            string
	MaxUploadMB     int
	Report          report.Options
	ShutdownTimeout time.Duration
}

func (o Options) maxUploadBytes() int64 { return int64(o.MaxUploadMB) << 20 }

// Server holds no per-upload state; every request is handled on its own.
type Server struct {
	opt     Options
	log     *zap.Logger
	metrics *metrics
	router  chi.Router
}

// New builds a server with its routes registered.
func New(opt Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opt.MaxUploadMB <= 0 {
		opt.MaxUploadMB = 200
	}
	if opt.ShutdownTimeout <= 0 {
		opt.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{opt: opt, log: log, metrics: newMetrics()}
	r := chi.NewRouter()
	s.RegisterRoutes(r)
	s.router = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on Options.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.opt.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opt.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("http server shutdown", zap.Error(err))
		}
	}()

	s.log.Info("http server started", zap.String("address", s.opt.Addr))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}

	s.log.Info("http server stopped", zap.String("address", s.opt.Addr))
	return nil
}

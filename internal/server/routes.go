package server

import (
	"errors"
	"net/http"

	"github.com/KaramelBytes/plmview-cli/internal/plm"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const uploadPath = "/upload"

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.requestLogging)
	r.Use(s.recovery)

	r.Get("/", s.page(s.getIndex))
	r.Post(uploadPath, s.page(s.postUpload))
	r.Get("/healthz", s.getHealthz)
	r.Handle("/metrics", s.metrics.handler())
}

// pageError carries the status to render an error page with.
type pageError struct {
	status int
	err    error
}

func (e *pageError) Error() string { return e.err.Error() }

func (e *pageError) Unwrap() error { return e.err }

// page adapts a handler returning an error; errors are rendered as the
// viewer page with an alert and no results.
func (s *Server) page(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		status := http.StatusInternalServerError
		var pe *pageError
		var le *plm.LoadError
		switch {
		case errors.As(err, &pe):
			status = pe.status
		case errors.As(err, &le):
			status = http.StatusUnprocessableEntity
		}
		if status >= http.StatusInternalServerError {
			logger(r.Context()).Error("request failed", zap.Error(err))
		}
		s.render(w, r, status, s.newPage(err.Error()))
	}
}

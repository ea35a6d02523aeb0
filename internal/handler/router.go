package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logger writes one structured access log line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// NewRouter wires the registration API onto a chi router.
func NewRouter(h *RegistrationHandler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(logger))

	r.Get("/health", HealthCheck)

	r.Route("/events/{uid}", func(r chi.Router) {
		r.Get("/statistics", h.Statistics)
		r.Get("/registrations", h.ListRegistrations)
		r.Post("/registrations", h.Register)
	})
	r.Route("/registrations/{ref}", func(r chi.Router) {
		r.Post("/regular", h.ConvertToRegular)
		r.Post("/waiting-list", h.MoveToWaitingList)
	})

	return r
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"pgdeck/internal/middleware"
)

// RouterConfig carries the transport settings.
type RouterConfig struct {
	AllowedOrigins []string
	AppEnv         string
	APISecret      string
}

// NewRouter mounts every endpoint on a chi mux.
func NewRouter(h *Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewMux()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.RequestLogger(logger),
		chimw.Recoverer,
		middleware.CORS(cfg.AllowedOrigins, cfg.AppEnv, logger),
	)

	r.Get("/healthz", h.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Signature(cfg.APISecret, logger))

		r.Post("/invoke/{command}", h.HandleInvoke)
		r.Get("/invoke", h.HandleInvokeSocket)
		r.Post("/export", h.HandleExport)
		r.Get("/events", h.HandleEvents)
	})

	return r
}

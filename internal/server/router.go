package server

import (
	"net/http"

	"github.com/brightboard/brightboard/internal/api"
	"github.com/brightboard/brightboard/internal/api/handlers"
	"github.com/brightboard/brightboard/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	ChatHandler      *handlers.ChatHandler
	RetrieveHandler  *handlers.RetrieveHandler
	UnitHandler      *handlers.UnitHandler
	IngestionHandler *handlers.IngestionHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/chat", cfg.ChatHandler.Chat)
	r.Post("/retrieve", cfg.RetrieveHandler.Retrieve)

	r.Route("/units", func(r chi.Router) {
		r.Put("/{id}/text", cfg.UnitHandler.PutText)
		r.Delete("/{id}", cfg.UnitHandler.Delete)
	})

	r.Get("/ingestions/{id}", cfg.IngestionHandler.Get)

	return r
}

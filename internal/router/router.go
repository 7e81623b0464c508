package router

import (
	"net/http"

	"promo-console/internal/handler"
	"promo-console/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Credentials are the admin credentials the console requires.
type Credentials struct {
	User     string
	Password string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(console *handler.ConsoleHandler, creds Credentials, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: Recovery -> Logging -> RequestID -> BasicAuth
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.BasicAuth(creds.User, creds.Password, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Get("/", console.Page)
	r.Get("/state", console.State)

	r.Route("/actions", func(r chi.Router) {
		r.Use(middleware.CrossOrigin(logger))

		r.Post("/create", console.Create)
		r.Post("/update", console.Update)
		r.Post("/retrieve", console.Retrieve)
		r.Post("/delete", console.Delete)
		r.Post("/search", console.Search)
		r.Post("/clear", console.Clear)
		r.Post("/rows", console.AddRow)
		r.Post("/rows/{index}/remove", console.RemoveRow)
		r.Post("/apply", console.Apply)
		r.Post("/import", console.Import)
	})

	return r
}

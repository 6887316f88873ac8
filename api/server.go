/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Wires the WebSocket endpoint into a chi router with the standard
  middleware stack. The socket carries the whole ledger protocol; HTTP
  itself only hosts the upgrade and a health probe.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin upgrade requests from browser clients

ROUTES:
  GET /socket    WebSocket upgrade; the message protocol lives here
  GET /healthz   Liveness probe

SEE ALSO:
  - socket.go: Connection loop
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewServer creates the HTTP router hosting the socket endpoint.
func NewServer(rt *Router) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/socket", rt.HandleSocket)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}

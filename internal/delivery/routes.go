package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// NewRouter mounts the webhook API. rateLimit is requests per minute per client
// IP on the turn endpoint; 0 disables the limit.
func NewRouter(h *Handler, rateLimit int) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})

	r.Route("/v1", func(v chi.Router) {
		v.Use(httputil.RecoverMiddleware)

		turns := v.With()
		if rateLimit > 0 {
			turns = v.With(httprate.LimitByIP(rateLimit, time.Minute))
		}
		turns.Post("/turns", h.CreateTurn)

		v.Get("/audio/{name}", h.GetAudio)
		v.Get("/history", h.GetHistory)
		v.Delete("/history", h.ClearHistory)
	})

	return r
}

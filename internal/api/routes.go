package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/innovatehub/campaign-mailer/internal/pkg/httputil"
)

const allowedHeaders = "authorization, x-client-info, apikey, content-type"

// SetupRoutes configures all API routes. limiter wraps POST / and may be nil.
func SetupRoutes(h *Handlers, hc *HealthChecker, limiter func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// Browsers call this API directly from the marketing dashboard.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:     []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		OptionsPassthrough: true,
		MaxAge:             300,
	}))
	r.Use(preflight)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.MethodNotAllowed(w)
	})

	if hc != nil {
		r.Get("/health", hc.HandleHealth)
	}

	campaign := http.Handler(http.HandlerFunc(h.HandleCampaign))
	if limiter != nil {
		campaign = limiter(campaign)
	}
	r.Method(http.MethodPost, "/", campaign)

	return r
}

// preflight answers every OPTIONS request with 204 and stamps the
// allow-origin header on all other responses.
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

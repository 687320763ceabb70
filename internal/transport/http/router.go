package http

import (
	"net/http"

	"github.com/doc-courier/internal/application/verification"
	"github.com/doc-courier/internal/config"
	"github.com/doc-courier/internal/transport/http/handler"
	appmiddleware "github.com/doc-courier/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	// CORS runs before the rate limiter so preflight requests never consume tokens.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	apiRL := appmiddleware.NewRateLimiter(
		rate.Limit(float64(cfg.RateLimitPerMinute)/60.0),
		cfg.RateLimitBurst,
	)

	svc := verification.NewService(verification.ServiceDeps{
		Ledger:      deps.Ledger,
		Records:     deps.Records,
		Objects:     deps.Objects,
		Mailer:      deps.Mailer,
		Alerts:      deps.Alerts,
		CodeTTL:     cfg.CodeTTL,
		MailTimeout: cfg.SMTPTimeout,
	})
	verifH := handler.NewVerificationHandler(svc)

	r.Get("/healthz", handler.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiRL.Limit)
		r.Post("/send-code", verifH.SendCode)
		r.Post("/verify-and-send", verifH.VerifyAndSend)
	})

	if cfg.PublicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))
	}

	return r
}

package api

import (
	"net/http"

	"github.com/dom/codementor/internal/api/handlers"
	"github.com/dom/codementor/internal/api/middleware"
	"github.com/dom/codementor/internal/config"
	"github.com/dom/codementor/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const apiVersion = "1.0.0"

func NewRouter(services *service.Services, cfg *config.Config, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger.Named("http")))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.User)
	aiHandler := handlers.NewAIHandler(services.Assistant)
	indexHandler := handlers.NewIndexHandler(apiVersion)

	requireAuth := middleware.Auth(services.User, logger)
	optionalAuth := middleware.OptionalAuth(services.User, logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", indexHandler.Index)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Put("/profile", authHandler.UpdateProfile)
				r.Get("/verify", authHandler.Verify)
			})
		})

		// Code assistant routes accept anonymous callers
		r.Route("/ai", func(r chi.Router) {
			r.Use(optionalAuth)
			r.Post("/explain", aiHandler.Explain)
			r.Post("/debug", aiHandler.Debug)
			r.Post("/hint", aiHandler.Hint)
			r.Post("/review", aiHandler.Review)
		})
	})

	return r
}

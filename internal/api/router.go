package api

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/dom/storyverse/internal/api/handlers"
	"github.com/dom/storyverse/internal/api/middleware"
	"github.com/dom/storyverse/internal/api/respond"
	"github.com/dom/storyverse/internal/config"
	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"github.com/dom/storyverse/internal/service"
	"github.com/dom/storyverse/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

type Dependencies struct {
	Services *service.Services
	Repos    *repository.Repositories
	Hub      *websocket.Hub
	Config   *config.Config
	Logger   *slog.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	log := deps.Logger
	services := deps.Services
	tx := deps.Repos.Tx

	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecureHeaders(cfg.IsProduction()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, log, domain.NotFoundf("Not Found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusMethodNotAllowed, respond.ErrorResponse{Detail: "Method Not Allowed"})
	})

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.Repos.Health, cfg.AppName, log)
	authHandler := handlers.NewAuthHandler(services.Auth, services.Users, tx, log)
	userHandler := handlers.NewUserHandler(services.Users, tx, log)
	universeHandler := handlers.NewUniverseHandler(services.Universes, tx, log)
	storyHandler := handlers.NewStoryHandler(services.Stories, tx, log)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, services.Gate, originChecker(cfg.CORSAllowedOrigins), log)

	active := middleware.Require(services.Gate, service.LevelActive, log)
	admin := middleware.Require(services.Gate, service.LevelAdmin, log)

	r.Get("/", healthHandler.Root)

	r.Route(cfg.APIPrefix, func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/health/db", healthHandler.Database)

		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.RateLimitAuth, cfg.RateLimitWindow))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		r.Get("/ws", wsHandler.Handle)

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(active)
				r.Get("/me", userHandler.Me)
				r.Put("/me", userHandler.UpdateMe)
			})

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(active)

			r.Route("/story-universes", func(r chi.Router) {
				r.Post("/", universeHandler.Create)
				r.Get("/", universeHandler.List)
				r.Get("/{id}", universeHandler.Get)
				r.Put("/{id}", universeHandler.Update)
				r.Delete("/{id}", universeHandler.Delete)
			})

			r.Route("/stories", func(r chi.Router) {
				r.Post("/", storyHandler.Create)
				r.Get("/", storyHandler.List)
				r.Get("/{id}", storyHandler.Get)
				r.Put("/{id}", storyHandler.Update)
				r.Delete("/{id}", storyHandler.Delete)
			})
		})
	})

	return r
}

// originChecker applies the CORS allow-list to websocket upgrades. Requests
// without an Origin header come from non-browser clients and are allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := slices.Contains(allowed, "*")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowAll || slices.Contains(allowed, origin)
	}
}

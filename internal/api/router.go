package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/barleygate/barleygate/internal/api/handlers"
	"github.com/barleygate/barleygate/internal/auth"
	"github.com/barleygate/barleygate/internal/services"
	"github.com/barleygate/barleygate/internal/websocket"
)

// NewRouter creates and configures a new Chi router. The session gate runs
// before anything else on the protected routes; public auth routes bounce
// already-authenticated sessions back to the home view.
func NewRouter(sessions *auth.Manager, hub *websocket.Hub, accountService services.AccountServiceProvider, eventService services.EventServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(accountService, sessions)
	pageHandler := handlers.NewPageHandler()
	eventHandler := handlers.NewEventHandler(eventService)
	statusHandler := handlers.NewStatusHandler(eventService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	const homeTarget = "/api/v1/pages/home"

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth operations; already-authenticated sessions are sent home.
		r.Group(func(r chi.Router) {
			r.Use(sessions.RedirectIfAuthenticated(homeTarget))
			r.Post("/auth/register", accountHandler.Register)
			r.Post("/auth/login", accountHandler.Login)
		})

		// Logout serves both states: logged-out callers get a user error.
		r.With(sessions.Attach()).Post("/auth/logout", accountHandler.Logout)

		// Everything below requires an authenticated session.
		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireAuth())

			r.Get("/auth/me", accountHandler.GetMe)
			r.Post("/auth/password", accountHandler.ChangePassword)

			r.Route("/pages", func(r chi.Router) {
				r.Get("/home", pageHandler.Home)
				r.Get("/about", pageHandler.About)
				r.Get("/contact", pageHandler.Contact)
				r.Get("/menu", pageHandler.Menu)
			})

			r.Get("/events", eventHandler.GetRecent)
			r.Get("/status", statusHandler.Get)
			r.Get("/ws", wsHandler.Serve)
		})
	})

	return r
}

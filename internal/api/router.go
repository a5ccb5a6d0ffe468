package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/metachat/accounts/internal/api/handlers"
	"github.com/metachat/accounts/internal/api/middleware"
	"github.com/metachat/accounts/internal/service"
)

func NewRouter(services *service.Services) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, services.User)
	userHandler := handlers.NewUserHandler(services.User, services.Search)
	friendHandler := handlers.NewFriendHandler(services.Search)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.Google)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/forget-password", authHandler.ForgetPassword)
			r.Post("/verify-otp", authHandler.VerifyOTP)
			r.Post("/reset-password", authHandler.ResetPassword)
			r.Post("/logout", authHandler.Logout)
			r.Post("/{id}/fcm-token", authHandler.SetFcmToken)
			r.Delete("/{id}/fcm-token", authHandler.RemoveFcmToken)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Tokens))
				r.Get("/me", authHandler.Me)
			})
		})

		// Search routes work with or without a bearer token; the "@"
		// friend-list query just returns empty for anonymous callers.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(services.Tokens))
			r.Get("/users/search", userHandler.Search)
			r.Get("/friend-users/search", friendHandler.Search)
		})

		// Protected user routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Tokens))
			r.Put("/users/{id}", userHandler.Update)
			r.Post("/users/{id}/avatar", userHandler.UploadAvatar)
		})
	})

	return r
}

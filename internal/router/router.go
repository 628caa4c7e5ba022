// Package router assembles the HTTP surface: global middleware, ops
// endpoints and the /api route tree.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/devconnector/backend/internal/config"
	"github.com/devconnector/backend/internal/handlers"
	"github.com/devconnector/backend/internal/middleware"
	"github.com/devconnector/backend/internal/services"
	"github.com/devconnector/backend/internal/validation"
)

type Deps struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Users    services.UserService
	Profiles services.ProfileService
	Posts    services.PostService
	Accounts services.AccountService
	Repos    services.RepoLister
	// Redis backs the credential rate limiter; nil disables limiting.
	Redis redis.Cmdable
	// Ping reports store health on /health; nil means always healthy.
	Ping func(ctx context.Context) error
}

func New(d Deps) http.Handler {
	cfg := d.Config
	v := validation.New()
	auth := middleware.NewAuthenticator(cfg.JWTSecret)

	authHandler := handlers.NewAuthHandler(d.Users, v, cfg.JWTSecret, cfg.JWTExpiration)
	profileHandler := handlers.NewProfileHandler(d.Profiles, d.Repos, v)
	accountHandler := handlers.NewAccountHandler(d.Accounts)
	postHandler := handlers.NewPostHandler(d.Posts, d.Users, v)

	credentialLimit := middleware.RateLimit(d.Redis, "credentials", cfg.LoginRateLimit, cfg.LoginRateWindow)
	postID := middleware.ValidIDs("id")

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	// RealIP rewrites RemoteAddr from client headers, which the rate limiter
	// keys on. Without a trusted proxy the socket peer is used as is.
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.TokenHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ping(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
				http.Error(w, "UNAVAILABLE", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(credentialLimit).Post("/users", authHandler.Register)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/", auth.Require(authHandler.Me))
			r.With(credentialLimit).Post("/", authHandler.Login)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profileHandler.List)
			r.Post("/", auth.Require(profileHandler.Upsert))
			r.Delete("/", auth.Require(accountHandler.DeleteAccount))
			r.Get("/me", auth.Require(profileHandler.Me))
			r.With(middleware.ObjectID("user_id")).Get("/user/{user_id}", profileHandler.GetByUserID)

			r.Put("/experience", auth.Require(profileHandler.AddExperience))
			r.Delete("/experience/{exp_id}", auth.Require(profileHandler.DeleteExperience))
			r.Put("/education", auth.Require(profileHandler.AddEducation))
			r.Delete("/education/{edu_id}", auth.Require(profileHandler.DeleteEducation))

			r.Get("/github/{username}", profileHandler.GitHubRepos)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", auth.Require(postHandler.Create))
			r.Get("/", auth.Require(postHandler.List))
			r.Get("/{id}", auth.Require(postID(postHandler.Get)))
			r.Delete("/{id}", auth.Require(postID(postHandler.Delete)))

			r.Put("/like/{id}", auth.Require(postID(postHandler.Like)))
			r.Put("/unlike/{id}", auth.Require(postID(postHandler.Unlike)))

			r.Post("/comment/{id}", auth.Require(postID(postHandler.AddComment)))
			r.Delete("/comment/{id}/{comment_id}", auth.Require(postID(postHandler.DeleteComment)))
		})
	})

	return r
}

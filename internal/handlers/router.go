package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gotodo/internal/config"
	"gotodo/internal/session"
	"gotodo/internal/store"
	"gotodo/internal/token"
)

// Server holds the collaborators shared by all HTTP handlers. It is
// constructed once at startup and passed by reference; there is no ambient
// application state.
type Server struct {
	users    store.Users
	todos    store.Todos
	sessions *session.Manager
	codec    *token.Codec
	cfg      config.Config
	log      zerolog.Logger
}

// New wires a Server.
func New(users store.Users, todos store.Todos, sessions *session.Manager, codec *token.Codec, cfg config.Config, log zerolog.Logger) *Server {
	return &Server{
		users:    users,
		todos:    todos,
		sessions: sessions,
		codec:    codec,
		cfg:      cfg,
		log:      log,
	}
}

// Routes builds the chi router: health and metrics endpoints at the root,
// the user and todo APIs under /api/v1.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	allowed := s.cfg.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Use(httprate.Limit(100, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/me", s.handleMe)
				r.Post("/logout", s.handleLogout)
				r.Patch("/update", s.handleUpdateProfile)
				r.Patch("/update-password", s.handleUpdatePassword)
				r.Delete("/", s.handleDeleteAccount)
			})
		})

		r.Route("/todos", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListTodos)
			r.Post("/", s.handleCreateTodo)
			r.Patch("/{id}", s.handleUpdateTodo)
			r.Delete("/{id}", s.handleDeleteTodo)
		})
	})

	return r
}

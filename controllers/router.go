package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RouterConfig - обработчики и защита маршрутов.
type RouterConfig struct {
	Auth   *AuthController
	Notes  *NotesController
	Health *HealthController
	// RequireUser - JWT-мидлварь для защищенных маршрутов
	RequireUser func(http.Handler) http.Handler
}

// NewRouter регистрирует все маршруты API.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(MethodNotAllowed)

	protected := func(h http.HandlerFunc) http.Handler {
		return cfg.RequireUser(h)
	}

	// Публичные маршруты
	r.HandleFunc("/health", cfg.Health.HealthCheck).Methods(http.MethodGet)

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", cfg.Auth.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", cfg.Auth.Login).Methods(http.MethodPost)
	authRouter.Handle("/me", protected(cfg.Auth.Me)).Methods(http.MethodGet)

	r.HandleFunc("/notes", cfg.Notes.FindAll).Methods(http.MethodGet)
	r.Handle("/notes", protected(cfg.Notes.Create)).Methods(http.MethodPost)
	r.HandleFunc("/notes/search", cfg.Notes.Search).Methods(http.MethodPost)
	r.HandleFunc("/notes/{id}", cfg.Notes.FindOne).Methods(http.MethodGet)
	r.Handle("/notes/{id}", protected(cfg.Notes.Update)).Methods(http.MethodPatch)
	r.Handle("/notes/{id}", protected(cfg.Notes.Remove)).Methods(http.MethodDelete)

	return r
}

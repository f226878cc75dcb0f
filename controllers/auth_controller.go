package controllers

import (
	"context"
	"net/http"
	"strings"

	"semantic_notes_go/apperrors"
	"semantic_notes_go/middleware"
	"semantic_notes_go/models"
)

// AuthService - то, что нужно HTTP-слою от services.AuthService.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.TokenResponse, error)
	Login(userID int64, email string) (*models.TokenResponse, error)
	ValidateUser(ctx context.Context, email, password string) (*models.UserPublicInfo, error)
}

// AuthController обрабатывает /auth/*.
type AuthController struct {
	auth AuthService
}

func NewAuthController(auth AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register обрабатывает запросы на регистрацию новых пользователей.
// Пример URL: POST /auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	token, err := c.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, token)
}

// Login проверяет email и пароль и выдает токен.
// Пример URL: POST /auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := c.auth.ValidateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if user == nil {
		respondError(w, r, apperrors.Unauthorized("Invalid email or password"))
		return
	}

	token, err := c.auth.Login(user.ID, user.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, token)
}

// Me возвращает пользователя из токена. Пример URL: GET /auth/me
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized(""))
		return
	}
	respondJSON(w, http.StatusOK, user)
}

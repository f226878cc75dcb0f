package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"semantic_notes_go/apperrors"
	"semantic_notes_go/auth"
	"semantic_notes_go/data"
	"semantic_notes_go/models"
)

// UserRepository - хранилище пользователей (data.UserStore).
type UserRepository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// PasswordHasher - хеширование паролей (auth.BcryptHasher).
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	CheckPasswordHash(password, hash string) bool
}

// TokenIssuer - выпуск токенов доступа (auth.JWTService).
type TokenIssuer interface {
	GenerateToken(userID int64, email string) (string, time.Time, error)
}

// AuthService - регистрация, вход и проверка пользователей.
type AuthService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewAuthService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает пользователя и сразу выдает токен.
// Занятость email проверяется до вычисления хеша.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	email = normalizeEmail(email)

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("Email already in use")
	}

	passwordHash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	created, err := s.users.CreateUser(ctx, email, passwordHash)
	if err != nil {
		// гонка двух регистраций с одним email
		if errors.Is(err, data.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("Email already in use")
		}
		return nil, err
	}
	log.Printf("Зарегистрирован пользователь %d (%s)", created.ID, created.Email)

	return s.Login(created.ID, created.Email)
}

// Login выдает подписанный токен {sub, email}.
func (s *AuthService) Login(userID int64, email string) (*models.TokenResponse, error) {
	token, _, err := s.tokens.GenerateToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	return &models.TokenResponse{AccessToken: token}, nil
}

// ValidateUser возвращает пользователя без хеша или nil, если email/пароль неверны.
func (s *AuthService) ValidateUser(ctx context.Context, email, password string) (*models.UserPublicInfo, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.CheckPasswordHash(password, user.PasswordHash) {
		return nil, nil
	}
	public := user.Public()
	return &public, nil
}

// VerifyJWT заново читает пользователя по sub из токена.
func (s *AuthService) VerifyJWT(ctx context.Context, claims *auth.Claims) (*models.UserPublicInfo, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperrors.Unauthorized("")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Unauthorized("")
	}
	public := user.Public()
	return &public, nil
}

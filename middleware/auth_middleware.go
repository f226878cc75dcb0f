package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"semantic_notes_go/apperrors"
	"semantic_notes_go/auth"
	"semantic_notes_go/models"
)

type contextKey string

// userKey - ключ для хранения пользователя в контексте запроса.
const userKey contextKey = "user"

// TokenValidator проверяет подпись и срок действия токена.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// UserVerifier подтверждает, что пользователь из токена все еще существует.
type UserVerifier interface {
	VerifyJWT(ctx context.Context, claims *auth.Claims) (*models.UserPublicInfo, error)
}

// WithUser кладет пользователя в контекст.
func WithUser(ctx context.Context, user *models.UserPublicInfo) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext возвращает пользователя, установленного JWTMiddleware.
func UserFromContext(ctx context.Context) (*models.UserPublicInfo, bool) {
	user, ok := ctx.Value(userKey).(*models.UserPublicInfo)
	return user, ok && user != nil
}

// JWTMiddleware проверяет Bearer-токен в заголовке Authorization.
// Если токен валиден и пользователь существует, {id, email} добавляются в контекст запроса.
func JWTMiddleware(tokens TokenValidator, users UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Printf("JWTMiddleware: отсутствует заголовок Authorization для %s %s", r.Method, r.URL.Path)
				apperrors.Write(w, r, apperrors.Unauthorized(""))
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Printf("JWTMiddleware: неверный формат заголовка Authorization для %s %s", r.Method, r.URL.Path)
				apperrors.Write(w, r, apperrors.Unauthorized(""))
				return
			}

			claims, err := tokens.ValidateToken(parts[1])
			if err != nil {
				log.Printf("JWTMiddleware: невалидный токен для %s %s: %v", r.Method, r.URL.Path, err)
				apperrors.Write(w, r, apperrors.Unauthorized(""))
				return
			}

			user, err := users.VerifyJWT(r.Context(), claims)
			if err != nil {
				apperrors.Write(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

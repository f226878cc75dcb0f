package models

// RegisterRequest представляет данные для регистрации нового пользователя.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest представляет данные для входа пользователя.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserPublicInfo представляет публичные данные пользователя, возвращаемые API.
type UserPublicInfo struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// TokenResponse - ответ после успешной регистрации или входа.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

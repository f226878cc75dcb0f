package models

import "time"

// User представляет пользователя системы.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Public возвращает данные пользователя без хеша пароля.
func (u *User) Public() UserPublicInfo {
	return UserPublicInfo{ID: u.ID, Email: u.Email}
}

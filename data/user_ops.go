package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"semantic_notes_go/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateEmail - нарушение уникальности email в таблице users.
var ErrDuplicateEmail = errors.New("email already exists")

// UserStore - доступ к таблице users. Запросы пишутся с "?" и проходят
// через Rebind, поэтому работают и на PostgreSQL, и на SQLite.
type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser создает нового пользователя с уже вычисленным хешем пароля.
func (s *UserStore) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	query := s.db.Rebind(`INSERT INTO users (email, password_hash, created_at)
	          VALUES (?, ?, ?) RETURNING id`)

	var id int64
	if err := s.db.QueryRowxContext(ctx, query, email, passwordHash, now).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("CreateUser: ошибка вставки пользователя %s: %w", email, err)
	}

	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// GetUserByEmail извлекает пользователя по email.
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := s.db.Rebind(`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`)
	err := s.db.GetContext(ctx, user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("GetUserByEmail: ошибка получения пользователя %s: %w", email, err)
	}
	return user, nil
}

// GetUserByID извлекает пользователя по ID.
func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := s.db.Rebind(`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`)
	err := s.db.GetContext(ctx, user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("GetUserByID: ошибка получения пользователя ID %d: %w", id, err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	// sqlite - только хранилище в тестах
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"semantic_notes_go/models"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
)

// Колонка embedding (тип vector) через маппинг sqlx не читается: все запросы,
// которые ее пишут или сравнивают, - параметризованный SQL с pgvector.Vector.
const noteColumns = `id, title, content, attachment_url, user_id, created_at, updated_at`

// NoteStore - доступ к таблице notes (только PostgreSQL + pgvector).
type NoteStore struct {
	db *sqlx.DB
}

func NewNoteStore(db *sqlx.DB) *NoteStore {
	return &NoteStore{db: db}
}

// CreateNote вставляет заметку вместе с эмбеддингом и возвращает созданную строку.
func (s *NoteStore) CreateNote(ctx context.Context, note *models.Note, embedding []float32) (*models.Note, error) {
	query := `INSERT INTO notes (title, content, attachment_url, user_id, embedding, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	          RETURNING ` + noteColumns

	created := &models.Note{}
	err := s.db.GetContext(ctx, created, query,
		note.Title, note.Content, note.AttachmentURL, note.UserID, pgvector.NewVector(embedding))
	if err != nil {
		return nil, fmt.Errorf("CreateNote: ошибка вставки заметки: %w", err)
	}
	log.Printf("Создана заметка с ID: %d для UserId: %d", created.ID, created.UserID)
	return created, nil
}

// GetNoteByID извлекает заметку по ее ID.
func (s *NoteStore) GetNoteByID(ctx context.Context, id int64) (*models.Note, error) {
	note := &models.Note{}
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`
	err := s.db.GetContext(ctx, note, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Не найдено
		}
		return nil, fmt.Errorf("GetNoteByID: ошибка получения заметки ID %d: %w", id, err)
	}
	return note, nil
}

// CountNotes возвращает общее число заметок.
func (s *NoteStore) CountNotes(ctx context.Context) (int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notes`); err != nil {
		return 0, fmt.Errorf("CountNotes: ошибка подсчета заметок: %w", err)
	}
	return total, nil
}

// ListNotesPage считает заметки и читает страницу (новые сверху) в одной транзакции.
func (s *NoteStore) ListNotesPage(ctx context.Context, offset, limit int) (int, []models.Note, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return 0, nil, fmt.Errorf("ListNotesPage: ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	total, notes, err := listNotesPageWithTx(ctx, tx, offset, limit)
	if err != nil {
		return 0, nil, err
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("ListNotesPage: ошибка фиксации транзакции: %w", err)
	}
	return total, notes, nil
}

func listNotesPageWithTx(ctx context.Context, tx *sqlx.Tx, offset, limit int) (int, []models.Note, error) {
	var total int
	if err := tx.GetContext(ctx, &total, `SELECT COUNT(*) FROM notes`); err != nil {
		return 0, nil, fmt.Errorf("ListNotesPage: ошибка подсчета заметок: %w", err)
	}

	notes := []models.Note{}
	query := `SELECT ` + noteColumns + ` FROM notes
	          ORDER BY created_at DESC, id DESC
	          LIMIT $1 OFFSET $2`
	if err := tx.SelectContext(ctx, &notes, query, limit, offset); err != nil {
		return 0, nil, fmt.Errorf("ListNotesPage: ошибка получения страницы (offset %d, limit %d): %w", offset, limit, err)
	}
	return total, notes, nil
}

// SearchNotes ранжирует заметки по 1 - cosine_distance к вектору запроса.
func (s *NoteStore) SearchNotes(ctx context.Context, embedding []float32, offset, limit int) ([]models.Note, error) {
	notes := []models.Note{}
	query := `SELECT ` + noteColumns + `, 1 - (embedding <=> $1::vector) AS similarity
	          FROM notes
	          ORDER BY embedding <=> $1::vector
	          LIMIT $2 OFFSET $3`
	if err := s.db.SelectContext(ctx, &notes, query, pgvector.NewVector(embedding), limit, offset); err != nil {
		return nil, fmt.Errorf("SearchNotes: ошибка векторного поиска: %w", err)
	}
	return notes, nil
}

// UpdateNote обновляет заголовок, содержимое и вложение. Если embedding == nil,
// вектор не меняется. Возвращает nil, nil, если заметки уже нет.
func (s *NoteStore) UpdateNote(ctx context.Context, note *models.Note, embedding []float32) (*models.Note, error) {
	var (
		query string
		args  []any
	)
	if embedding != nil {
		query = `UPDATE notes
		         SET title = $1, content = $2, attachment_url = $3, embedding = $4, updated_at = NOW()
		         WHERE id = $5
		         RETURNING ` + noteColumns
		args = []any{note.Title, note.Content, note.AttachmentURL, pgvector.NewVector(embedding), note.ID}
	} else {
		query = `UPDATE notes
		         SET title = $1, content = $2, attachment_url = $3, updated_at = NOW()
		         WHERE id = $4
		         RETURNING ` + noteColumns
		args = []any{note.Title, note.Content, note.AttachmentURL, note.ID}
	}

	updated := &models.Note{}
	if err := s.db.GetContext(ctx, updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Не найдено для обновления
		}
		return nil, fmt.Errorf("UpdateNote: ошибка обновления заметки ID %d: %w", note.ID, err)
	}
	log.Printf("Обновлена заметка с ID: %d", updated.ID)
	return updated, nil
}

// DeleteNote удаляет заметку по ID.
func (s *NoteStore) DeleteNote(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteNote: ошибка удаления заметки ID %d: %w", id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows // Не найдено для удаления
	}
	log.Printf("Удалена заметка с ID: %d", id)
	return nil
}

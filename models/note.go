package models

import (
	"time"
)

// Note представляет собой заметку в системе.
// Эмбеддинг хранится в колонке vector и в структуру не читается.
type Note struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Content       string    `json:"content" db:"content"`
	AttachmentURL *string   `json:"attachmentUrl" db:"attachment_url"`
	UserID        int64     `json:"userId" db:"user_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
	Similarity    *float64  `json:"similarity,omitempty" db:"similarity"` // только в результатах поиска
}

// HasAttachment сообщает, есть ли у заметки вложение.
func (n *Note) HasAttachment() bool {
	return n.AttachmentURL != nil && *n.AttachmentURL != ""
}

// CreateNoteRequest - поля multipart-формы при создании заметки.
type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=255"`
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// UpdateNoteRequest - частичное обновление: nil означает "не менять".
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitnil,min=1,max=255"`
	Content *string `json:"content,omitempty" validate:"omitnil,min=1,max=1000"`
}

// SearchNotesRequest - тело POST /notes/search.
type SearchNotesRequest struct {
	Query string `json:"query" validate:"required,min=1,max=1000"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// DeletedNote - ответ на удаление заметки.
type DeletedNote struct {
	ID int64 `json:"id"`
}

// Attachment - загруженный файл до его сохранения в хранилище.
type Attachment struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

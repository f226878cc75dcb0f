// Package services связывает хранилище заметок, объектное хранилище и
// сервис эмбеддингов.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"semantic_notes_go/apperrors"
	"semantic_notes_go/embedding"
	"semantic_notes_go/models"
	"semantic_notes_go/storage"
)

const (
	DefaultPage        = 1
	DefaultLimit       = 10
	DefaultSearchLimit = 10
)

// NoteRepository - хранилище заметок (data.NoteStore).
type NoteRepository interface {
	CreateNote(ctx context.Context, note *models.Note, embedding []float32) (*models.Note, error)
	GetNoteByID(ctx context.Context, id int64) (*models.Note, error)
	CountNotes(ctx context.Context) (int, error)
	ListNotesPage(ctx context.Context, offset, limit int) (int, []models.Note, error)
	SearchNotes(ctx context.Context, embedding []float32, offset, limit int) ([]models.Note, error)
	UpdateNote(ctx context.Context, note *models.Note, embedding []float32) (*models.Note, error)
	DeleteNote(ctx context.Context, id int64) error
}

// NotesService - операции над заметками. Вызовы хранилища и сервиса
// эмбеддингов не входят в транзакцию БД: если запись в БД не удалась после
// загрузки файла, загруженный объект удаляется (best effort).
type NotesService struct {
	notes    NoteRepository
	storage  storage.ObjectStorage
	embedder embedding.Embedder
	dims     int // 0 - не проверять длину вектора
	now      func() time.Time
}

func NewNotesService(notes NoteRepository, store storage.ObjectStorage, embedder embedding.Embedder, dims int) *NotesService {
	return &NotesService{
		notes:    notes,
		storage:  store,
		embedder: embedder,
		dims:     dims,
		now:      time.Now,
	}
}

func (s *NotesService) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, embedding.ErrEmptyEmbedding) {
			appErr := apperrors.Upstream("Embedding service", err)
			appErr.Message = embedding.ErrEmptyEmbedding.Error()
			return nil, appErr
		}
		return nil, apperrors.Upstream("Embedding service", err)
	}
	if s.dims > 0 && len(vec) != s.dims {
		return nil, apperrors.Upstream("Embedding service",
			fmt.Errorf("embedding has %d dimensions, expected %d", len(vec), s.dims))
	}
	return vec, nil
}

func (s *NotesService) upload(ctx context.Context, file *models.Attachment) (string, string, error) {
	key := storage.ObjectKey(s.now(), file.FileName)
	url, err := s.storage.Upload(ctx, file.Data, key, file.ContentType)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// discardUpload удаляет объект, для которого не удалось сохранить заметку.
// Запрос мог быть уже отменен, поэтому используется отдельный контекст.
func (s *NotesService) discardUpload(ctx context.Context, key string) {
	if key == "" {
		return
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(cleanupCtx, key); err != nil {
		log.Printf("Не удалось удалить осиротевший объект %s: %v", key, err)
		return
	}
	log.Printf("Удален осиротевший объект %s", key)
}

// Create вычисляет эмбеддинг, загружает файл (если есть) и вставляет заметку.
func (s *NotesService) Create(ctx context.Context, req models.CreateNoteRequest, ownerID int64, file *models.Attachment) (*models.Note, error) {
	vec, err := s.embed(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	note := &models.Note{
		Title:   req.Title,
		Content: req.Content,
		UserID:  ownerID,
	}

	var uploadedKey string
	if file != nil {
		key, url, err := s.upload(ctx, file)
		if err != nil {
			return nil, err
		}
		uploadedKey = key
		note.AttachmentURL = &url
		log.Printf("Attachment URL: %s", url)
	}

	created, err := s.notes.CreateNote(ctx, note, vec)
	if err != nil {
		s.discardUpload(ctx, uploadedKey)
		return nil, err
	}
	return created, nil
}

// FindAll возвращает страницу заметок. С непустым search заметки
// ранжируются по близости к запросу, иначе - новые сверху.
func (s *NotesService) FindAll(ctx context.Context, page, limit int, search string) (*models.PaginatedResult, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	skip := (page - 1) * limit

	var (
		totalItems int
		items      []models.Note
	)
	if search != "" {
		vec, err := s.embed(ctx, search)
		if err != nil {
			return nil, err
		}
		totalItems, err = s.notes.CountNotes(ctx)
		if err != nil {
			return nil, err
		}
		if totalItems > 0 && skip < totalItems {
			items, err = s.notes.SearchNotes(ctx, vec, skip, limit)
			if err != nil {
				return nil, err
			}
		}
	} else {
		var err error
		totalItems, items, err = s.notes.ListNotesPage(ctx, skip, limit)
		if err != nil {
			return nil, err
		}
	}

	if totalItems == 0 {
		return &models.PaginatedResult{
			Items: []models.Note{},
			Meta: models.PaginationMeta{
				Page:   page,
				Limit:  limit,
				Search: search,
			},
		}, nil
	}

	if skip >= totalItems {
		return nil, apperrors.InvalidPage(page, totalItems, limit)
	}

	if items == nil {
		items = []models.Note{}
	}
	totalPages := int(math.Ceil(float64(totalItems) / float64(limit)))
	return &models.PaginatedResult{
		Items: items,
		Meta: models.PaginationMeta{
			Page:            page,
			Limit:           limit,
			TotalItems:      totalItems,
			TotalPages:      totalPages,
			HasNextPage:     page < totalPages,
			HasPreviousPage: page > 1,
			Search:          search,
		},
	}, nil
}

// FindOne возвращает заметку или NotFound.
func (s *NotesService) FindOne(ctx context.Context, id int64) (*models.Note, error) {
	note, err := s.notes.GetNoteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apperrors.NoteNotFound(id)
	}
	return note, nil
}

// loadOwned читает заметку и проверяет владельца. Вызывается до любых
// внешних вызовов, так что при отказе ничего не меняется.
func (s *NotesService) loadOwned(ctx context.Context, id, ownerID int64, action string) (*models.Note, error) {
	existing, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != ownerID {
		return nil, apperrors.Forbidden(fmt.Sprintf("You are not allowed to %s this note", action))
	}
	return existing, nil
}

// Update меняет заметку владельца. Новый файл заменяет старое вложение.
func (s *NotesService) Update(ctx context.Context, id int64, req models.UpdateNoteRequest, ownerID int64, file *models.Attachment) (*models.Note, error) {
	existing, err := s.loadOwned(ctx, id, ownerID, "update")
	if err != nil {
		return nil, err
	}

	changed := *existing
	if req.Title != nil {
		changed.Title = *req.Title
	}

	var vec []float32
	if req.Content != nil {
		changed.Content = *req.Content
		vec, err = s.embed(ctx, changed.Content)
		if err != nil {
			return nil, err
		}
	}

	var uploadedKey string
	if file != nil {
		if existing.HasAttachment() {
			oldKey, err := storage.KeyFromURL(*existing.AttachmentURL)
			if err != nil {
				return nil, apperrors.Internal(err)
			}
			if err := s.storage.Delete(ctx, oldKey); err != nil {
				return nil, err
			}
		}
		key, url, err := s.upload(ctx, file)
		if err != nil {
			return nil, err
		}
		uploadedKey = key
		changed.AttachmentURL = &url
	}

	updated, err := s.notes.UpdateNote(ctx, &changed, vec)
	if err != nil {
		s.discardUpload(ctx, uploadedKey)
		return nil, err
	}
	if updated == nil {
		// заметку удалили между чтением и записью
		s.discardUpload(ctx, uploadedKey)
		return nil, apperrors.NoteNotFound(id)
	}
	return updated, nil
}

// Remove удаляет вложение (ровно один вызов хранилища), затем строку заметки.
func (s *NotesService) Remove(ctx context.Context, id, ownerID int64) (*models.DeletedNote, error) {
	existing, err := s.loadOwned(ctx, id, ownerID, "delete")
	if err != nil {
		return nil, err
	}

	if existing.HasAttachment() {
		key, err := storage.KeyFromURL(*existing.AttachmentURL)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			return nil, err
		}
	}

	if err := s.notes.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NoteNotFound(id)
		}
		return nil, err
	}
	return &models.DeletedNote{ID: id}, nil
}

// SearchNotes - top-N заметок по близости к запросу, лучшие первыми.
func (s *NotesService) SearchNotes(ctx context.Context, query string, limit int) ([]models.Note, error) {
	if limit < 1 {
		limit = DefaultSearchLimit
	}
	vec, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.notes.SearchNotes(ctx, vec, 0, limit)
}

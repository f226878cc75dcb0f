package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"semantic_notes_go/apperrors"
	"semantic_notes_go/middleware"
	"semantic_notes_go/models"
	"semantic_notes_go/services"
)

// NotesService - то, что нужно HTTP-слою от services.NotesService.
type NotesService interface {
	Create(ctx context.Context, req models.CreateNoteRequest, ownerID int64, file *models.Attachment) (*models.Note, error)
	FindAll(ctx context.Context, page, limit int, search string) (*models.PaginatedResult, error)
	FindOne(ctx context.Context, id int64) (*models.Note, error)
	Update(ctx context.Context, id int64, req models.UpdateNoteRequest, ownerID int64, file *models.Attachment) (*models.Note, error)
	Remove(ctx context.Context, id, ownerID int64) (*models.DeletedNote, error)
	SearchNotes(ctx context.Context, query string, limit int) ([]models.Note, error)
}

// NotesController обрабатывает /notes.
type NotesController struct {
	notes NotesService
	files FileValidationOptions
}

func NewNotesController(notes NotesService, files FileValidationOptions) *NotesController {
	return &NotesController{notes: notes, files: files}
}

func currentUser(w http.ResponseWriter, r *http.Request) (*models.UserPublicInfo, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, r, apperrors.Unauthorized(""))
	}
	return user, ok
}

func noteID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("Validation failed (numeric string is expected)",
			[]FieldError{{Field: "id", Rule: "numeric", Message: "id must be a positive integer"}})
	}
	return id, nil
}

// readNoteInput читает поля заметки из multipart-формы или JSON-тела.
// Строки обрезаются по краям; отсутствующее поле остается nil.
func (c *NotesController) readNoteInput(w http.ResponseWriter, r *http.Request) (title, content *string, file *models.Attachment, err error) {
	if isMultipart(r) {
		fields, attachment, err := parseNoteForm(w, r, c.files)
		if err != nil {
			return nil, nil, nil, err
		}
		return trimPtr(formValue(fields, "title")), trimPtr(formValue(fields, "content")), attachment, nil
	}

	var body models.UpdateNoteRequest
	if err := decodeJSON(r, &body); err != nil {
		return nil, nil, nil, err
	}
	return trimPtr(body.Title), trimPtr(body.Content), nil, nil
}

// Create - POST /notes
func (c *NotesController) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	title, content, file, err := c.readNoteInput(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req := models.CreateNoteRequest{}
	if title != nil {
		req.Title = *title
	}
	if content != nil {
		req.Content = *content
	}
	if err := validateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	note, err := c.notes.Create(r.Context(), req, user.ID, file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, note)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		msg := strings.ToUpper(key[:1]) + key[1:] + " must be an integer"
		return 0, apperrors.Validation(msg, []FieldError{{Field: key, Rule: "int", Message: msg}})
	}
	return v, nil
}

// FindAll - GET /notes?page=&limit=&search=
func (c *NotesController) FindAll(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", services.DefaultPage)
	if err != nil {
		respondError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", services.DefaultLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	query := models.PaginationQuery{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if err := validateStruct(&query); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := c.notes.FindAll(r.Context(), query.Page, query.Limit, query.Search)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Search - POST /notes/search
func (c *NotesController) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchNotesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := validateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	notes, err := c.notes.SearchNotes(r.Context(), req.Query, req.Limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	respondJSON(w, http.StatusOK, notes)
}

// FindOne - GET /notes/{id}
func (c *NotesController) FindOne(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	note, err := c.notes.FindOne(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, note)
}

// Update - PATCH /notes/{id}
func (c *NotesController) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := noteID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	title, content, file, err := c.readNoteInput(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req := models.UpdateNoteRequest{Title: title, Content: content}
	if err := validateStruct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	note, err := c.notes.Update(r.Context(), id, req, user.ID, file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, note)
}

// Remove - DELETE /notes/{id}
func (c *NotesController) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := noteID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	deleted, err := c.notes.Remove(r.Context(), id, user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleted)
}

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semantic_notes_go/apperrors"
	"semantic_notes_go/middleware"
	"semantic_notes_go/models"
)

type stubNotes struct {
	created    *models.CreateNoteRequest
	updated    *models.UpdateNoteRequest
	file       *models.Attachment
	owner      int64
	page       int
	limit      int
	search     string
	searchArgs []interface{}
	err        error
}

func (s *stubNotes) Create(_ context.Context, req models.CreateNoteRequest, ownerID int64, file *models.Attachment) (*models.Note, error) {
	s.created, s.owner, s.file = &req, ownerID, file
	if s.err != nil {
		return nil, s.err
	}
	return &models.Note{ID: 1, Title: req.Title, Content: req.Content, UserID: ownerID}, nil
}

func (s *stubNotes) FindAll(_ context.Context, page, limit int, search string) (*models.PaginatedResult, error) {
	s.page, s.limit, s.search = page, limit, search
	if s.err != nil {
		return nil, s.err
	}
	return &models.PaginatedResult{Items: []models.Note{}, Meta: models.PaginationMeta{Page: page, Limit: limit, Search: search}}, nil
}

func (s *stubNotes) FindOne(_ context.Context, id int64) (*models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Note{ID: id, Title: "t"}, nil
}

func (s *stubNotes) Update(_ context.Context, id int64, req models.UpdateNoteRequest, ownerID int64, file *models.Attachment) (*models.Note, error) {
	s.updated, s.owner, s.file = &req, ownerID, file
	if s.err != nil {
		return nil, s.err
	}
	return &models.Note{ID: id, UserID: ownerID}, nil
}

func (s *stubNotes) Remove(_ context.Context, id, ownerID int64) (*models.DeletedNote, error) {
	s.owner = ownerID
	if s.err != nil {
		return nil, s.err
	}
	return &models.DeletedNote{ID: id}, nil
}

func (s *stubNotes) SearchNotes(_ context.Context, query string, limit int) ([]models.Note, error) {
	s.searchArgs = []interface{}{query, limit}
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

type stubAuth struct {
	user        *models.UserPublicInfo
	registerErr error
}

func (s *stubAuth) Register(_ context.Context, email, password string) (*models.TokenResponse, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &models.TokenResponse{AccessToken: "tok-" + email}, nil
}

func (s *stubAuth) Login(userID int64, email string) (*models.TokenResponse, error) {
	return &models.TokenResponse{AccessToken: "tok-" + email}, nil
}

func (s *stubAuth) ValidateUser(_ context.Context, email, password string) (*models.UserPublicInfo, error) {
	if s.user != nil && s.user.Email == email && password == "secret1" {
		return s.user, nil
	}
	return nil, nil
}

// fakeGuard пускает только "Bearer good" и подставляет пользователя 7.
func fakeGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			respondError(w, r, apperrors.Unauthorized(""))
			return
		}
		user := &models.UserPublicInfo{ID: 7, Email: "u@x.io"}
		next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), user)))
	})
}

type fixture struct {
	router http.Handler
	notes  *stubNotes
	auth   *stubAuth
}

func newFixture() *fixture {
	f := &fixture{notes: &stubNotes{}, auth: &stubAuth{user: &models.UserPublicInfo{ID: 7, Email: "u@x.io"}}}
	f.router = NewRouter(RouterConfig{
		Auth:        NewAuthController(f.auth),
		Notes:       NewNotesController(f.notes, DefaultFileValidation(0)),
		Health:      NewHealthController(nil),
		RequireUser: fakeGuard,
	})
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer good")
	return req
}

func TestHealth(t *testing.T) {
	f := newFixture()
	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestRegister(t *testing.T) {
	f := newFixture()

	rec := f.do(jsonRequest(http.MethodPost, "/auth/register", `{"email":"a@b.io","password":"secret1"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"accessToken":"tok-a@b.io"}`, rec.Body.String())

	rec = f.do(jsonRequest(http.MethodPost, "/auth/register", `{"email":"not-an-email","password":"123"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := errorBody(t, rec)
	assert.Equal(t, "Bad Request", body.Error)
	assert.Equal(t, "/auth/register", body.Path)
	assert.Len(t, body.Details, 2)

	f.auth.registerErr = apperrors.Conflict("Email already in use")
	rec = f.do(jsonRequest(http.MethodPost, "/auth/register", `{"email":"a@b.io","password":"secret1"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already in use", errorBody(t, rec).Message)
}

func TestLogin(t *testing.T) {
	f := newFixture()

	rec := f.do(jsonRequest(http.MethodPost, "/auth/login", `{"email":"u@x.io","password":"secret1"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accessToken":"tok-u@x.io"}`, rec.Body.String())

	rec = f.do(jsonRequest(http.MethodPost, "/auth/login", `{"email":"u@x.io","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	f := newFixture()

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = f.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"email":"u@x.io"}`, rec.Body.String())
}

func TestCreateNote_Multipart(t *testing.T) {
	f := newFixture()

	req := multipartRequest(t, http.MethodPost, "/notes",
		map[string]string{"title": "  Groceries ", "content": " milk "},
		&formFile{name: "list.png", contentType: "image/png", data: []byte("png")})
	rec := f.do(req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Groceries", f.notes.created.Title)
	assert.Equal(t, "milk", f.notes.created.Content)
	assert.Equal(t, int64(7), f.notes.owner)
	require.NotNil(t, f.notes.file)
	assert.Equal(t, "list.png", f.notes.file.FileName)
	assert.Equal(t, []byte("png"), f.notes.file.Data)
}

func TestCreateNote_RequiresAuth(t *testing.T) {
	f := newFixture()
	req := multipartRequest(t, http.MethodPost, "/notes", map[string]string{"title": "t", "content": "c"}, nil)
	req.Header.Del("Authorization")

	rec := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, f.notes.created)
}

func TestCreateNote_Validation(t *testing.T) {
	f := newFixture()

	rec := f.do(multipartRequest(t, http.MethodPost, "/notes", map[string]string{"title": "   ", "content": "c"}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, f.notes.created)

	rec = f.do(multipartRequest(t, http.MethodPost, "/notes",
		map[string]string{"title": strings.Repeat("x", 256), "content": "c"}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateNote_OversizedUploadLeavesNoTempFiles(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	f := newFixture()
	server := httptest.NewServer(f.router)
	defer server.Close()

	// больше maxMemory формы, поэтому файл уходит во временный файл на диске
	big := bytes.Repeat([]byte("a"), 4*1024*1024)
	req := multipartRequest(t, http.MethodPost, server.URL+"/notes",
		map[string]string{"title": "t", "content": "c"},
		&formFile{name: "big.png", contentType: "image/png", data: big})
	req.RequestURI = ""

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	leftovers, err := filepath.Glob(filepath.Join(tmp, "multipart-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
	assert.Nil(t, f.notes.created)
}

func TestCreateNote_FileRules(t *testing.T) {
	f := newFixture()

	rec := f.do(multipartRequest(t, http.MethodPost, "/notes", map[string]string{"title": "t", "content": "c"},
		&formFile{name: "doc.pdf", contentType: "application/pdf", data: []byte("%PDF")}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := errorBody(t, rec)
	assert.Equal(t, "File Upload Error", body.Error)
	assert.Contains(t, body.Message, "Invalid file type")

	rec = f.do(multipartRequest(t, http.MethodPost, "/notes", map[string]string{"title": "t", "content": "c"},
		&formFile{name: "photo.gif", contentType: "image/png", data: []byte("x")}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec).Message, "Invalid file extension")

	big := bytes.Repeat([]byte("a"), DefaultMaxUploadSize+1)
	rec = f.do(multipartRequest(t, http.MethodPost, "/notes", map[string]string{"title": "t", "content": "c"},
		&formFile{name: "big.png", contentType: "image/png", data: big}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File size too large. Maximum allowed size is 2MB", errorBody(t, rec).Message)
	assert.Nil(t, f.notes.created)
}

func TestFindAll_Query(t *testing.T) {
	f := newFixture()

	rec := f.do(httptest.NewRequest(http.MethodGet, "/notes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.notes.page)
	assert.Equal(t, 10, f.notes.limit)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/notes?page=2&limit=5&search=+cats+", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, f.notes.page)
	assert.Equal(t, 5, f.notes.limit)
	assert.Equal(t, "cats", f.notes.search)

	for _, q := range []string{"page=0", "page=1001", "limit=101", "limit=abc"} {
		rec = f.do(httptest.NewRequest(http.MethodGet, "/notes?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestFindAll_InvalidPage(t *testing.T) {
	f := newFixture()
	f.notes.err = apperrors.InvalidPage(4, 25, 10)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/notes?page=4", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"requestedPage":4,"totalItems":25,"maxValidPage":3}`, mustJSON(t, errorBody(t, rec).Details))
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestSearch(t *testing.T) {
	f := newFixture()

	rec := f.do(jsonRequest(http.MethodPost, "/notes/search", `{"query":" cats "}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, []interface{}{"cats", 0}, f.notes.searchArgs)

	rec = f.do(jsonRequest(http.MethodPost, "/notes/search", `{"query":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(jsonRequest(http.MethodPost, "/notes/search", `{"query":"x","limit":500}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindOne(t *testing.T) {
	f := newFixture()

	rec := f.do(httptest.NewRequest(http.MethodGet, "/notes/12", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/notes/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.notes.err = apperrors.NoteNotFound(12)
	rec = f.do(httptest.NewRequest(http.MethodGet, "/notes/12", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Note with id 12 not found", errorBody(t, rec).Message)
}

func TestUpdateNote_PartialJSON(t *testing.T) {
	f := newFixture()

	req := jsonRequest(http.MethodPatch, "/notes/3", `{"title":" new "}`)
	req.Header.Set("Authorization", "Bearer good")
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, f.notes.updated.Title)
	assert.Equal(t, "new", *f.notes.updated.Title)
	assert.Nil(t, f.notes.updated.Content)
}

func TestUpdateNote_Forbidden(t *testing.T) {
	f := newFixture()
	f.notes.err = apperrors.Forbidden("You are not allowed to update this note")

	rec := f.do(multipartRequest(t, http.MethodPatch, "/notes/3", map[string]string{"content": "x"}, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", errorBody(t, rec).Error)
}

func TestRemoveNote(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodDelete, "/notes/9", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := f.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":9}`, rec.Body.String())
	assert.Equal(t, int64(7), f.notes.owner)
}

func TestUnknownError_Is500(t *testing.T) {
	f := newFixture()
	f.notes.err = errors.New("connection reset")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/notes/1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := errorBody(t, rec)
	assert.Equal(t, 500, body.StatusCode)
	assert.Equal(t, "connection reset", body.Message)
	assert.NotEmpty(t, body.Timestamp)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture()
	rec := f.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Cannot GET /nope", errorBody(t, rec).Message)
}

func TestValidateFile(t *testing.T) {
	opts := DefaultFileValidation(0)
	assert.NoError(t, ValidateFile(nil, opts))
	assert.NoError(t, ValidateFile(&models.Attachment{FileName: "a.JPG", ContentType: "image/jpeg", Size: 10}, opts))

	err := ValidateFile(&models.Attachment{FileName: "a.png", ContentType: "image/png", Size: 3 * 1024 * 1024}, opts)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	details := appErr.Details.(map[string]any)
	assert.Equal(t, int64(DefaultMaxUploadSize), details["maxSizeBytes"])
	assert.Equal(t, int64(3*1024*1024), details["actualSizeBytes"])
}

func TestValidationMessages(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name string
		req  *http.Request
		msg  string
	}{
		{"blank title", multipartRequest(t, http.MethodPost, "/notes", map[string]string{"title": "  ", "content": "c"}, nil), "Title is required"},
		{"long title", multipartRequest(t, http.MethodPost, "/notes", map[string]string{"title": strings.Repeat("x", 256), "content": "c"}, nil), "Title must not exceed 255 characters"},
		{"missing content", multipartRequest(t, http.MethodPost, "/notes", map[string]string{"title": "t"}, nil), "Content is required"},
		{"long content", multipartRequest(t, http.MethodPost, "/notes", map[string]string{"title": "t", "content": strings.Repeat("x", 1001)}, nil), "Content must not exceed 1,000 characters"},
		{"page zero", httptest.NewRequest(http.MethodGet, "/notes?page=0", nil), "Page must be at least 1"},
		{"page too big", httptest.NewRequest(http.MethodGet, "/notes?page=1001", nil), "Page must not exceed 1000"},
		{"limit too big", httptest.NewRequest(http.MethodGet, "/notes?limit=101", nil), "Limit must not exceed 100"},
		{"limit not a number", httptest.NewRequest(http.MethodGet, "/notes?limit=abc", nil), "Limit must be an integer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(tc.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.msg, errorBody(t, rec).Message)
		})
	}
}

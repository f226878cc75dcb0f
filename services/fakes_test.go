package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"semantic_notes_go/apperrors"
	"semantic_notes_go/data"
	"semantic_notes_go/models"
)

// callLog - общий журнал вызовов фейков, чтобы проверять порядок.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// fakeNotes - хранилище заметок в памяти.
type fakeNotes struct {
	mu         sync.Mutex
	log        *callLog
	nextID     int64
	notes      map[int64]models.Note
	embeddings map[int64][]float32
	calls      int // любые обращения к хранилищу
	createErr  error
	searchHits []models.Note
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{notes: map[int64]models.Note{}, embeddings: map[int64][]float32{}}
}

func (f *fakeNotes) seed(n models.Note) models.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n.ID = f.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Unix(f.nextID, 0)
	}
	n.UpdatedAt = n.CreatedAt
	f.notes[n.ID] = n
	return n
}

func (f *fakeNotes) CreateNote(_ context.Context, note *models.Note, emb []float32) (*models.Note, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := f.seed(*note)
	f.mu.Lock()
	f.embeddings[created.ID] = emb
	f.mu.Unlock()
	return &created, nil
}

func (f *fakeNotes) GetNoteByID(_ context.Context, id int64) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	n, ok := f.notes[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (f *fakeNotes) CountNotes(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return len(f.notes), nil
}

func (f *fakeNotes) sorted() []models.Note {
	out := make([]models.Note, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func window(all []models.Note, offset, limit int) []models.Note {
	if offset >= len(all) {
		return []models.Note{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func (f *fakeNotes) ListNotesPage(_ context.Context, offset, limit int) (int, []models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	all := f.sorted()
	return len(all), window(all, offset, limit), nil
}

func (f *fakeNotes) SearchNotes(_ context.Context, _ []float32, offset, limit int) ([]models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	hits := f.searchHits
	if hits == nil {
		hits = f.sorted()
	}
	return window(hits, offset, limit), nil
}

func (f *fakeNotes) UpdateNote(_ context.Context, note *models.Note, emb []float32) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, ok := f.notes[note.ID]; !ok {
		return nil, nil
	}
	updated := *note
	updated.UpdatedAt = updated.UpdatedAt.Add(time.Second)
	f.notes[note.ID] = updated
	if emb != nil {
		f.embeddings[note.ID] = emb
	}
	return &updated, nil
}

func (f *fakeNotes) DeleteNote(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.log.record("notes.delete")
	if _, ok := f.notes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.notes, id)
	delete(f.embeddings, id)
	return nil
}

// fakeStorage запоминает загрузки и удаления.
type fakeStorage struct {
	mu        sync.Mutex
	log       *callLog
	objects   map[string][]byte
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(_ context.Context, body []byte, key, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, key)
	if f.uploadErr != nil {
		return "", apperrors.StorageUpload(f.uploadErr, key)
	}
	f.objects[key] = body
	return "https://bucket.s3.us-east-1.amazonaws.com/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	f.log.record("storage.delete " + key)
	if f.deleteErr != nil {
		return apperrors.StorageDelete(f.deleteErr, key)
	}
	delete(f.objects, key)
	return nil
}

// fakeEmbedder возвращает фиксированный вектор или ошибку.
type fakeEmbedder struct {
	vec   []float32
	err   error
	calls []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

// fakeUsers - хранилище пользователей в памяти.
type fakeUsers struct {
	nextID    int64
	byEmail   map[string]models.User
	createErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, email, hash string) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[email]; ok {
		return nil, data.ErrDuplicateEmail
	}
	f.nextID++
	u := models.User{ID: f.nextID, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	f.byEmail[email] = u
	return &u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

// fakeHasher - обратимый "хеш" для тестов.
type fakeHasher struct {
	hashCalls int
}

func (f *fakeHasher) HashPassword(password string) (string, error) {
	f.hashCalls++
	return "hashed:" + password, nil
}

func (f *fakeHasher) CheckPasswordHash(password, hash string) bool {
	return hash == "hashed:"+password
}

type fakeTokens struct {
	err error
}

func (f *fakeTokens) GenerateToken(userID int64, email string) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return "token-for-" + email, time.Now().Add(time.Hour), nil
}

var errBoom = errors.New("boom")

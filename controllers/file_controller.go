package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"semantic_notes_go/apperrors"
	"semantic_notes_go/models"
)

const (
	// DefaultMaxUploadSize - 2 MB
	DefaultMaxUploadSize = 2 * 1024 * 1024
	// fileField - имя поля формы, которое ожидает клиент
	fileField = "file"
	// запас на остальные поля multipart-формы
	formOverhead = 1 << 20
)

// FileValidationOptions - ограничения на вложения заметок.
type FileValidationOptions struct {
	MaxSize           int64
	AllowedTypes      []string
	AllowedExtensions []string
}

// DefaultFileValidation - картинки JPEG/PNG не больше maxSize байт.
func DefaultFileValidation(maxSize int64) FileValidationOptions {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return FileValidationOptions{
		MaxSize:           maxSize,
		AllowedTypes:      []string{"image/jpeg", "image/png"},
		AllowedExtensions: []string{".jpg", ".jpeg", ".png"},
	}
}

// ValidateFile проверяет размер, MIME-тип и расширение. nil-файл допустим.
func ValidateFile(file *models.Attachment, opts FileValidationOptions) error {
	if file == nil {
		return nil
	}
	if opts.MaxSize > 0 && file.Size > opts.MaxSize {
		return apperrors.FileSizeExceeded(opts.MaxSize, file.Size)
	}
	if len(opts.AllowedTypes) > 0 && !contains(opts.AllowedTypes, file.ContentType) {
		return apperrors.InvalidFileType(opts.AllowedTypes, file.ContentType)
	}
	ext := strings.ToLower(filepath.Ext(file.FileName))
	if len(opts.AllowedExtensions) > 0 && !contains(opts.AllowedExtensions, ext) {
		return apperrors.InvalidFileExtension(opts.AllowedExtensions, ext)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseNoteForm разбирает multipart-форму заметки: текстовые поля и
// необязательный файл в поле "file". Файл проверяется до чтения в память.
func parseNoteForm(w http.ResponseWriter, r *http.Request, opts FileValidationOptions) (map[string][]string, *models.Attachment, error) {
	// с запасом, чтобы слишком большой файл дошел до ValidateFile с размером в деталях
	r.Body = http.MaxBytesReader(w, r.Body, 2*opts.MaxSize+formOverhead)
	if err := r.ParseMultipartForm(opts.MaxSize + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, apperrors.FileUpload(
				fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", tooLarge.Limit), nil)
		}
		return nil, nil, apperrors.FileUpload("Could not parse multipart form: "+err.Error(), nil)
	}
	// r - копия запроса (mux, мидлвари), сервер ее временные файлы не удалит
	defer r.MultipartForm.RemoveAll()

	fields := r.MultipartForm.Value

	file, header, err := r.FormFile(fileField)
	if errors.Is(err, http.ErrMissingFile) {
		return fields, nil, nil
	}
	if err != nil {
		return nil, nil, apperrors.FileUpload("Could not read uploaded file: "+err.Error(), nil)
	}
	defer file.Close()

	attachment := &models.Attachment{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if err := ValidateFile(attachment, opts); err != nil {
		return nil, nil, err
	}

	attachment.Data, err = io.ReadAll(file)
	if err != nil {
		return nil, nil, apperrors.FileUpload("Could not read uploaded file: "+err.Error(), nil)
	}
	return fields, attachment, nil
}

func formValue(fields map[string][]string, key string) *string {
	values, ok := fields[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// Package apperrors содержит типизированные ошибки приложения и формат
// JSON-ответа об ошибке, который возвращает HTTP-слой.
package apperrors

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

// Error - ошибка приложения с заранее известным HTTP-статусом.
type Error struct {
	Status  int
	Kind    string // попадает в поле "error" ответа
	Message string
	Details any
	Err     error // исходная ошибка, если есть
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorResponse - тело ответа об ошибке.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path,omitempty"`
	Details    any    `json:"details,omitempty"`
}

// TimestampFormat - ISO-8601 с миллисекундами.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// ToResponse формирует тело ответа для указанного пути запроса.
func (e *Error) ToResponse(path string) ErrorResponse {
	return ErrorResponse{
		StatusCode: e.Status,
		Message:    e.Message,
		Error:      e.Kind,
		Timestamp:  time.Now().UTC().Format(TimestampFormat),
		Path:       path,
		Details:    e.Details,
	}
}

// New создает ошибку с произвольным статусом.
func New(status int, kind, message string, details any) *Error {
	return &Error{Status: status, Kind: kind, Message: message, Details: details}
}

// As извлекает *Error из цепочки ошибок.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// --- Заметки ---

func NoteNotFound(id int64) *Error {
	return New(http.StatusNotFound, "Note Not Found", fmt.Sprintf("Note with id %d not found", id), nil)
}

// InvalidPageDetails - детали ошибки InvalidPage.
type InvalidPageDetails struct {
	RequestedPage int `json:"requestedPage"`
	TotalItems    int `json:"totalItems"`
	MaxValidPage  int `json:"maxValidPage"`
}

// InvalidPage возвращается, когда смещение страницы выходит за totalItems.
func InvalidPage(page, totalItems, limit int) *Error {
	maxValidPage := 1
	if limit > 0 && totalItems > 0 {
		maxValidPage = int(math.Ceil(float64(totalItems) / float64(limit)))
	}
	return New(http.StatusBadRequest, "Invalid Page", "Page number exceeds total items", InvalidPageDetails{
		RequestedPage: page,
		TotalItems:    totalItems,
		MaxValidPage:  maxValidPage,
	})
}

// --- Общие HTTP-ошибки ---

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, "Forbidden", message, nil)
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return New(http.StatusUnauthorized, "Unauthorized", message, nil)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, "Conflict", message, nil)
}

func Validation(message string, details any) *Error {
	return New(http.StatusBadRequest, "Bad Request", message, details)
}

func RequestTimeout() *Error {
	return New(http.StatusRequestTimeout, "Request Timeout", "Request Timeout", nil)
}

// Internal оборачивает непредвиденную ошибку. Сообщение исходной ошибки
// передается клиенту как есть.
func Internal(err error) *Error {
	msg := "Internal server error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Status: http.StatusInternalServerError, Kind: "Internal Server Error", Message: msg, Err: err}
}

// Unexpected - ответ на панику в обработчике.
func Unexpected() *Error {
	return New(http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred", nil)
}

// --- Загрузка файлов ---

const fileUploadKind = "File Upload Error"

func FileUpload(message string, details any) *Error {
	return New(http.StatusBadRequest, fileUploadKind, message, details)
}

func FileSizeExceeded(maxSize, actualSize int64) *Error {
	const mb = 1024 * 1024
	return FileUpload(
		fmt.Sprintf("File size too large. Maximum allowed size is %gMB", float64(maxSize)/mb),
		map[string]any{
			"maxSizeBytes":    maxSize,
			"actualSizeBytes": actualSize,
			"maxSizeMB":       float64(maxSize) / mb,
			"actualSizeMB":    math.Round(float64(actualSize)/mb*100) / 100,
		},
	)
}

func InvalidFileType(allowedTypes []string, actualType string) *Error {
	return FileUpload(
		"Invalid file type. Allowed types: "+strings.Join(allowedTypes, ", "),
		map[string]any{"allowedTypes": allowedTypes, "actualType": actualType},
	)
}

func InvalidFileExtension(allowedExtensions []string, actualExtension string) *Error {
	return FileUpload(
		"Invalid file extension. Allowed extensions: "+strings.Join(allowedExtensions, ", "),
		map[string]any{"allowedExtensions": allowedExtensions, "actualExtension": actualExtension},
	)
}

// --- Внешние сервисы ---

// StorageConfiguration - фатальная ошибка конфигурации хранилища при старте.
func StorageConfiguration(missing string) *Error {
	return New(http.StatusInternalServerError, "S3 Configuration Error", "S3 configuration error: "+missing,
		map[string]any{"missingConfiguration": missing})
}

func StorageUpload(err error, fileName string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Kind:    "S3 Upload Error",
		Message: "Failed to upload file to S3",
		Details: map[string]any{"fileName": fileName, "originalError": errMessage(err)},
		Err:     err,
	}
}

func StorageDelete(err error, fileName string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Kind:    "S3 Delete Error",
		Message: "Failed to delete file from S3",
		Details: map[string]any{"fileName": fileName, "originalError": errMessage(err)},
		Err:     err,
	}
}

// Upstream - сбой вызова внешнего сервиса (например, сервиса эмбеддингов).
func Upstream(service string, err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Kind:    "Upstream Error",
		Message: service + " request failed",
		Details: map[string]any{"originalError": errMessage(err)},
		Err:     err,
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

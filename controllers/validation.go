package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"semantic_notes_go/apperrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// в деталях ошибки - имена полей из JSON
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError - одна ошибка валидации поля.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// fieldMessages - тексты ошибок для полей заметок и пагинации, ключ "Поле.правило".
var fieldMessages = map[string]string{
	"Title.required":   "Title is required",
	"Title.min":        "Title must be at least 1 character long",
	"Title.max":        "Title must not exceed 255 characters",
	"Content.required": "Content is required",
	"Content.min":      "Content must be at least 1 character long",
	"Content.max":      "Content must not exceed 1,000 characters",
	"Page.min":         "Page must be at least 1",
	"Page.max":         "Page must not exceed 1000",
	"Limit.min":        "Limit must be at least 1",
	"Limit.max":        "Limit must not exceed 100",
	"Query.required":   "Query is required",
	"Query.max":        "Query must not exceed 1,000 characters",
}

func describe(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fe.Field() + " should not be empty"
	case "email":
		return fe.Field() + " must be an email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be longer than or equal to %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must not be less than %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be shorter than or equal to %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must not be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed on the %s rule", fe.Field(), fe.Tag())
	}
}

// validateStruct проверяет DTO по тегам validate и возвращает ошибку 400
// со списком полей.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Internal(err)
	}

	details := make([]FieldError, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := describe(fe)
		details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag(), Message: msg})
		messages = append(messages, msg)
	}
	return apperrors.Validation(strings.Join(messages, "; "), details)
}

// decodeJSON читает тело запроса в dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("Request body is empty", nil)
		}
		return apperrors.Validation("Invalid request body: "+err.Error(), nil)
	}
	return nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}

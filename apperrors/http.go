package apperrors

import (
	"encoding/json"
	"log"
	"net/http"
)

// Write отправляет ошибку в едином JSON-формате. Ошибки без статуса
// считаются внутренними (500).
func Write(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal(err)
	}
	if appErr.Status >= http.StatusInternalServerError {
		log.Printf("%s %s -> %d: %v", r.Method, r.URL.Path, appErr.Status, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	if encErr := json.NewEncoder(w).Encode(appErr.ToResponse(r.URL.Path)); encErr != nil {
		log.Printf("Ошибка кодирования ответа об ошибке: %v", encErr)
	}
}

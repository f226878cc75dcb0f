package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"semantic_notes_go/apperrors"
)

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// заголовки уже отправлены
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.Write(w, r, err)
}

// NotFound - ответ для неизвестных маршрутов.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, apperrors.New(http.StatusNotFound, "Not Found", "Cannot "+r.Method+" "+r.URL.Path, nil))
}

// MethodNotAllowed - маршрут есть, но метод не поддерживается.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, apperrors.New(http.StatusMethodNotAllowed, "Method Not Allowed", "Cannot "+r.Method+" "+r.URL.Path, nil))
}

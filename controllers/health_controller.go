package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"semantic_notes_go/apperrors"
)

// Pinger - *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthController отвечает на GET /health.
type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

// HealthCheck возвращает статус "OK", если сервер работает и база доступна.
func (c *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if c.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := c.db.PingContext(ctx); err != nil {
			log.Printf("HealthCheck: база данных недоступна: %v", err)
			respondError(w, r, apperrors.New(http.StatusServiceUnavailable, "Service Unavailable", "Database is unavailable", nil))
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

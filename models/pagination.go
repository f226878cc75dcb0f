package models

// PaginationQuery - параметры GET /notes.
type PaginationQuery struct {
	Page   int    `validate:"min=1,max=1000"`
	Limit  int    `validate:"min=1,max=100"`
	Search string `validate:"max=1000"`
}

// PaginationMeta описывает положение страницы в общем списке.
type PaginationMeta struct {
	Page            int    `json:"page"`
	Limit           int    `json:"limit"`
	TotalItems      int    `json:"totalItems"`
	TotalPages      int    `json:"totalPages"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	Search          string `json:"search,omitempty"`
}

// PaginatedResult - страница заметок с метаданными. Вычисляется на каждый запрос.
type PaginatedResult struct {
	Items []Note         `json:"items"`
	Meta  PaginationMeta `json:"meta"`
}

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TEIEmbedder вызывает HTTP-эндпоинт в формате text-embeddings-inference:
// POST {"inputs": "..."} -> [[...]]. Повторных попыток нет.
type TEIEmbedder struct {
	endpoint string
	client   *http.Client
}

func NewTEIEmbedder(endpoint string) *TEIEmbedder {
	if endpoint == "" {
		endpoint = "http://localhost:8080/embed"
	}
	return &TEIEmbedder{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type teiRequest struct {
	Inputs string `json:"inputs"`
}

// Embed возвращает первую строку ответа.
func (e *TEIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(teiRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var rows [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyEmbedding
	}

	return rows[0], nil
}

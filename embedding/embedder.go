// Package embedding получает векторные представления текста от внешних сервисов.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyEmbedding возвращается, если сервис ответил пустым набором векторов.
var ErrEmptyEmbedding = errors.New("Embedding API returned empty result")

// Embedder - источник эмбеддингов фиксированной длины.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options - общие параметры для всех провайдеров.
type Options struct {
	URL     string // эндпоинт TEI
	Model   string
	APIKey  string
	BaseURL string // базовый URL OpenAI-совместимого API, пусто - api.openai.com
}

// NewEmbedder выбирает реализацию по имени провайдера: "tei" или "openai".
func NewEmbedder(provider string, opts Options) (Embedder, error) {
	switch provider {
	case "", "tei":
		return NewTEIEmbedder(opts.URL), nil
	case "openai":
		if opts.APIKey == "" {
			return nil, errors.New("openai embedder requires an API key")
		}
		return NewOpenAIEmbedder(opts.APIKey, opts.Model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: tei, openai)", provider)
	}
}

package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"jobscout/internal/config"
	"jobscout/internal/metrics"
	"jobscout/internal/pkg/logger"
)

var (
	ErrProvider          = errors.New("embedding provider error")
	ErrMalformedResponse = errors.New("malformed embedding response")
)

// ProviderError carries the provider's non-2xx status and raw body. A
// transport failure is reported with StatusCode 0.
type ProviderError struct {
	StatusCode int
	Body       string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("embedding provider request failed: %v", e.Cause)
	}
	return fmt.Sprintf("embedding provider returned status %d: %s", e.StatusCode, e.Body)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether err is a transport failure, a rate limit or a
// provider-side 5xx. The gateway itself never retries.
func Retryable(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.StatusCode == 0 || pe.StatusCode == http.StatusTooManyRequests || pe.StatusCode >= http.StatusInternalServerError
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Gateway calls an OpenAI-compatible embeddings endpoint. It issues exactly one
// request per Embed call and keeps no state between calls.
type Gateway struct {
	client    *resty.Client
	url       string
	model     string
	maxChars  int
	dimension int
	logger    *zap.Logger
}

func NewGateway(cfg config.EmbeddingConfig, log *zap.Logger) (*Gateway, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("embedding api key is required")
	}
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = config.DefaultEmbeddingURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = config.DefaultEmbeddingModel
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = config.DefaultEmbeddingMaxChars
	}

	client := resty.New().
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	return &Gateway{
		client:    client,
		url:       cfg.URL,
		model:     cfg.Model,
		maxChars:  cfg.MaxChars,
		dimension: cfg.Dimension,
		logger:    logger.Component(log, "embedding_gateway"),
	}, nil
}

func (g *Gateway) Model() string  { return g.model }
func (g *Gateway) Dimension() int { return g.dimension }

// Embed returns the vector for text. The call has no timeout of its own.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	input := Truncate(text, g.maxChars)
	start := time.Now()

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Input: input, Model: g.model}).
		Post(g.url)
	if err != nil {
		g.observe("transport_error", start)
		g.logger.Warn("embedding request failed", zap.String(logger.FieldStatus, "error"), zap.Error(err))
		return nil, &ProviderError{Cause: err}
	}

	if !resp.IsSuccess() {
		g.observe("provider_error", start)
		body := string(resp.Body())
		g.logger.Warn("embedding provider rejected request",
			zap.String(logger.FieldStatus, "error"),
			zap.Int("http_status", resp.StatusCode()),
			zap.String("body", body),
		)
		return nil, &ProviderError{StatusCode: resp.StatusCode(), Body: body}
	}

	vec, err := g.decode(resp.Body())
	if err != nil {
		g.observe("malformed", start)
		g.logger.Warn("embedding response rejected", zap.String(logger.FieldStatus, "error"), zap.Error(err))
		return nil, err
	}

	g.observe("ok", start)
	g.logger.Debug("embedding generated",
		zap.String(logger.FieldStatus, "ok"),
		zap.Int("input_chars", len([]rune(input))),
		zap.Int("dimension", len(vec)),
	)
	return vec, nil
}

func (g *Gateway) decode(body []byte) ([]float32, error) {
	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: missing embedding", ErrMalformedResponse)
	}

	raw := parsed.Data[0].Embedding
	if g.dimension > 0 && len(raw) != g.dimension {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrMalformedResponse, len(raw), g.dimension)
	}

	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = float32(v)
	}
	return out, nil
}

func (g *Gateway) observe(result string, start time.Time) {
	metrics.EmbeddingRequests.WithLabelValues(result).Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

// Truncate cuts text to at most maxChars runes.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	if len(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

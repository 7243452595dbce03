// Package translate converts Vietnamese product names into English via an
// HTTP translation service with a LibreTranslate-compatible API.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Config controls the HTTP translator.
type Config struct {
	Endpoint string
	APIKey   string
	Source   string
	Target   string
	Timeout  time.Duration
}

// Client calls the translation service.
type Client struct {
	http   *resty.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient builds an HTTP translator.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("translator endpoint is required")
	}
	if cfg.Source == "" {
		cfg.Source = "vi"
	}
	if cfg.Target == "" {
		cfg.Target = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	http := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http, cfg: cfg, logger: logger}, nil
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate returns the English rendering of text. An empty result is
// returned as-is; the caller decides whether that skips the product.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(translateRequest{
			Q:      text,
			Source: c.cfg.Source,
			Target: c.cfg.Target,
			APIKey: c.cfg.APIKey,
		}).
		Post(c.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("translate request: status %d", resp.StatusCode())
	}
	var payload translateResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fmt.Errorf("decode translation: %w", err)
	}
	return payload.TranslatedText, nil
}

// Passthrough echoes input text. Meant for local development where no
// translation service is running.
type Passthrough struct{}

// Translate returns the text unchanged.
func (Passthrough) Translate(_ context.Context, text string) (string, error) {
	return text, nil
}

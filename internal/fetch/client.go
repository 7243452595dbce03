// Package fetch drives the vendor HTTP APIs: the store directory, the
// category menu, and the paginated product listing endpoint. One Client
// (and its underlying HTTP client) is constructed per run and reused for
// every request in that run.
package fetch

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
)

// Config holds the endpoint and request settings for one chain's APIs.
type Config struct {
	ListingURL     string
	StoresURL      string
	MenuURL        string
	ProductBaseURL string
	Referer        string
	Origin         string
	APIKey         string
	Platform       string
	UserAgent      string
	Timeout        time.Duration
	PageDelay      time.Duration
}

// Client issues authenticated requests against the vendor APIs.
type Client struct {
	http    *resty.Client
	cfg     Config
	chain   catalog.Chain
	session catalog.Session
	limiter *rate.Limiter
	archive catalog.Archive
	logger  *zap.Logger
}

// NewClient builds a Client bound to a session. The session is used
// unmodified for the run's duration; there is no refresh logic here.
func NewClient(cfg Config, chain catalog.Chain, session catalog.Session, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json, text/plain, */*").
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", session.Token).
		SetHeader("deviceid", session.DeviceID)
	if cfg.APIKey != "" {
		httpClient.SetHeader("xapikey", cfg.APIKey)
	}
	if cfg.Platform != "" {
		httpClient.SetHeader("platform", cfg.Platform)
	}
	if cfg.Origin != "" {
		httpClient.SetHeader("origin", cfg.Origin)
	}
	if cfg.Referer != "" {
		httpClient.SetHeader("referer", cfg.Referer)
	}
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}
	// The limiter starts with a banked token; spend it here so the full
	// delay applies between the first and second page.
	limiter := rate.NewLimiter(rate.Every(cfg.PageDelay), 1)
	limiter.Allow()
	return &Client{
		http:    httpClient,
		cfg:     cfg,
		chain:   chain,
		session: session,
		limiter: limiter,
		logger:  logger,
	}
}

// WithArchive makes the client archive every fetched listing page body.
func (c *Client) WithArchive(archive catalog.Archive) *Client {
	c.archive = archive
	return c
}

// Chain returns the chain this client crawls.
func (c *Client) Chain() catalog.Chain {
	return c.chain
}

// ProductBaseURL returns the prefix for product detail URLs.
func (c *Client) ProductBaseURL() string {
	return c.cfg.ProductBaseURL
}

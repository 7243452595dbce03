package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
)

// InterceptorConfig controls the headless token interceptor.
type InterceptorConfig struct {
	// StartURL is the storefront page whose scripts call the vendor API.
	StartURL string
	// APIHost marks which outgoing requests carry the credentials.
	APIHost           string
	UserAgent         string
	NavigationTimeout time.Duration
}

// Interceptor acquires a session by loading the storefront in headless
// Chrome and capturing the Authorization and device headers the page
// attaches to its own API calls.
type Interceptor struct {
	cfg         InterceptorConfig
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

// NewInterceptor creates the headless provider.
func NewInterceptor(cfg InterceptorConfig, logger *zap.Logger) (*Interceptor, error) {
	if cfg.StartURL == "" {
		return nil, fmt.Errorf("session start url is required")
	}
	if cfg.APIHost == "" {
		return nil, fmt.Errorf("session api host is required")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Interceptor{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Close cancels the allocator context.
func (i *Interceptor) Close() {
	i.allocCancel()
}

// AcquireSession loads the storefront and waits for its first credentialed
// API request.
func (i *Interceptor) AcquireSession(ctx context.Context) (catalog.Session, error) {
	taskCtx, taskCancel := chromedp.NewContext(i.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, i.cfg.NavigationTimeout)
	defer cancel()

	capture := newTokenCapture(i.cfg.APIHost)
	chromedp.ListenTarget(taskCtx, capture.captureEvent)

	actions := []chromedp.Action{
		i.networkSetupAction(),
		chromedp.Navigate(i.cfg.StartURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return catalog.Session{}, fmt.Errorf("storefront navigation: %w", err)
	}

	select {
	case <-capture.done:
	case <-taskCtx.Done():
		return catalog.Session{}, fmt.Errorf("session capture: %w", taskCtx.Err())
	case <-ctx.Done():
		return catalog.Session{}, fmt.Errorf("session capture: %w", ctx.Err())
	}

	session := capture.session()
	i.logger.Info("session acquired", zap.String("device_id", session.DeviceID))
	return session, nil
}

func (i *Interceptor) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if i.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(i.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

type tokenCapture struct {
	apiHost string

	mu       sync.Mutex
	token    string
	deviceID string

	once sync.Once
	done chan struct{}
}

func newTokenCapture(apiHost string) *tokenCapture {
	return &tokenCapture{
		apiHost: apiHost,
		done:    make(chan struct{}),
	}
}

func (c *tokenCapture) captureEvent(ev any) {
	req, ok := ev.(*network.EventRequestWillBeSent)
	if !ok || req.Request == nil {
		return
	}
	if !strings.Contains(req.Request.URL, c.apiHost) {
		return
	}
	token := headerValue(req.Request.Headers, "Authorization")
	if token == "" {
		return
	}
	c.mu.Lock()
	c.token = token
	if device := headerValue(req.Request.Headers, "deviceid"); device != "" {
		c.deviceID = device
	}
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

func (c *tokenCapture) session() catalog.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return catalog.Session{Token: c.token, DeviceID: c.deviceID}
}

func headerValue(headers network.Headers, key string) string {
	for name, value := range headers {
		if !strings.EqualFold(name, key) {
			continue
		}
		if s, ok := value.(string); ok {
			return s
		}
		return fmt.Sprint(value)
	}
	return ""
}

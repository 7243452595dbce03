// Package session acquires the vendor API credentials a crawl run needs.
// Production uses a headless browser that intercepts the storefront's own
// API traffic; deployments with a long-lived token use the static provider.
package session

import (
	"context"
	"fmt"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
)

// Static returns a fixed session from configuration.
type Static struct {
	session catalog.Session
}

// NewStatic builds a provider around a preconfigured token.
func NewStatic(token, deviceID string) (*Static, error) {
	if token == "" {
		return nil, fmt.Errorf("session token is required")
	}
	return &Static{session: catalog.Session{Token: token, DeviceID: deviceID}}, nil
}

// AcquireSession returns the configured session.
func (s *Static) AcquireSession(context.Context) (catalog.Session, error) {
	return s.session, nil
}

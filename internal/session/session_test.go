package session

import (
	"context"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	_, err := NewStatic("", "")
	require.Error(t, err)

	provider, err := NewStatic("Bearer token-123", "device-9")
	require.NoError(t, err)

	session, err := provider.AcquireSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer token-123", session.Token)
	require.Equal(t, "device-9", session.DeviceID)
}

func TestTokenCaptureMatchesAPIHost(t *testing.T) {
	t.Parallel()

	capture := newTokenCapture("apibhx.tgdd.vn")

	// Static asset traffic carries no credentials and is ignored.
	capture.captureEvent(&network.EventRequestWillBeSent{
		Request: &network.Request{URL: "https://cdn.tgdd.vn/app.js"},
	})
	capture.captureEvent(&network.EventRequestWillBeSent{
		Request: &network.Request{
			URL:     "https://apibhx.tgdd.vn/Category/V2/GetCate",
			Headers: network.Headers{"referer": "https://www.bachhoaxanh.com"},
		},
	})
	select {
	case <-capture.done:
		t.Fatal("capture completed without a credentialed request")
	default:
	}

	capture.captureEvent(&network.EventRequestWillBeSent{
		Request: &network.Request{
			URL: "https://apibhx.tgdd.vn/Category/V2/GetCate",
			Headers: network.Headers{
				"Authorization": "Bearer token-123",
				"DeviceId":      "device-9",
			},
		},
	})

	select {
	case <-capture.done:
	default:
		t.Fatal("capture did not complete")
	}
	session := capture.session()
	require.Equal(t, "Bearer token-123", session.Token)
	require.Equal(t, "device-9", session.DeviceID)
}

func TestTokenCaptureIgnoresNonRequestEvents(t *testing.T) {
	t.Parallel()

	capture := newTokenCapture("apibhx.tgdd.vn")
	capture.captureEvent(&network.EventResponseReceived{})
	capture.captureEvent(&network.EventRequestWillBeSent{})
	require.Empty(t, capture.session().Token)
}

package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientTranslates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req translateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Thịt heo ba rọi", req.Q)
		require.Equal(t, "vi", req.Source)
		require.Equal(t, "en", req.Target)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"translatedText": "pork belly"})
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	got, err := client.Translate(context.Background(), "Thịt heo ba rọi")
	require.NoError(t, err)
	require.Equal(t, "pork belly", got)
}

func TestClientEmptyInputShortCircuits(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Endpoint: "http://localhost:0"}, nil)
	require.NoError(t, err)

	got, err := client.Translate(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestClientSurfacesServiceErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = client.Translate(context.Background(), "Sữa tươi")
	require.Error(t, err)
}

func TestPassthrough(t *testing.T) {
	t.Parallel()

	got, err := Passthrough{}.Translate(context.Background(), "Thịt heo")
	require.NoError(t, err)
	require.Equal(t, "Thịt heo", got)
}

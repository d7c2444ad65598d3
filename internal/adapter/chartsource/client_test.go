package chartsource

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(timeout time.Duration) *Client {
	return NewClient(timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Fetch_Success(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest.png", r.URL.Path)
		assert.Equal(t, "image/*", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	data, err := testClient(5*time.Second).Fetch(context.Background(), srv.URL+"/latest.png")

	require.NoError(t, err)
	assert.Equal(t, png, data)
}

func TestClient_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		wantErr string
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
			timeout: 5 * time.Second,
			wantErr: "status 404",
		},
		{
			name: "oversized body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write(bytes.Repeat([]byte{1}, MaxImageBytes+1))
			},
			timeout: 5 * time.Second,
			wantErr: "size limit",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
			wantErr: "fetch chart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := testClient(tt.timeout).Fetch(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClient_Fetch_BadURL(t *testing.T) {
	_, err := testClient(time.Second).Fetch(context.Background(), "://nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create request")
}

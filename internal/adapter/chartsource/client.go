// Package chartsource downloads chart images over HTTP. It is a single
// attempt with a timeout; scheduling and retry belong to the caller.
package chartsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// MaxImageBytes caps the size of a downloaded chart.
const MaxImageBytes = 16 << 20

var errTooLarge = errors.New("chart image exceeds size limit")

// Client fetches chart images.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client whose requests time out after timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch downloads the image at url and returns its raw bytes.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch chart: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read chart body: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, errTooLarge
	}

	c.logger.Debug("chart fetched",
		"url", url,
		"bytes", len(data),
		"content_type", resp.Header.Get("Content-Type"),
		"duration", time.Since(start),
	)
	return data, nil
}

package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// HTTPRenderer calls a remote rendering service that accepts markup plus a
// viewport and answers with a PNG screenshot of the full page.
type HTTPRenderer struct {
	endpoint   string
	httpClient *http.Client
}

func NewHTTPRenderer(endpoint string, httpClient *http.Client) *HTTPRenderer {
	return &HTTPRenderer{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type renderRequest struct {
	HTML     string `json:"html"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FullPage bool   `json:"full_page"`
}

// RenderFile posts the staged document's markup to the render service.
func (r *HTTPRenderer) RenderFile(ctx context.Context, path string, viewport Viewport) ([]byte, error) {
	markup, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read staged document: %w", err)
	}

	body, err := json.Marshal(renderRequest{
		HTML:     string(markup),
		Width:    viewport.Width,
		Height:   viewport.Height,
		FullPage: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("render service status %d: %s", resp.StatusCode, string(payload))
	}

	return io.ReadAll(resp.Body)
}

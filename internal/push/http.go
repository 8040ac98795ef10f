package push

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient empuja contra el receiver interno de cmd/service:
// POST {endpoint}/connections/{id}. Un 410 significa que la conexión ya no
// está residente en ese proceso.
type HTTPClient struct {
	endpoint string
	hc       *http.Client
}

func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		hc:       &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Send(ctx context.Context, connectionID string, data []byte) error {
	url := c.endpoint + "/connections/" + connectionID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("push: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("push: %s: %w", connectionID, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusGone:
		return ErrGone
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("push: %s: unexpected status %d", connectionID, resp.StatusCode)
	}
}

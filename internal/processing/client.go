package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client fetches processing records over HTTP. Used by the watch command to
// poll a running server.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a Client for the given base URL, e.g.
// "http://localhost:8080/api".
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the processing record for a document.
func (c *Client) Fetch(ctx context.Context, documentID uuid.UUID) (*Record, error) {
	url := fmt.Sprintf("%s/processing/%s", c.base, documentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch processing record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch processing record: status %d: %s", resp.StatusCode, body)
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode processing record: %w", err)
	}

	return &rec, nil
}

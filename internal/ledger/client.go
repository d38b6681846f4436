// Package ledger mirrors committed state changes to the external
// blockchain ledger. Mirroring is fire-and-forget: at most one local
// commit, best-effort external delivery, every failure swallowed after
// logging.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/civicchain/civic-service/internal/config"
	"github.com/civicchain/civic-service/internal/events"
)

// Notification is one committed state change offered to the ledger.
type Notification struct {
	ID      string           `json:"id"`
	Kind    events.EventType `json:"kind"`
	IssueID string           `json:"issue_id,omitempty"`
	UserID  string           `json:"user_id,omitempty"`
	Payload interface{}      `json:"payload,omitempty"`
}

// Client is the boundary to the external ledger. Mirror returns an opaque
// reference string on success; the core persists it when available.
type Client interface {
	Mirror(ctx context.Context, n Notification) (string, error)
}

type httpClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient builds a ledger client for the configured endpoint, or nil
// when no endpoint is configured (mirroring disabled).
func NewHTTPClient(cfg config.LedgerConfig) Client {
	if cfg.Endpoint == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpClient{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) Mirror(ctx context.Context, n Notification) (string, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ledger responded with status %d", resp.StatusCode)
	}

	var result struct {
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// Mirrored but no usable reference; the ledger ref stays null.
		return "", nil
	}
	return result.Reference, nil
}

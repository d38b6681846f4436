// Package wallet is the boundary to the external wallet custody
// collaborator, consulted once per user at creation time.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/civicchain/civic-service/internal/config"
)

// Provider provisions an opaque wallet reference for a new user. Failure
// must never block user creation; callers log and continue.
type Provider interface {
	CreateWallet(ctx context.Context, userID string) (string, error)
}

type httpProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProvider builds a provider for the configured endpoint, or nil
// when provisioning is disabled.
func NewHTTPProvider(cfg config.WalletConfig) Provider {
	if cfg.Endpoint == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpProvider{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *httpProvider) CreateWallet(ctx context.Context, userID string) (string, error) {
	body, err := json.Marshal(map[string]string{"user_id": userID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("wallet provider responded with status %d", resp.StatusCode)
	}

	var result struct {
		WalletRef string `json:"wallet_ref"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.WalletRef == "" {
		return "", errors.New("wallet provider returned empty reference")
	}
	return result.WalletRef, nil
}

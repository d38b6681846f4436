// Package classify is the boundary to the image classification
// collaborator. Classification never fails toward the caller: any
// unavailability degrades to the OTHER category with default urgency.
package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/civicchain/civic-service/internal/config"
	"github.com/civicchain/civic-service/internal/domain"
)

// DefaultUrgency accompanies the OTHER fallback category.
const DefaultUrgency = 5.0

// Classifier derives a category and urgency from an image.
type Classifier interface {
	Classify(ctx context.Context, imageURL string) (domain.IssueCategory, float64)
}

type httpClassifier struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPClassifier builds a classifier against the configured endpoint.
// Without an endpoint every call returns the fallback immediately.
func NewHTTPClassifier(cfg config.ClassifyConfig, logger *zap.Logger) Classifier {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpClassifier{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (c *httpClassifier) Classify(ctx context.Context, imageURL string) (domain.IssueCategory, float64) {
	if c.endpoint == "" {
		return domain.CategoryOther, DefaultUrgency
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?image="+imageURL, nil)
	if err != nil {
		return domain.CategoryOther, DefaultUrgency
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("classifier unavailable", zap.Error(err))
		return domain.CategoryOther, DefaultUrgency
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("classifier error status", zap.Int("status", resp.StatusCode))
		return domain.CategoryOther, DefaultUrgency
	}

	var result struct {
		Category string  `json:"category"`
		Urgency  float64 `json:"urgency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn("classifier response unreadable", zap.Error(err))
		return domain.CategoryOther, DefaultUrgency
	}

	category := domain.IssueCategory(result.Category)
	if !category.Valid() {
		return domain.CategoryOther, DefaultUrgency
	}
	return category, result.Urgency
}

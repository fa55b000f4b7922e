package activation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/glowmart/loyalty/internal/domain/model"
)

// Client confirms a redeemed benefit with the external benefits service.
type Client interface {
	Activate(ctx context.Context, tx *model.Transaction) error
}

// HTTPClient implements Client via HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// request mirrors the JSON payload expected by the benefits service.
type request struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id,omitempty"`
	Points        int64  `json:"points"`
	Reason        string `json:"reason"`
}

// NewHTTPClient creates an HTTP activation client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse activation url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("activation url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Activate posts the redemption for confirmation. A conflict means the
// benefit was already activated and counts as success.
func (c *HTTPClient) Activate(ctx context.Context, tx *model.Transaction) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/benefits/activate")

	payload, err := json.Marshal(request{
		TransactionID: tx.ID.String(),
		Points:        -tx.Points,
		Reason:        tx.Reason,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		// Already activated; at-least-once confirmation is fine.
		return nil
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("activation request failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("activation error: %s", resp.Status)
	}
}

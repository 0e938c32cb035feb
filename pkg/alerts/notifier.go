package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fixlocal/fixlocal-backend/pkg/config"
	"github.com/fixlocal/fixlocal-backend/pkg/logger"
)

const defaultTimeout = 5 * time.Second

// Notifier posts operational alerts to the configured webhook. It is a
// best-effort channel: callers log failures and move on.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	logg       *logger.Logger
}

type payload struct {
	Text    string         `json:"text"`
	Context payloadContext `json:"context"`
}

type payloadContext struct {
	Description string `json:"description"`
	Timestamp   string `json:"ts"`
	Message     string `json:"message"`
}

// New builds a Notifier. An empty webhook URL yields a no-op notifier so
// callers never need to nil-check.
func New(cfg config.AlertsConfig, logg *logger.Logger) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logg:       logg,
	}
}

// Send posts a single alert. Failures are returned for the caller to log but
// never carry retry semantics of their own.
func (n *Notifier) Send(ctx context.Context, description, message string) error {
	if n == nil || n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(payload{
		Text: fmt.Sprintf("[fixlocal] %s", description),
		Context: payloadContext{
			Description: description,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Message:     message,
		},
	})
	if err != nil {
		return fmt.Errorf("encoding alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}

package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// LogNotifier writes emitted signals to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, sig Signal) error {
	log.Info().
		Str("symbol", sig.Symbol).
		Str("timeframe", sig.Timeframe).
		Str("side", string(sig.Side)).
		Float64("price", sig.Price).
		Float64("confidence", sig.Confidence).
		Str("reason", sig.Reason).
		Time("bar", sig.Timestamp).
		Msg("signal emitted")
	return nil
}

// WebhookNotifier POSTs the signal as JSON to a configured endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, sig Signal) error {
	body, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/reviewharvest/models"
)

// Event types.
const (
	EventHarvestCompleted = "harvest.completed"
	EventHarvestFailed    = "harvest.failed"
)

// SignatureHeader carries "sha256=<hex>" of the body when a secret is set.
const SignatureHeader = "X-Harvest-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string      `json:"type"`
	RunID     string      `json:"run_id"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Summary is the Data of harvest.* events. Reviews are not included;
// OutputPath points at them.
type Summary struct {
	Site       string              `json:"site"`
	ProductID  string              `json:"product_id"`
	URL        string              `json:"url"`
	Count      int                 `json:"count"`
	MaxCount   int                 `json:"max_count"`
	OutputPath string              `json:"output_path,omitempty"`
	Stats      models.HarvestStats `json:"stats"`
	Error      *models.ErrorDetail `json:"error,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, runID string, data interface{}) *Event {
	return &Event{Type: eventType, RunID: runID, Timestamp: time.Now().Unix(), Data: data}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Client delivers events to a single endpoint.
type Client struct {
	URL     string
	Secret  string
	Timeout time.Duration

	// Delays between async attempts; the first entry is normally zero.
	Delays []time.Duration

	httpClient *http.Client
}

// NewClient returns a client with the default retry schedule (0s, 1s, 5s, 30s).
func NewClient(url, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		URL:        url,
		Secret:     secret,
		Timeout:    timeout,
		Delays:     []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if a secret is configured.
func (c *Client) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ReviewHarvest-Webhook/1.0")
	if c.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(c.Secret, body))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends the event in the background, retrying on the client's
// delay schedule. The returned channel is closed when delivery ends, either
// way; callers that exit right after a run can wait on it.
func (c *Client) DeliverAsync(event *Event) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for attempt, delay := range c.Delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
			err := c.Deliver(ctx, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", c.URL,
					"event", event.Type,
					"run_id", event.RunID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", c.URL,
				"event", event.Type,
				"run_id", event.RunID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", c.URL,
			"event", event.Type,
			"run_id", event.RunID,
		)
	}()
	return done
}

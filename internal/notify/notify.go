// Package notify announces newly logged attendance.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/attendance-tracker/internal/attendance"
)

// Notifier is told about every entry the ledger writes.
type Notifier interface {
	Notify(ctx context.Context, entry attendance.Entry) error
}

// LogNotifier prints one console line per entry.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, entry attendance.Entry) error {
	log.Printf("Logged attendance for %s with %s", entry.Name, entry.FormattedConfidence())
	return nil
}

// Event is the JSON body posted by WebhookNotifier.
type Event struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// WebhookNotifier posts each entry as JSON to a URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier posting to url.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, entry attendance.Entry) error {
	body, err := json.Marshal(Event{
		ID:         uuid.New().String(),
		Name:       entry.Name,
		Timestamp:  entry.Timestamp.Format(time.RFC3339),
		Confidence: entry.Confidence,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// Multi forwards every entry to all notifiers and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, entry attendance.Entry) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

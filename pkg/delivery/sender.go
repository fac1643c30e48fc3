package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hookpulse/hookpulse/pkg/model"
)

const maxExcerptBytes = 512

// Result is the classified outcome of one delivery call.
type Result struct {
	StatusCode int
	Excerpt    string
	Err        error
}

// Success reports a 2xx response.
func (r Result) Success() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Permanent reports a failure that retrying cannot fix (4xx).
func (r Result) Permanent() bool {
	return r.Err == nil && r.StatusCode >= 400 && r.StatusCode < 500
}

// Sender performs the destination HTTP POST for a single event.
type Sender struct {
	client *http.Client
}

func NewSender(timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts the event payload to url. The event id is injected into the
// body so receivers can deduplicate; delivery is at-least-once. The request
// deliberately outlives caller cancellation: an in-flight call runs to the
// client timeout so its true outcome can be recorded during shutdown.
func (s *Sender) Send(ctx context.Context, url string, eventID uuid.UUID, eventType string, payload model.JSONB) Result {
	body := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["event_id"] = eventID.String()

	data, err := json.Marshal(body)
	if err != nil {
		return Result{Err: fmt.Errorf("marshaling payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return Result{Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-HookPulse-Event", eventType)
	req.Header.Set("X-HookPulse-Event-ID", eventID.String())

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxExcerptBytes))

	return Result{
		StatusCode: resp.StatusCode,
		Excerpt:    string(excerpt),
	}
}

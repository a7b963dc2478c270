package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// deliveryError covers webhook post/delete failures. These are logged and
// never retried; presence state does not depend on them.
type deliveryError struct {
	Op     string
	Status int
	Err    error
}

func (e *deliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("webhook %s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("webhook %s: %v", e.Op, e.Err)
}

func (e *deliveryError) Unwrap() error { return e.Err }

type webhookMessage struct {
	Content string `json:"content"`
}

type webhookMessageCreated struct {
	ID string `json:"id"`
}

// webhookAlerter maintains the single standing "server down" alert on a
// Discord webhook channel. At most one alert message id is held at a time.
// A nil or unconfigured alerter turns every call into a logged no-op.
type webhookAlerter struct {
	url  string
	http *http.Client

	mu        sync.Mutex
	messageID string
}

func newWebhookAlerter(url string, timeout time.Duration) *webhookAlerter {
	return &webhookAlerter{
		url:  strings.TrimSpace(url),
		http: &http.Client{Timeout: timeout},
	}
}

func (w *webhookAlerter) enabled() bool {
	return w != nil && w.url != ""
}

// PostAlert sends the alert text and records the created message id so the
// alert can be deleted on recovery. wait=true makes Discord return the
// created message instead of a bare 204.
func (w *webhookAlerter) PostAlert(ctx context.Context, text string) error {
	if !w.enabled() {
		logger.Debug("webhook not configured; alert skipped")
		return nil
	}
	body, err := fastJSONMarshal(webhookMessage{Content: text})
	if err != nil {
		return &deliveryError{Op: "post", Err: err}
	}
	postURL := w.url
	if strings.Contains(postURL, "?") {
		postURL += "&wait=true"
	} else {
		postURL += "?wait=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, bytes.NewReader(body))
	if err != nil {
		return &deliveryError{Op: "post", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.http.Do(req)
	if err != nil {
		return &deliveryError{Op: "post", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &deliveryError{Op: "post", Status: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &deliveryError{Op: "post", Err: err}
	}
	var created webhookMessageCreated
	if err := fastJSONUnmarshal(data, &created); err != nil {
		return &deliveryError{Op: "post", Err: err}
	}
	w.mu.Lock()
	w.messageID = created.ID
	w.mu.Unlock()
	logger.Info("offline alert posted", "message_id", created.ID)
	return nil
}

// DeleteAlert removes the standing alert by its recorded id. A failure
// leaves the stale alert visible; the id is cleared only on success.
func (w *webhookAlerter) DeleteAlert(ctx context.Context) error {
	if !w.enabled() {
		return nil
	}
	w.mu.Lock()
	id := w.messageID
	w.mu.Unlock()
	if id == "" {
		return nil
	}
	base := w.url
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, base+"/messages/"+id, nil)
	if err != nil {
		return &deliveryError{Op: "delete", Err: err}
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return &deliveryError{Op: "delete", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &deliveryError{Op: "delete", Status: resp.StatusCode}
	}
	w.mu.Lock()
	w.messageID = ""
	w.mu.Unlock()
	logger.Info("offline alert removed", "message_id", id)
	return nil
}

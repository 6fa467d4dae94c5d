// Package notify posts best-effort human-facing messages about fulfillment
// outcomes. Failures here must never affect the purchase flow.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTimeout = 5 * time.Second

// Notifier is a fire-and-forget text sink.
type Notifier interface {
	Send(ctx context.Context, content string) error
}

// Discord posts messages to a Discord webhook URL.
type Discord struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewDiscord creates a Discord notifier. An empty URL yields a notifier
// that silently drops everything, so callers never need to branch.
func NewDiscord(webhookURL string, log *logrus.Logger) *Discord {
	if log == nil {
		log = logrus.New()
	}
	return &Discord{
		url:    webhookURL,
		client: &http.Client{Timeout: defaultTimeout},
		log:    log,
	}
}

func (d *Discord) Send(ctx context.Context, content string) error {
	if d == nil || d.url == "" {
		return nil
	}
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook status %d", resp.StatusCode)
	}
	return nil
}

// Async sends on a fresh goroutine with a bounded deadline, logging and
// swallowing any failure. Safe to call with a nil notifier.
func Async(n Notifier, log *logrus.Logger, content string) {
	if n == nil {
		return
	}
	if log == nil {
		log = logrus.New()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if err := n.Send(ctx, content); err != nil {
			log.WithError(err).Warn("notification failed")
		}
	}()
}

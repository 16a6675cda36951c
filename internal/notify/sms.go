// Package notify carries the SMS side-channel. Sends are fire-and-forget:
// callers log failures and move on, a reminder is never worth failing a
// request or a job over.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/taghsit/installment-engine/internal/config"
)

// Notifier sends a templated message to a destination phone number.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// SMSGateway posts messages to an HTTP SMS provider.
type SMSGateway struct {
	endpoint string
	apiKey   string
	sender   string
	client   *http.Client
}

func NewSMSGateway(cfg config.SMSConfig) *SMSGateway {
	return &SMSGateway{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		sender:   cfg.Sender,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

type smsPayload struct {
	Sender   string `json:"sender"`
	Receptor string `json:"receptor"`
	Message  string `json:"message"`
}

func (g *SMSGateway) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(smsPayload{
		Sender:   g.sender,
		Receptor: phone,
		Message:  message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}

// Nop discards every message; used when SMS is disabled.
type Nop struct{}

func (Nop) Send(ctx context.Context, phone, message string) error {
	return nil
}

// FromConfig returns the gateway when SMS is enabled, otherwise a Nop.
func FromConfig(cfg config.SMSConfig) Notifier {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewSMSGateway(cfg)
}

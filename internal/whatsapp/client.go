package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"zapledger/internal/core"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v18.0"
	maxErrorBody      = 1 << 10
)

// Config configures the outbound Client.
type Config struct {
	Token         string
	PhoneNumberID string
	APIVersion    string
	BaseURL       string
	Timeout       time.Duration
}

// Client sends text replies through the Graph API. One attempt per
// message; failures are returned, never retried.
type Client struct {
	http     *http.Client
	token    string
	endpoint string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp client needs a token and a phone number id")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		token:    cfg.Token,
		endpoint: fmt.Sprintf("%s/%s/%s/messages", base, version, cfg.PhoneNumberID),
	}, nil
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Send posts text to recipient. Transport failures and non-2xx answers
// come back as *core.NotificationError.
func (c *Client) Send(ctx context.Context, to, text string) error {
	msg := textMessage{MessagingProduct: "whatsapp", To: to, Type: "text"}
	msg.Text.Body = text
	body, err := json.Marshal(msg)
	if err != nil {
		return &core.NotificationError{Recipient: to, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &core.NotificationError{Recipient: to, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &core.NotificationError{Recipient: to, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &core.NotificationError{
			Recipient: to,
			Status:    resp.StatusCode,
			Err:       fmt.Errorf("graph api: %s", strings.TrimSpace(string(detail))),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

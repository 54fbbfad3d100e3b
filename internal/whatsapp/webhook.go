// Package whatsapp speaks the WhatsApp Cloud API: webhook decoding and
// verification on the way in, text messages on the way out.
package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"zapledger/internal/core"
)

const objectBusinessAccount = "whatsapp_business_account"

var (
	ErrUnexpectedObject = errors.New("webhook object is not a whatsapp business account")
	ErrBadSignature     = errors.New("webhook signature mismatch")
	ErrVerifyToken      = errors.New("webhook verify token mismatch")
)

// Webhook payload, limited to the parts this service reads.
type (
	webhookPayload struct {
		Object string  `json:"object"`
		Entry  []entry `json:"entry"`
	}

	entry struct {
		ID      string   `json:"id"`
		Changes []change `json:"changes"`
	}

	change struct {
		Field string      `json:"field"`
		Value changeValue `json:"value"`
	}

	changeValue struct {
		Messages []message `json:"messages"`
		Statuses []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"statuses"`
	}

	message struct {
		From      string `json:"from"`
		ID        string `json:"id"`
		Timestamp string `json:"timestamp"`
		Type      string `json:"type"`
		Text      *struct {
			Body string `json:"body"`
		} `json:"text"`
	}
)

// Decode extracts the text messages of a webhook delivery. Status
// callbacks and non-text messages produce no InboundMessage.
func Decode(body []byte) ([]core.InboundMessage, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	if p.Object != objectBusinessAccount {
		return nil, ErrUnexpectedObject
	}

	var out []core.InboundMessage
	for _, e := range p.Entry {
		for _, c := range e.Changes {
			if c.Field != "" && c.Field != "messages" {
				continue
			}
			for _, m := range c.Value.Messages {
				if m.Type != "text" || m.Text == nil || m.From == "" {
					continue
				}
				out = append(out, core.InboundMessage{
					ID:        m.ID,
					From:      m.From,
					Text:      m.Text.Body,
					Timestamp: unixSeconds(m.Timestamp),
				})
			}
		}
	}
	return out, nil
}

// unixSeconds parses the string epoch the API sends; bad input is zero time.
func unixSeconds(s string) time.Time {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}

// VerifyChallenge answers the subscription handshake. It returns the
// challenge to echo when mode is "subscribe" and token matches.
func VerifyChallenge(mode, token, challenge, expected string) (string, error) {
	if mode != "subscribe" || expected == "" ||
		!hmac.Equal([]byte(token), []byte(expected)) {
		return "", ErrVerifyToken
	}
	return challenge, nil
}

// VerifySignature checks an X-Hub-Signature-256 header ("sha256=<hex>")
// against body signed with appSecret.
func VerifySignature(body []byte, header, appSecret string) error {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return ErrBadSignature
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}

// Sign returns the X-Hub-Signature-256 value for body.
func Sign(body []byte, appSecret string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

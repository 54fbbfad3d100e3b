package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"zapledger/internal/core"
)

func TestClientSend(t *testing.T) {
	var gotPath, gotAuth string
	var got textMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Token: "tok", PhoneNumberID: "42", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Send(context.Background(), "5511", "olá"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/v18.0/42/messages" || gotAuth != "Bearer tok" {
		t.Errorf("path = %q auth = %q", gotPath, gotAuth)
	}
	if got.MessagingProduct != "whatsapp" || got.To != "5511" || got.Text.Body != "olá" {
		t.Errorf("body = %+v", got)
	}
}

func TestClientSend_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	defer srv.Close()

	c, _ := NewClient(Config{Token: "tok", PhoneNumberID: "42", BaseURL: srv.URL, APIVersion: "v19.0"})
	err := c.Send(context.Background(), "5511", "x")

	var ne *core.NotificationError
	if !errors.As(err, &ne) || ne.Status != http.StatusUnauthorized || ne.Recipient != "5511" {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, core.ErrDeliveryFailed) {
		t.Error("should match ErrDeliveryFailed")
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{PhoneNumberID: "42"}); err == nil {
		t.Error("missing token accepted")
	}
	if _, err := NewClient(Config{Token: "t"}); err == nil {
		t.Error("missing phone number id accepted")
	}
}

package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfirmationHandler(t *testing.T) {
	event := []byte(`{
		"order_id": "o-1",
		"customer_id": "c-1",
		"customer_email": "alice@example.com",
		"product_ids": ["p-1", "p-2"],
		"total": "15.50",
		"timestamp": "2026-03-14T09:00:00Z"
	}`)

	t.Run("sends a confirmation email", func(t *testing.T) {
		var sent map[string]string
		mailer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/send" {
				t.Errorf("expected /send, got %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
				t.Fatalf("failed to decode mail request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"sent"}`))
		}))
		defer mailer.Close()

		handler := NewConfirmationHandler(mailer.URL, mailer.Client(), discardLogger())
		if err := handler.Handle(context.Background(), event); err != nil {
			t.Fatalf("Handle returned error: %v", err)
		}

		if sent["to"] != "alice@example.com" {
			t.Errorf("expected recipient alice@example.com, got %q", sent["to"])
		}
		if sent["subject"] != "Order Confirmation: o-1" {
			t.Errorf("unexpected subject: %q", sent["subject"])
		}
	})

	t.Run("fails on malformed payload", func(t *testing.T) {
		handler := NewConfirmationHandler("http://unused", http.DefaultClient, discardLogger())
		if err := handler.Handle(context.Background(), []byte("not json")); err == nil {
			t.Fatal("expected error for malformed payload")
		}
	})

	t.Run("surfaces mailer failures", func(t *testing.T) {
		mailer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer mailer.Close()

		handler := NewConfirmationHandler(mailer.URL, mailer.Client(), discardLogger())
		if err := handler.Handle(context.Background(), event); err == nil {
			t.Fatal("expected error when mailer is failing")
		}
	})
}

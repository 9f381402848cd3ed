package jobs

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crmflow/crmflow/internal/apiclient"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHeartbeat(t *testing.T) {
	t.Run("logs liveness and API check", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				t.Errorf("expected /health, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}))
		defer server.Close()

		var sink bytes.Buffer
		job := NewHeartbeat(apiclient.New(server.URL, server.Client()), &sink, discardLogger())
		job.now = fixedNow

		job.Run(context.Background())

		want := "14/03/2026-09:26:53 CRM is alive\n14/03/2026-09:26:53 API check: ok\n"
		if sink.String() != want {
			t.Errorf("log mismatch:\n got %q\nwant %q", sink.String(), want)
		}
	})

	t.Run("logs the error and keeps going when the API is down", func(t *testing.T) {
		var sink bytes.Buffer
		client := apiclient.New("http://127.0.0.1:1", &http.Client{Timeout: 100 * time.Millisecond})
		job := NewHeartbeat(client, &sink, discardLogger())
		job.now = fixedNow

		job.Run(context.Background())

		lines := strings.Split(strings.TrimRight(sink.String(), "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %q", len(lines), sink.String())
		}
		if lines[0] != "14/03/2026-09:26:53 CRM is alive" {
			t.Errorf("unexpected liveness line: %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], "14/03/2026-09:26:53 API error: ") {
			t.Errorf("unexpected error line: %q", lines[1])
		}
	})
}

func TestLowStockSweep(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/products/restock" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"message": "Updated 2 low-stock products.",
			"updated_products": [
				{"id": "p1", "name": "Mouse", "price": "9.99", "stock": 13},
				{"id": "p2", "name": "Webcam", "price": "25.00", "stock": 18}
			]
		}`))
	}))
	defer server.Close()

	var sink bytes.Buffer
	job := NewLowStockSweep(apiclient.New(server.URL, server.Client()), &sink, discardLogger())
	job.now = fixedNow

	job.Run(context.Background())

	want := "\n[14/03/2026-09:26:53] Updated 2 low-stock products.\n" +
		" - Mouse restocked to 13 units\n" +
		" - Webcam restocked to 18 units\n"
	if sink.String() != want {
		t.Errorf("log mismatch:\n got %q\nwant %q", sink.String(), want)
	}
}

func TestWeeklyReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			t.Errorf("expected /stats, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_customers": 5, "total_orders": 2, "total_revenue": "31.00"}`))
	}))
	defer server.Close()

	var sink bytes.Buffer
	job := NewWeeklyReport(apiclient.New(server.URL, server.Client()), &sink, discardLogger())
	job.now = fixedNow

	job.Run(context.Background())

	want := "2026-03-14 09:26:53 - Report: 5 customers, 2 orders, 31.00 revenue\n"
	if sink.String() != want {
		t.Errorf("log mismatch:\n got %q\nwant %q", sink.String(), want)
	}
}

func TestOrderReminders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Errorf("expected /orders, got %s", r.URL.Path)
		}
		since := r.URL.Query().Get("orderDateGte")
		if _, err := time.Parse(time.RFC3339, since); err != nil {
			t.Errorf("orderDateGte is not RFC 3339: %q", since)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "o1", "customer_id": "c1", "customer": {"id": "c1", "name": "Alice", "email": "alice@example.com"}, "products": [], "order_date": "2026-03-13T10:00:00Z", "total_amount": "15.50"}
		]`))
	}))
	defer server.Close()

	var sink bytes.Buffer
	job := NewOrderReminders(apiclient.New(server.URL, server.Client()), &sink, discardLogger())
	job.now = fixedNow

	job.Run(context.Background())

	want := "Reminder for order o1, customer alice@example.com\n"
	if sink.String() != want {
		t.Errorf("log mismatch:\n got %q\nwant %q", sink.String(), want)
	}
}

package activation

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/glowmart/loyalty/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewHTTPClient(t *testing.T) {
	if _, err := NewHTTPClient("http://benefits.local", testLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewHTTPClient("://bad", testLogger()); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := NewHTTPClient("/relative/only", testLogger()); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestActivate(t *testing.T) {
	tx := &model.Transaction{
		ID:     uuid.Must(uuid.NewV7()),
		Type:   model.TransactionRedeemed,
		Points: -300,
		Reason: "voucher",
	}

	t.Run("success", func(t *testing.T) {
		var got request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/benefits/activate" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client, err := NewHTTPClient(server.URL, testLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := client.Activate(context.Background(), tx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.TransactionID != tx.ID.String() {
			t.Fatalf("unexpected transaction id %q", got.TransactionID)
		}
		if got.Points != 300 {
			t.Fatalf("expected positive cost 300, got %d", got.Points)
		}
	})

	t.Run("conflict counts as activated", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()

		client, err := NewHTTPClient(server.URL, testLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := client.Activate(context.Background(), tx); err != nil {
			t.Fatalf("conflict must not be an error: %v", err)
		}
	})

	t.Run("server error propagates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client, err := NewHTTPClient(server.URL, testLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := client.Activate(context.Background(), tx); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("unreachable service", func(t *testing.T) {
		client, err := NewHTTPClient("http://127.0.0.1:1", testLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := client.Activate(context.Background(), tx); err == nil {
			t.Fatal("expected connection error")
		}
	})
}

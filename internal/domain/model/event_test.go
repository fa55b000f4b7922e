package model

import (
	"encoding/json"
	"testing"
)

func TestEventIdentity(t *testing.T) {
	points := int64(150)

	t.Run("explicit transaction id wins", func(t *testing.T) {
		e := Event{Type: EventPointsEarned, Data: EventData{TransactionID: "tx-1", OrderID: "o-1", Points: &points}}
		if got := e.Identity(); got != "tx-1" {
			t.Fatalf("expected tx-1, got %q", got)
		}
	})

	t.Run("composite from order and points", func(t *testing.T) {
		e := Event{Type: EventPointsEarned, Data: EventData{OrderID: "o-1", Points: &points}}
		if got := e.Identity(); got != "o-1|points_earned|150" {
			t.Fatalf("unexpected identity %q", got)
		}
	})

	t.Run("no stable identity", func(t *testing.T) {
		e := Event{Type: EventPointsEarned, Data: EventData{Points: &points}}
		if got := e.Identity(); got != "" {
			t.Fatalf("expected empty identity, got %q", got)
		}
	})
}

func TestEventDecoding(t *testing.T) {
	payload := `{"type":"points_adjusted","data":{"userId":"u-1","points":-40,"reason":"expired promo","orderId":"o-9"}}`
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if e.Type != EventPointsAdjusted {
		t.Fatalf("unexpected type %s", e.Type)
	}
	if e.Data.Points == nil || *e.Data.Points != -40 {
		t.Fatalf("expected points -40, got %v", e.Data.Points)
	}

	var missing Event
	if err := json.Unmarshal([]byte(`{"type":"points_earned","data":{"userId":"u-1"}}`), &missing); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if missing.Data.Points != nil {
		t.Fatal("expected missing points to stay nil")
	}
}

func TestNewSubscribeRequest(t *testing.T) {
	req := NewSubscribeRequest("u-7")
	if req.Type != "subscribe:loyalty" {
		t.Fatalf("unexpected handshake type %q", req.Type)
	}
	if req.Data.UserID != "u-7" {
		t.Fatalf("unexpected user %q", req.Data.UserID)
	}
	if len(req.Data.Events) != 3 {
		t.Fatalf("expected 3 event kinds, got %d", len(req.Data.Events))
	}
}

package model

import "fmt"

// EventType enumerates messages pushed over the realtime channel.
type EventType string

const (
	EventPointsEarned   EventType = "points_earned"
	EventPointsAdjusted EventType = "points_adjusted"
	EventTierUpgraded   EventType = "tier_upgraded"
)

// Event mirrors the JSON payload pushed by the realtime channel.
type Event struct {
	Type EventType `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the event fields; optional integers are pointers so a
// missing field is distinguishable from zero.
type EventData struct {
	UserID         string `json:"userId"`
	Points         *int64 `json:"points,omitempty"`
	NewTotalPoints *int64 `json:"newTotalPoints,omitempty"`
	NewTier        string `json:"newTier,omitempty"`
	OldTier        string `json:"oldTier,omitempty"`
	Reason         string `json:"reason,omitempty"`
	OrderID        string `json:"orderId,omitempty"`
	TransactionID  string `json:"transactionId,omitempty"`
}

// Identity derives a stable transaction identity for dedupe under
// at-least-once delivery: the explicit transaction id when present,
// otherwise a composite of order, event kind, and points. Returns "" when
// the event carries nothing stable to key on.
func (e Event) Identity() string {
	if e.Data.TransactionID != "" {
		return e.Data.TransactionID
	}
	if e.Data.OrderID == "" || e.Data.Points == nil {
		return ""
	}
	return fmt.Sprintf("%s|%s|%d", e.Data.OrderID, e.Type, *e.Data.Points)
}

// SubscribeRequest is the handshake sent by the client after connecting.
type SubscribeRequest struct {
	Type string        `json:"type"`
	Data SubscribeData `json:"data"`
}

// SubscribeData scopes the subscription to one account's loyalty events.
type SubscribeData struct {
	UserID string      `json:"userId"`
	Events []EventType `json:"events"`
}

// NewSubscribeRequest builds the loyalty subscription handshake for an account.
func NewSubscribeRequest(accountID string) SubscribeRequest {
	return SubscribeRequest{
		Type: "subscribe:loyalty",
		Data: SubscribeData{
			UserID: accountID,
			Events: []EventType{EventPointsEarned, EventPointsAdjusted, EventTierUpgraded},
		},
	}
}

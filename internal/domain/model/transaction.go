package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionEarned   TransactionType = "earned"
	TransactionRedeemed TransactionType = "redeemed"
	TransactionExpired  TransactionType = "expired"
	TransactionAdjusted TransactionType = "adjusted"
)

// ParseTransactionType validates a transaction type loaded from storage.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionEarned, TransactionRedeemed, TransactionExpired, TransactionAdjusted:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Transaction is an immutable ledger entry. IDs are UUIDv7, so the natural
// ordering of ids follows append order.
type Transaction struct {
	ID               uuid.UUID       `json:"id"`
	Type             TransactionType `json:"type"`
	Points           int64           `json:"points"`
	Reason           string          `json:"reason"`
	OrderID          string          `json:"order_id,omitempty"`
	RefID            *uuid.UUID      `json:"ref_id,omitempty"`
	Identity         string          `json:"identity,omitempty"`
	ResultingBalance int64           `json:"resulting_balance"`
	CreatedAt        time.Time       `json:"created_at"`
}

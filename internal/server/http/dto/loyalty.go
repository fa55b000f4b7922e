package dto

import "time"

// BalanceResponse reports the account balance with tier classification.
type BalanceResponse struct {
	AccountID       string  `json:"account_id"`
	Balance         int64   `json:"balance"`
	Tier            string  `json:"tier"`
	ProgressPercent float64 `json:"progress_percent"`
	PointsToNext    int64   `json:"points_to_next"`
	TotalEarned     int64   `json:"total_earned"`
	TotalRedeemed   int64   `json:"total_redeemed"`
}

// TierResponse is one entry of the tier table.
type TierResponse struct {
	Name      string   `json:"name"`
	MinPoints int64    `json:"min_points"`
	Benefits  []string `json:"benefits"`
}

// TransactionResponse is one ledger entry.
type TransactionResponse struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	Points           int64     `json:"points"`
	Reason           string    `json:"reason"`
	OrderID          string    `json:"order_id,omitempty"`
	RefID            string    `json:"ref_id,omitempty"`
	ResultingBalance int64     `json:"resulting_balance"`
	CreatedAt        time.Time `json:"created_at"`
}

// RedeemRequest asks to debit points for a reward.
type RedeemRequest struct {
	Cost   int64  `json:"cost"`
	Reason string `json:"reason"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Database           string `json:"database"`
	Channel            string `json:"channel"`
	PendingActivations int    `json:"pending_activations"`
}

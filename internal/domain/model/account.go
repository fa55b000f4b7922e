package model

// Account aggregates the loyalty state of a single user.
//
// Balance tracks TotalEarned - TotalRedeemed except for expired points,
// which debit the balance without counting as redemption.
type Account struct {
	ID            string `json:"account_id"`
	Balance       int64  `json:"balance"`
	Tier          Tier   `json:"tier"`
	TotalEarned   int64  `json:"total_earned"`
	TotalRedeemed int64  `json:"total_redeemed"`
}

package model

// Snapshot is the durable persistence layout: account totals plus the
// bounded transaction window. Totals are stored independently of the window
// and are never derived from it.
type Snapshot struct {
	CurrentPoints int64         `json:"currentPoints"`
	CurrentTier   Tier          `json:"currentTier"`
	TotalEarned   int64         `json:"totalEarned"`
	TotalRedeemed int64         `json:"totalRedeemed"`
	Transactions  []Transaction `json:"transactions"`
}

// Account rebuilds the account aggregate for the given id.
func (s Snapshot) Account(id string) Account {
	tier := s.CurrentTier
	if tier.Rank() < 0 {
		tier = ClassifyTier(s.CurrentPoints).Tier.Name
	}
	return Account{
		ID:            id,
		Balance:       s.CurrentPoints,
		Tier:          tier,
		TotalEarned:   s.TotalEarned,
		TotalRedeemed: s.TotalRedeemed,
	}
}

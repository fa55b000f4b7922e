package model

import (
	"fmt"
	"sort"
)

// Tier names a loyalty level unlocked at a point threshold.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

// TierInfo describes a single entry of the tier table.
type TierInfo struct {
	Name      Tier     `json:"name"`
	MinPoints int64    `json:"min_points"`
	Benefits  []string `json:"benefits"`
}

// tierTable is ordered by strictly increasing MinPoints; the index of an
// entry is its rank.
var tierTable = []TierInfo{
	{Name: TierBronze, MinPoints: 0, Benefits: []string{"earn points on every order"}},
	{Name: TierSilver, MinPoints: 1000, Benefits: []string{"free standard shipping", "birthday bonus"}},
	{Name: TierGold, MinPoints: 5000, Benefits: []string{"priority support", "early access to sales"}},
	{Name: TierPlatinum, MinPoints: 15000, Benefits: []string{"free express shipping", "exclusive rewards"}},
	{Name: TierDiamond, MinPoints: 50000, Benefits: []string{"personal concierge", "annual gift"}},
}

var tierRanks = func() map[Tier]int {
	ranks := make(map[Tier]int, len(tierTable))
	for i, info := range tierTable {
		ranks[info.Name] = i
	}
	return ranks
}()

// Tiers returns a copy of the tier table ordered by ascending threshold.
func Tiers() []TierInfo {
	out := make([]TierInfo, len(tierTable))
	copy(out, tierTable)
	return out
}

// Rank returns the ordinal position of the tier, or -1 for an unknown name.
func (t Tier) Rank() int {
	rank, ok := tierRanks[t]
	if !ok {
		return -1
	}
	return rank
}

// ParseTier validates a tier name received over the wire or from storage.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := tierRanks[t]; !ok {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}

// TierStatus is the result of classifying a balance against the tier table.
type TierStatus struct {
	Tier            TierInfo
	Rank            int
	ProgressPercent float64
	PointsToNext    int64
}

// ClassifyTier maps a point balance to the highest tier whose threshold the
// balance meets, with progress toward the next tier. Monotonic in balance.
func ClassifyTier(balance int64) TierStatus {
	if balance < 0 {
		balance = 0
	}

	// First entry with MinPoints > balance; current tier sits just below it.
	idx := sort.Search(len(tierTable), func(i int) bool {
		return tierTable[i].MinPoints > balance
	})
	rank := idx - 1
	if rank < 0 {
		rank = 0
	}
	current := tierTable[rank]

	if rank == len(tierTable)-1 {
		return TierStatus{Tier: current, Rank: rank, ProgressPercent: 100, PointsToNext: 0}
	}

	next := tierTable[rank+1]
	span := next.MinPoints - current.MinPoints
	progress := float64(balance-current.MinPoints) / float64(span) * 100
	if progress > 100 {
		progress = 100
	}
	return TierStatus{
		Tier:            current,
		Rank:            rank,
		ProgressPercent: progress,
		PointsToNext:    next.MinPoints - balance,
	}
}

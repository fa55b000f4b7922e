package model

import "testing"

func TestClassifyTierThresholds(t *testing.T) {
	cases := []struct {
		name    string
		balance int64
		tier    Tier
	}{
		{"zero balance", 0, TierBronze},
		{"just below silver", 999, TierBronze},
		{"silver boundary", 1000, TierSilver},
		{"just below gold", 4999, TierSilver},
		{"gold boundary", 5000, TierGold},
		{"platinum boundary", 15000, TierPlatinum},
		{"diamond boundary", 50000, TierDiamond},
		{"far above diamond", 1000000, TierDiamond},
		{"negative clamps to bronze", -5, TierBronze},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyTier(tc.balance)
			if got.Tier.Name != tc.tier {
				t.Fatalf("expected %s for balance %d, got %s", tc.tier, tc.balance, got.Tier.Name)
			}
		})
	}
}

func TestClassifyTierMonotonic(t *testing.T) {
	prev := -1
	for balance := int64(0); balance <= 60000; balance += 37 {
		rank := ClassifyTier(balance).Rank
		if rank < prev {
			t.Fatalf("rank decreased from %d to %d at balance %d", prev, rank, balance)
		}
		prev = rank
	}
}

func TestClassifyTierProgress(t *testing.T) {
	status := ClassifyTier(1000)
	if status.ProgressPercent != 0 {
		t.Fatalf("expected 0%% progress at silver boundary, got %f", status.ProgressPercent)
	}
	if status.PointsToNext != 4000 {
		t.Fatalf("expected 4000 points to gold, got %d", status.PointsToNext)
	}

	status = ClassifyTier(3000)
	if status.ProgressPercent != 50 {
		t.Fatalf("expected 50%% progress halfway to gold, got %f", status.ProgressPercent)
	}

	status = ClassifyTier(70000)
	if status.ProgressPercent != 100 || status.PointsToNext != 0 {
		t.Fatalf("expected top tier to report 100%%/0, got %f/%d", status.ProgressPercent, status.PointsToNext)
	}
}

func TestTierRanks(t *testing.T) {
	ordered := []Tier{TierBronze, TierSilver, TierGold, TierPlatinum, TierDiamond}
	for i, tier := range ordered {
		if tier.Rank() != i {
			t.Fatalf("expected rank %d for %s, got %d", i, tier, tier.Rank())
		}
	}
	if Tier("plutonium").Rank() != -1 {
		t.Fatal("expected -1 rank for unknown tier")
	}
}

func TestParseTier(t *testing.T) {
	if _, err := ParseTier("gold"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseTier("wood"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}

func TestTiersReturnsCopy(t *testing.T) {
	tiers := Tiers()
	if len(tiers) != 5 {
		t.Fatalf("expected 5 tiers, got %d", len(tiers))
	}
	tiers[0].MinPoints = 42
	if Tiers()[0].MinPoints != 0 {
		t.Fatal("mutating the returned slice must not affect the table")
	}
	for i := 1; i < len(tiers); i++ {
		if Tiers()[i].MinPoints <= Tiers()[i-1].MinPoints {
			t.Fatal("tier table must be strictly increasing")
		}
	}
}

package models

import "testing"

func TestTierOrdering(t *testing.T) {
	ordered := []Tier{TierUnknown, TierVeryPoor, TierPoor, TierFair, TierGood, TierExcellent}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("%s (rank %d) should order below %s (rank %d)",
				ordered[i-1], ordered[i-1].Rank(), ordered[i], ordered[i].Rank())
		}
	}
}

func TestParseTier(t *testing.T) {
	tests := map[string]Tier{
		"excellent": TierExcellent,
		"good":      TierGood,
		"fair":      TierFair,
		"poor":      TierPoor,
		"very poor": TierVeryPoor,
		"unknown":   TierUnknown,
		"":          TierUnknown,
		"amazing":   TierUnknown,
	}
	for input, want := range tests {
		if got := ParseTier(input); got != want {
			t.Errorf("ParseTier(%q) = %s, want %s", input, got, want)
		}
	}
}

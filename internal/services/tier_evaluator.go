package services

import (
	"loyalty/internal/models"
)

// TierEvaluator recomputes tier membership from lifetime points. Pure.
type TierEvaluator struct{}

func NewTierEvaluator() *TierEvaluator {
	return &TierEvaluator{}
}

// Evaluate returns the highest tier whose threshold is at or below
// lifetimePoints, or nil when no tier qualifies. Tiers are stored ascending by
// threshold.
func (e *TierEvaluator) Evaluate(lifetimePoints int64, tiers []models.Tier) *models.Tier {
	var current *models.Tier
	for i := range tiers {
		if tiers[i].PointsThreshold <= lifetimePoints {
			current = &tiers[i]
		}
	}
	return current
}

// NextTier resolves the tier name an account should hold after a balance
// change. Sticky programs never downgrade a tier once reached.
func (e *TierEvaluator) NextTier(program *models.LoyaltyProgram, lifetimePoints int64, currentTier string) string {
	tier := e.Evaluate(lifetimePoints, program.Tiers)
	name := ""
	if tier != nil {
		name = tier.Name
	}

	if program.TierSticky && currentTier != "" && name != currentTier {
		if tierRank(program.Tiers, name) < tierRank(program.Tiers, currentTier) {
			return currentTier
		}
	}

	return name
}

func tierRank(tiers []models.Tier, name string) int {
	for i := range tiers {
		if tiers[i].Name == name {
			return i
		}
	}
	return -1
}

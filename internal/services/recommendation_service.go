package services

import (
	"context"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/repositories/interfaces"
	"loyalty/internal/utils"
	"loyalty/pkg/logger"
	"loyalty/pkg/ml"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recommender is the opaque scoring collaborator. The engine treats its
// output as decoration: a scorer failure never blocks accrual or redemption.
type Recommender interface {
	Suggest(ctx context.Context, program *models.LoyaltyProgram, account *models.LoyaltyAccount) ([]models.RankedOffer, error)
}

type offerRecommender struct {
	ranker     *ml.OfferRanker
	rewardRepo interfaces.RewardRepository
	logger     *logger.Logger
}

func NewOfferRecommender(ranker *ml.OfferRanker, rewardRepo interfaces.RewardRepository, log *logger.Logger) Recommender {
	return &offerRecommender{
		ranker:     ranker,
		rewardRepo: rewardRepo,
		logger:     log,
	}
}

func (r *offerRecommender) Suggest(ctx context.Context, program *models.LoyaltyProgram, account *models.LoyaltyAccount) ([]models.RankedOffer, error) {
	params := &utils.PaginationParams{Page: 1, PageSize: utils.DefaultPageSize, Sort: "created_at", Order: "desc"}
	rewards, _, err := r.rewardRepo.ListByProgram(ctx, program.TenantID, program.ID, params)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	candidates := make([]ml.OfferCandidate, 0, len(rewards))
	byID := make(map[string]*models.Reward, len(rewards))
	for _, reward := range rewards {
		if !reward.AvailableAt(now) || reward.QuantityAvailable <= 0 {
			continue
		}
		candidates = append(candidates, ml.OfferCandidate{
			RewardID:  reward.ID.Hex(),
			Name:      reward.Name,
			PointCost: reward.PointCost,
			Remaining: reward.QuantityAvailable,
		})
		byID[reward.ID.Hex()] = reward
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	resp, err := r.ranker.Rank(ctx, &ml.RankRequest{
		CustomerTier:    account.CurrentTier,
		PointsBalance:   account.PointsBalance,
		LifetimePoints:  account.LifetimePoints,
		DaysSinceActive: now.Sub(account.LastActivityAt).Hours() / 24,
		Candidates:      candidates,
	})
	if err != nil {
		return nil, err
	}

	offers := make([]models.RankedOffer, 0, len(resp.Offers))
	for _, scored := range resp.Offers {
		id, err := primitive.ObjectIDFromHex(scored.RewardID)
		if err != nil {
			continue
		}
		offers = append(offers, models.RankedOffer{
			RewardID: id,
			Name:     scored.Name,
			Score:    scored.Score,
		})
	}

	return offers, nil
}

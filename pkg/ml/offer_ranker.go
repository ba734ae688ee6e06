package ml

import (
	"context"
	"math"
	"sort"
	"time"
)

// OfferRanker scores reward candidates for a customer. It is the default
// implementation of the engine's opaque scoring collaborator; when disabled or
// missing a model it falls back to a recency/affordability heuristic.
type OfferRanker struct {
	model     *RankingModel
	isEnabled bool
	threshold float64
}

type RankingModel struct {
	FeatureWeights map[string]float64 `json:"feature_weights"`
	TierWeights    map[string]float64 `json:"tier_weights"`
	Intercept      float64            `json:"intercept"`
	Version        string             `json:"version"`
	TrainedAt      time.Time          `json:"trained_at"`
}

type RankRequest struct {
	CustomerTier    string           `json:"customer_tier"`
	PointsBalance   int64            `json:"points_balance"`
	LifetimePoints  int64            `json:"lifetime_points"`
	DaysSinceActive float64          `json:"days_since_active"`
	Candidates      []OfferCandidate `json:"candidates"`
}

type OfferCandidate struct {
	RewardID  string  `json:"reward_id"`
	Name      string  `json:"name"`
	PointCost int64   `json:"point_cost"`
	Remaining int64   `json:"remaining"`
}

type ScoredOffer struct {
	RewardID string  `json:"reward_id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
}

type RankResponse struct {
	Offers       []ScoredOffer `json:"offers"`
	ModelVersion string        `json:"model_version"`
	UsedMLModel  bool          `json:"used_ml_model"`
}

func NewOfferRanker(modelPath string, enabled bool, threshold float64) (*OfferRanker, error) {
	var model *RankingModel

	if enabled && modelPath != "" {
		// In a real implementation, load from file/database
		model = &RankingModel{
			FeatureWeights: map[string]float64{
				"affordability":    1.4,
				"scarcity":         0.5,
				"recency":          0.8,
				"lifetime_points":  0.3,
			},
			TierWeights: map[string]float64{
				"bronze": 1.0,
				"silver": 1.1,
				"gold":   1.25,
			},
			Intercept: 0.1,
			Version:   "1.0.0",
			TrainedAt: time.Now().AddDate(0, -1, 0),
		}
	}

	return &OfferRanker{
		model:     model,
		isEnabled: enabled,
		threshold: threshold,
	}, nil
}

func (r *OfferRanker) Rank(ctx context.Context, req *RankRequest) (*RankResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	useModel := r.isEnabled && r.model != nil
	offers := make([]ScoredOffer, 0, len(req.Candidates))

	for _, c := range req.Candidates {
		var score float64
		if useModel {
			score = r.modelScore(req, c)
		} else {
			score = heuristicScore(req, c)
		}
		if score < r.threshold {
			continue
		}
		offers = append(offers, ScoredOffer{
			RewardID: c.RewardID,
			Name:     c.Name,
			Score:    score,
		})
	}

	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Score > offers[j].Score
	})

	version := ""
	if useModel {
		version = r.model.Version
	}

	return &RankResponse{
		Offers:       offers,
		ModelVersion: version,
		UsedMLModel:  useModel,
	}, nil
}

func (r *OfferRanker) modelScore(req *RankRequest, c OfferCandidate) float64 {
	w := r.model.FeatureWeights

	score := r.model.Intercept
	score += w["affordability"] * affordability(req.PointsBalance, c.PointCost)
	score += w["scarcity"] * scarcity(c.Remaining)
	score += w["recency"] * math.Exp(-req.DaysSinceActive/30)
	score += w["lifetime_points"] * math.Log1p(float64(req.LifetimePoints)) / 10

	if tierWeight, ok := r.model.TierWeights[req.CustomerTier]; ok {
		score *= tierWeight
	}

	return clamp(score, 0, 1)
}

func heuristicScore(req *RankRequest, c OfferCandidate) float64 {
	return clamp(0.5*affordability(req.PointsBalance, c.PointCost)+0.2*scarcity(c.Remaining), 0, 1)
}

func affordability(balance, cost int64) float64 {
	if cost <= 0 {
		return 0
	}
	return clamp(float64(balance)/float64(cost), 0, 1)
}

func scarcity(remaining int64) float64 {
	if remaining <= 0 {
		return 0
	}
	return 1 / (1 + float64(remaining)/10)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

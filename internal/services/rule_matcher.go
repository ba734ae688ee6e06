package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/repositories/interfaces"
	"loyalty/internal/utils"
	"loyalty/pkg/logger"
)

// RuleMatch pairs a matched rule with the point delta its action yields for
// the event being evaluated. Deltas are always computed from the original
// event amount; stacked rules never compound each other.
type RuleMatch struct {
	Rule   *models.Rule
	Points int64
}

type RuleMatcher struct {
	ruleRepo     interfaces.RuleRepository
	txnRepo      interfaces.TransactionRepository
	geofenceRepo interfaces.GeofenceRepository
	geoMatcher   *GeoMatcher
	logger       *logger.Logger
}

func NewRuleMatcher(
	ruleRepo interfaces.RuleRepository,
	txnRepo interfaces.TransactionRepository,
	geofenceRepo interfaces.GeofenceRepository,
	geoMatcher *GeoMatcher,
	log *logger.Logger,
) *RuleMatcher {
	return &RuleMatcher{
		ruleRepo:     ruleRepo,
		txnRepo:      txnRepo,
		geofenceRepo: geofenceRepo,
		geoMatcher:   geoMatcher,
		logger:       log,
	}
}

// Match returns the ordered list of rules applying to the event, subject to
// the program's match policy. Predicate failures exclude the rule; they are
// never surfaced as errors.
func (m *RuleMatcher) Match(ctx context.Context, program *models.LoyaltyProgram, account *models.LoyaltyAccount, event *models.Event) ([]RuleMatch, error) {
	rules, err := m.ruleRepo.ListActive(ctx, event.TenantID, program.ID, models.RuleType(event.Type), event.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate rules: %w", err)
	}

	sortRules(rules)

	matches := make([]RuleMatch, 0, len(rules))
	for _, rule := range rules {
		if !rule.ActiveAt(event.Timestamp) {
			continue
		}

		ok, err := m.satisfies(ctx, rule, account, event)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		matches = append(matches, RuleMatch{
			Rule:   rule,
			Points: computeDelta(rule, event),
		})

		if program.MatchPolicy == models.MatchPolicyFirst {
			break
		}
	}

	return matches, nil
}

func (m *RuleMatcher) satisfies(ctx context.Context, rule *models.Rule, account *models.LoyaltyAccount, event *models.Event) (bool, error) {
	for _, cond := range rule.Conditions {
		switch cond.Type {
		case models.ConditionAmountAtLeast:
			if event.Amount < cond.MinAmount {
				return false, nil
			}

		case models.ConditionAmountBelow:
			if event.Amount >= cond.MaxAmount {
				return false, nil
			}

		case models.ConditionWithinGeofence:
			ok, err := m.withinGeofence(ctx, rule, cond, event)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}

		case models.ConditionFrequencyCap:
			since := event.Timestamp.Add(-cond.Window)
			count, err := m.txnRepo.CountByRuleSince(ctx, account.ID, rule.ID, since)
			if err != nil {
				return false, fmt.Errorf("failed to evaluate frequency cap: %w", err)
			}
			if count >= cond.Limit {
				m.logger.WithField("rule_id", rule.ID.Hex()).Debug("rule excluded: frequency cap reached")
				return false, nil
			}

		case models.ConditionTimeOfDay:
			if !withinTimeOfDay(cond, event.Timestamp) {
				return false, nil
			}

		default:
			// Unknown variants are rejected at configuration time; an old row
			// slipping through excludes the rule.
			m.logger.WithFields(map[string]interface{}{
				"rule_id": rule.ID.Hex(),
				"type":    string(cond.Type),
			}).Warn("rule excluded: unknown condition type")
			return false, nil
		}
	}

	return true, nil
}

func (m *RuleMatcher) withinGeofence(ctx context.Context, rule *models.Rule, cond models.RuleCondition, event *models.Event) (bool, error) {
	if event.Location == nil {
		return false, nil
	}
	if cond.GeofenceID == nil {
		return false, nil
	}

	geofence, err := m.geofenceRepo.GetByID(ctx, event.TenantID, *cond.GeofenceID)
	if err != nil {
		if errors.Is(err, models.ErrTenantIsolation) {
			return false, err
		}
		// Fail closed: a missing or unreadable geofence matches nothing.
		m.logger.WithError(err).WithField("rule_id", rule.ID.Hex()).Warn("geofence evaluation failed")
		return false, nil
	}

	point := utils.Point{Lat: event.Location.Lat, Lng: event.Location.Lng}
	return m.geoMatcher.IsWithin(point, geofence), nil
}

func withinTimeOfDay(cond models.RuleCondition, ts time.Time) bool {
	start, err := time.Parse("15:04", cond.StartTime)
	if err != nil {
		return false
	}
	end, err := time.Parse("15:04", cond.EndTime)
	if err != nil {
		return false
	}

	if len(cond.Weekdays) > 0 {
		found := false
		for _, day := range cond.Weekdays {
			if ts.Weekday() == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	minutes := ts.Hour()*60 + ts.Minute()
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()

	if startMin <= endMin {
		return minutes >= startMin && minutes <= endMin
	}
	// Window crosses midnight.
	return minutes >= startMin || minutes <= endMin
}

func computeDelta(rule *models.Rule, event *models.Event) int64 {
	switch rule.Action.Type {
	case models.ActionFixedPoints:
		return rule.Action.Points
	case models.ActionPercentOfAmount:
		return int64(math.Floor(event.Amount * rule.Action.Percent / 100))
	case models.ActionMultiplier:
		return int64(math.Round(float64(rule.Action.Points) * rule.Action.Multiplier))
	default:
		return 0
	}
}

// sortRules orders by priority ascending with creation order breaking ties.
// The mongo query already sorts this way; doing it here keeps the contract
// independent of the repository implementation.
func sortRules(rules []*models.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.Before(rules[j].CreatedAt)
		}
		return rules[i].ID.Hex() < rules[j].ID.Hex()
	})
}

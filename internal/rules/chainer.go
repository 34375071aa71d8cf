package rules

import (
	"log/slog"
	"sort"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/facts"
)

// Chainer runs the rule catalogue in priority order over a mutable fact set.
// Rules that assert a risk profile inject the matching derived fact back
// into the set, so later product rules can depend on it. Stateless across
// runs; safe for concurrent use with per-evaluation fact sets.
type Chainer struct {
	logger *slog.Logger
}

// NewChainer creates a forward-chaining driver.
func NewChainer(logger *slog.Logger) *Chainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chainer{logger: logger}
}

// Run evaluates every rule against the working fact set and aggregates
// failures, risk profile, recommended products, and special conditions.
// Deterministic: identical facts and catalogue produce identical output.
func (c *Chainer) Run(set *facts.Set, catalogue []*domain.Rule) *domain.ChainResult {
	ordered := make([]*domain.Rule, len(catalogue))
	copy(ordered, catalogue)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	result := &domain.ChainResult{
		RuleExecutions:    make([]domain.RuleExecution, 0, len(ordered)),
		Failures:          []string{},
		RecommendedCodes:  []string{},
		SpecialConditions: []string{},
	}
	seenFailures := make(map[string]bool)
	var assertedProfiles []string

	for _, rule := range ordered {
		start := time.Now()
		eval := Evaluate(rule, set)

		result.RuleExecutions = append(result.RuleExecutions, domain.RuleExecution{
			RuleCode:        rule.Code,
			RuleName:        rule.Name,
			Category:        rule.Category,
			Priority:        rule.Priority,
			Result:          eval.Result,
			Applied:         eval.Applied,
			Explanation:     eval.Explanation,
			Conditions:      eval.Conditions,
			ExecutionTimeMs: float64(time.Since(start).Microseconds()) / 1000,
		})

		if !eval.Applied {
			continue
		}

		if eval.Result == domain.ResultFail {
			if rule.FailureCode != "" && !seenFailures[rule.FailureCode] {
				seenFailures[rule.FailureCode] = true
				result.Failures = append(result.Failures, rule.FailureCode)
			}
			continue
		}

		outcome := ClassifyOutcome(rule)
		switch outcome.Kind {
		case domain.OutcomeRiskProfile:
			assertedProfiles = append(assertedProfiles, outcome.Value)
			if fact, ok := domain.RiskProfileFact(outcome.Value); ok {
				set.Add(fact)
			}
		case domain.OutcomeProduct:
			result.RecommendedCodes = append(result.RecommendedCodes, outcome.Value)
		case domain.OutcomeSpecialCondition:
			result.SpecialConditions = append(result.SpecialConditions, outcome.Value)
			result.RecommendedCodes = append(result.RecommendedCodes, outcome.Value)
		}
	}

	if len(assertedProfiles) > 0 {
		result.RiskProfile = assertedProfiles[0]
	} else {
		result.RiskProfile = c.inferRiskProfile(set)
		if fact, ok := domain.RiskProfileFact(result.RiskProfile); ok {
			set.Add(fact)
		}
	}

	result.Facts = set.Codes()
	return result
}

// inferRiskProfile is the fallback used when no rule asserted a profile.
// The precedence favors the safer classification only when both score and
// delinquency support it, and escalates toward higher risk otherwise.
func (c *Chainer) inferRiskProfile(set *facts.Set) string {
	score700 := set.Has(facts.FactScore700Plus)
	score500 := set.Has(facts.FactScore500to699)
	score300 := set.Has(facts.FactScore300to499)
	mora30 := set.Has(facts.FactMoraMax30)
	mora60 := set.Has(facts.FactMoraMax60)
	mora90 := set.Has(facts.FactMoraMax90)
	moraSevere := set.Has(facts.FactMoraSevere)

	switch {
	case score700 && mora30:
		return domain.RiskLow
	case score500 && mora60:
		return domain.RiskMedium
	case score300:
		return domain.RiskHigh
	case score700:
		return domain.RiskMedium
	case score500:
		return domain.RiskHigh
	case moraSevere:
		return domain.RiskHigh
	case mora30 || mora60 || mora90:
		// Delinquency information without any score band.
		return domain.RiskHigh
	default:
		c.logger.Debug("risk profile undetermined, no score or delinquency facts")
		return domain.RiskUndetermined
	}
}

// Package rules implements rule evaluation and the forward-chaining driver.
package rules

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/facts"
)

// Evaluate decides PASS / FAIL / NOT_APPLICABLE for one rule against the
// current fact set. Pure and side-effect-free; the same rule and fact set
// always produce the same evaluation.
//
// Condition semantics: "equals" is met when the fact is present,
// "not_equals" when it is absent. Unknown operators behave like "equals",
// so rules referencing unrecognized fact codes simply never satisfy.
func Evaluate(rule *domain.Rule, set *facts.Set) domain.RuleEvaluation {
	all := make([]domain.ConditionSnapshot, 0, len(rule.Conditions))
	var required, optional []domain.ConditionSnapshot
	for _, cond := range rule.Conditions {
		present := set.Has(cond.FactCode)
		met := present
		if cond.Operator == domain.OpNotEquals {
			met = !present
		}
		snap := domain.ConditionSnapshot{
			FactCode: cond.FactCode,
			Operator: cond.Operator,
			Required: cond.Required,
			Present:  present,
			Met:      met,
		}
		all = append(all, snap)
		if cond.Required {
			required = append(required, snap)
		} else {
			optional = append(optional, snap)
		}
	}

	switch {
	case len(required) > 0:
		return evaluateRequired(rule, required, all)
	case len(optional) > 0:
		return evaluateOptional(rule, optional, all)
	default:
		// A rule without conditions always applies.
		return domain.RuleEvaluation{
			Applied:     true,
			Result:      domain.ResultPass,
			Explanation: fmt.Sprintf("Regla %s aplicada: %s", rule.Code, rule.Description),
			Conditions:  all,
		}
	}
}

func evaluateRequired(rule *domain.Rule, required, all []domain.ConditionSnapshot) domain.RuleEvaluation {
	satisfied := true
	var missing []string
	for _, snap := range required {
		if !snap.Met {
			satisfied = false
			missing = append(missing, snap.FactCode)
		}
	}

	if rule.InvertLogic {
		// The rule watches for a problem condition: satisfied requirements
		// mean the problem is present.
		if satisfied {
			return domain.RuleEvaluation{
				Applied:     true,
				Result:      domain.ResultFail,
				Explanation: fmt.Sprintf("Regla %s: situación detectada: %s", rule.Code, rule.Description),
				Conditions:  all,
			}
		}
		return domain.RuleEvaluation{
			Applied:     false,
			Result:      domain.ResultPass,
			Explanation: fmt.Sprintf("Regla %s: sin hallazgos", rule.Code),
			Conditions:  all,
		}
	}

	if satisfied {
		return domain.RuleEvaluation{
			Applied:     true,
			Result:      domain.ResultPass,
			Explanation: fmt.Sprintf("Regla %s aplicada: %s", rule.Code, rule.Description),
			Conditions:  all,
		}
	}
	return domain.RuleEvaluation{
		Applied: false,
		Result:  domain.ResultFail,
		Explanation: fmt.Sprintf("Regla %s no aplicada: faltan facts requeridos: %s",
			rule.Code, strings.Join(missing, ", ")),
		Conditions: all,
	}
}

func evaluateOptional(rule *domain.Rule, optional, all []domain.ConditionSnapshot) domain.RuleEvaluation {
	anyPresent := false
	metCount := 0
	for _, snap := range optional {
		if snap.Present {
			anyPresent = true
		}
		if snap.Met {
			metCount++
		}
	}

	if !anyPresent {
		return domain.RuleEvaluation{
			Applied:     false,
			Result:      domain.ResultNotApplicable,
			Explanation: fmt.Sprintf("Regla %s no aplicable: ningún fact opcional presente", rule.Code),
			Conditions:  all,
		}
	}

	pass := metCount == len(optional)
	if rule.UseOrLogic {
		pass = metCount > 0
	}
	if pass {
		return domain.RuleEvaluation{
			Applied:     true,
			Result:      domain.ResultPass,
			Explanation: fmt.Sprintf("Regla %s aplicada: %s", rule.Code, rule.Description),
			Conditions:  all,
		}
	}
	return domain.RuleEvaluation{
		Applied:     false,
		Result:      domain.ResultFail,
		Explanation: fmt.Sprintf("Regla %s no aplicada: condiciones opcionales no cumplidas", rule.Code),
		Conditions:  all,
	}
}

// ClassifyOutcome maps a rule's success action to a tagged outcome instead
// of string-prefix checks scattered through the driver.
func ClassifyOutcome(rule *domain.Rule) domain.RuleOutcome {
	if rule.SuccessAction == "" {
		return domain.RuleOutcome{Kind: domain.OutcomeNone}
	}
	if strings.HasPrefix(rule.SuccessAction, "RIESGO_") {
		return domain.RuleOutcome{
			Kind:  domain.OutcomeRiskProfile,
			Value: domain.NormalizeRiskProfile(rule.SuccessAction),
		}
	}
	if rule.Category == domain.CategoryEspecial {
		return domain.RuleOutcome{
			Kind:  domain.OutcomeSpecialCondition,
			Value: rule.SuccessAction,
		}
	}
	return domain.RuleOutcome{Kind: domain.OutcomeProduct, Value: rule.SuccessAction}
}

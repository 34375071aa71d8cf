package domain

// Rule is one entry in the rule catalogue. Rules are static data loaded into
// an immutable snapshot; the evaluator stays generic over this schema and
// never hardcodes per-rule logic.
type Rule struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`

	// Code is the stable business identifier, e.g. "R010".
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`

	// Priority orders execution: lower numbers run earlier. Ties are broken
	// by catalogue insertion order.
	Priority int `json:"priority"`

	Conditions []RuleCondition `json:"conditions"`

	// UseOrLogic makes optional conditions combine with OR instead of AND.
	UseOrLogic bool `json:"useOrLogic"`

	// InvertLogic marks rules that watch for a problem condition: satisfied
	// requirements mean the problem is present and the rule FAILs.
	InvertLogic bool `json:"invertLogic"`

	// FailureCode is appended to the failure list when the rule fails with
	// applied=true.
	FailureCode string `json:"failureCode,omitempty"`

	// SuccessAction fires on PASS with applied=true: a RIESGO_* tag, a
	// product code, or a special-condition tag depending on category.
	SuccessAction string `json:"successAction,omitempty"`

	Enabled bool `json:"enabled"`
}

// RuleCondition is one clause over a fact code.
type RuleCondition struct {
	FactCode string `json:"factCode"`
	// Operator is "equals" (met when the fact is present) or "not_equals"
	// (met when the fact is absent). Other operators are accepted in the
	// schema for forward compatibility and treated as "equals".
	Operator string `json:"operator"`
	Required bool   `json:"required"`
}

// Condition operators.
const (
	OpEquals    = "equals"
	OpNotEquals = "not_equals"
)

// Rule categories.
const (
	CategoryAdmisibilidad  = "ADMISIBILIDAD"
	CategoryRiesgo         = "RIESGO"
	CategoryProducto       = "PRODUCTO"
	CategoryNormativa      = "NORMATIVA"
	CategoryEspecial       = "ESPECIAL"
	CategoryValidacion     = "VALIDACION"
	CategoryExplicabilidad = "EXPLICABILIDAD"
)

// Rule evaluation results.
const (
	ResultPass          = "PASS"
	ResultFail          = "FAIL"
	ResultNotApplicable = "NOT_APPLICABLE"
)

// OutcomeKind classifies what a successful rule asserts.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeRiskProfile
	OutcomeProduct
	OutcomeSpecialCondition
)

// RuleOutcome is the classified success action of an applied rule.
type RuleOutcome struct {
	Kind OutcomeKind
	// Value is the risk tier (BAJO/MEDIO/ALTO), product code, or
	// special-condition tag.
	Value string
}

// ConditionSnapshot records how one condition evaluated, for the audit trail.
type ConditionSnapshot struct {
	FactCode string `json:"factCode"`
	Operator string `json:"operator"`
	Required bool   `json:"required"`
	Present  bool   `json:"present"`
	Met      bool   `json:"met"`
}

// RuleEvaluation is the outcome of evaluating one rule against a fact set.
type RuleEvaluation struct {
	Applied     bool                `json:"applied"`
	Result      string              `json:"result"`
	Explanation string              `json:"explanation"`
	Conditions  []ConditionSnapshot `json:"conditions"`
}

// RuleExecution is the persisted audit record for one rule in one session.
type RuleExecution struct {
	RuleCode        string              `json:"ruleCode"`
	RuleName        string              `json:"ruleName"`
	Category        string              `json:"category"`
	Priority        int                 `json:"priority"`
	Result          string              `json:"result"`
	Applied         bool                `json:"applied"`
	Explanation     string              `json:"explanation"`
	Conditions      []ConditionSnapshot `json:"conditions,omitempty"`
	ExecutionTimeMs float64             `json:"executionTimeMs"`
}

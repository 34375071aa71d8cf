package domain

// ProductTemplate is a catalogue entry describing one credit product and the
// formulas used to materialize a recommendation from it.
type ProductTemplate struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`

	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// IncomeMultiplier caps the amount at monthly income times this factor.
	// Zero means FixedAmount applies instead.
	IncomeMultiplier float64 `json:"incomeMultiplier"`
	FixedAmount      float64 `json:"fixedAmount"`
	MaxAmount        float64 `json:"maxAmount"`

	// MaxTermMonths of 0 means revolving credit.
	MaxTermMonths int `json:"maxTermMonths"`

	// InterestRates maps risk tier (BAJO/MEDIO/ALTO) to a monthly rate. A
	// missing tier falls back to DefaultRate.
	InterestRates map[string]float64 `json:"interestRates,omitempty"`
	DefaultRate   float64            `json:"defaultRate"`

	BaseConfidence    float64  `json:"baseConfidence"`
	SpecialConditions []string `json:"specialConditions,omitempty"`
	Active            bool     `json:"active"`
}

// RateFor returns the interest rate for a risk tier.
func (t *ProductTemplate) RateFor(riskProfile string) float64 {
	if rate, ok := t.InterestRates[NormalizeRiskProfile(riskProfile)]; ok {
		return rate
	}
	return t.DefaultRate
}

// AmountFor returns the maximum amount for a monthly income.
func (t *ProductTemplate) AmountFor(monthlyIncome float64) float64 {
	if t.IncomeMultiplier <= 0 {
		return t.FixedAmount
	}
	amount := monthlyIncome * t.IncomeMultiplier
	if t.MaxAmount > 0 && amount > t.MaxAmount {
		return t.MaxAmount
	}
	return amount
}

// ProductRecommendation is one recommended product in an evaluation result.
type ProductRecommendation struct {
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	MaxAmount         float64  `json:"maxAmount"`
	MaxTermMonths     int      `json:"maxTermMonths"`
	InterestRate      float64  `json:"interestRate"`
	SpecialConditions []string `json:"specialConditions,omitempty"`
	Confidence        float64  `json:"confidence"`
}

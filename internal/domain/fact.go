package domain

// FactDefinition is a catalogue entry describing one boolean predicate the
// engine reasons over. A detected fact is simply the presence of a fact code
// in the working set of one evaluation.
type FactDefinition struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// FailureDefinition is a catalogue entry describing one reason a rule blocks
// approval. Name is the stable FALLA_* identifier referenced by rules.
type FailureDefinition struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Risk profile derived-fact codes injected by the forward-chaining driver.
const (
	FactRiskLow    = "FACT_PERFIL_RIESGO_BAJO"
	FactRiskMedium = "FACT_PERFIL_RIESGO_MEDIO"
	FactRiskHigh   = "FACT_PERFIL_RIESGO_ALTO"
)

// Risk profile values.
const (
	RiskLow          = "BAJO"
	RiskMedium       = "MEDIO"
	RiskHigh         = "ALTO"
	RiskUndetermined = "NO_DETERMINADO"
)

// RiskProfileFact maps a risk tier to the derived fact injected into the
// working set so later product rules can depend on it.
func RiskProfileFact(tier string) (string, bool) {
	switch NormalizeRiskProfile(tier) {
	case RiskLow:
		return FactRiskLow, true
	case RiskMedium:
		return FactRiskMedium, true
	case RiskHigh:
		return FactRiskHigh, true
	}
	return "", false
}

// NormalizeRiskProfile accepts either the RIESGO_X or bare X spelling and
// returns the bare tier.
func NormalizeRiskProfile(profile string) string {
	switch profile {
	case "RIESGO_BAJO", RiskLow:
		return RiskLow
	case "RIESGO_MEDIO", RiskMedium:
		return RiskMedium
	case "RIESGO_ALTO", RiskHigh:
		return RiskHigh
	case "", RiskUndetermined:
		return RiskUndetermined
	}
	return profile
}

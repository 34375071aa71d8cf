// Package decision synthesizes the final decision, confidence score,
// explanation, and product recommendations from a forward-chaining result.
package decision

import (
	"fmt"
	"math"
	"strings"

	"github.com/opensource-finance/kestrel/internal/catalog"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// criticalMarkers identify admissibility failures that force rejection.
var criticalMarkers = []string{
	"EDAD_FUERA_RANGO",
	"INGRESOS_INSUFICIENTES",
	"SCORE_INSUFICIENTE",
	"ENDEUDAMIENTO_EXCESIVO",
	"MORA_RECIENTE_SIGNIFICATIVA",
}

// regulatoryMarkers identify regulatory failures that force rejection.
var regulatoryMarkers = []string{
	"SARLAFT",
	"MULTIPLES_CONSULTAS",
}

// Synthesizer derives the final evaluation result.
type Synthesizer struct{}

// NewSynthesizer creates a decision synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize builds the evaluation result from a chaining pass. The
// catalogue snapshot resolves failure descriptions and product templates;
// entries missing from the catalogue are kept by name or skipped.
func (s *Synthesizer) Synthesize(chain *domain.ChainResult, input domain.ApplicantInput, snap *catalog.Snapshot) *domain.EvaluationResult {
	finalDecision := Decide(chain.Failures, chain.RiskProfile, chain.RecommendedCodes)
	confidence := Confidence(chain.Facts, chain.Failures, chain.RuleExecutions)
	products := s.buildRecommendations(chain, input, snap)

	failures := make([]domain.Failure, 0, len(chain.Failures))
	for _, name := range chain.Failures {
		f := domain.Failure{Name: name}
		if def, ok := snap.Failure(name); ok {
			f.Code = def.Code
			f.Description = def.Description
		}
		failures = append(failures, f)
	}

	return &domain.EvaluationResult{
		FinalDecision:       finalDecision,
		RiskProfile:         domain.NormalizeRiskProfile(chain.RiskProfile),
		ConfidenceScore:     confidence,
		Explanation:         Explain(finalDecision, chain.RiskProfile, chain.Failures, chain.RecommendedCodes, chain.Facts),
		FactsDetected:       chain.Facts,
		FailuresDetected:    failures,
		RecommendedProducts: products,
		SpecialConditions:   chain.SpecialConditions,
		RuleExecutions:      chain.RuleExecutions,
	}
}

// Decide applies the decision precedence: critical admissibility failures
// dominate regulatory failures, which dominate PEP review, which dominates
// product-driven approval, which dominates the risk-profile fallback.
func Decide(failures []string, riskProfile string, recommendedProducts []string) string {
	if anyMatches(failures, criticalMarkers) {
		return domain.DecisionRejected
	}
	if anyMatches(failures, regulatoryMarkers) {
		return domain.DecisionRejected
	}
	for _, f := range failures {
		if strings.Contains(f, "PEP") {
			return domain.DecisionPending
		}
	}
	if len(recommendedProducts) > 0 {
		return domain.DecisionApproved
	}
	switch domain.NormalizeRiskProfile(riskProfile) {
	case domain.RiskHigh:
		return domain.DecisionConditional
	case domain.RiskMedium, domain.RiskLow:
		return domain.DecisionApproved
	}
	return domain.DecisionPending
}

// Confidence computes the heuristic confidence score: base 85, minus 8 per
// failure, minus 2 per failed rule, plus 1.5 per positive fact, plus 0.5
// per passed rule, clamped to [10,100] and rounded. The positive-fact
// markers match nearly every fact code in practice, making this primarily
// a volume bonus; it is kept as a specified, reproducible formula.
func Confidence(factCodes []string, failures []string, executions []domain.RuleExecution) float64 {
	confidence := 85.0

	confidence -= float64(len(failures)) * 8

	failed, passed := 0, 0
	for _, exec := range executions {
		switch exec.Result {
		case domain.ResultFail:
			failed++
		case domain.ResultPass:
			passed++
		}
	}
	confidence -= float64(failed) * 2

	positive := 0
	for _, code := range factCodes {
		if strings.Contains(code, "MIN_") || strings.Contains(code, "MAX_") ||
			strings.Contains(code, "BAJO") || strings.Contains(code, "EXCELENTE") ||
			strings.Contains(code, "FACT_") {
			positive++
		}
	}
	confidence += float64(positive) * 1.5
	confidence += float64(passed) * 0.5

	return math.Max(10, math.Min(100, math.Round(confidence)))
}

// Explain builds the deterministic explanation text for a decision.
func Explain(finalDecision, riskProfile string, failures, recommendedProducts, factCodes []string) string {
	var b strings.Builder

	switch finalDecision {
	case domain.DecisionRejected:
		b.WriteString("Solicitud rechazada por los siguientes motivos:\n")
		for _, f := range failures {
			fmt.Fprintf(&b, "• %s\n", f)
		}
		b.WriteString("\nPara mejorar su perfil crediticio, considere:\n")
		b.WriteString("• Reducir su nivel de endeudamiento\n")
		b.WriteString("• Mejorar su historial de pagos\n")
		b.WriteString("• Aumentar sus ingresos comprobables")
	case domain.DecisionApproved:
		fmt.Fprintf(&b, "Solicitud aprobada con perfil de riesgo %s.\n\n", domain.NormalizeRiskProfile(riskProfile))
		b.WriteString("Factores positivos identificados:\n")
		shown := factCodes
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for _, f := range shown {
			fmt.Fprintf(&b, "• %s\n", f)
		}
		if len(recommendedProducts) > 0 {
			b.WriteString("\nProductos recomendados:\n")
			for _, p := range recommendedProducts {
				fmt.Fprintf(&b, "• %s\n", p)
			}
		}
	case domain.DecisionConditional:
		b.WriteString("Solicitud aprobada con condiciones especiales.\n\n")
		fmt.Fprintf(&b, "Perfil de riesgo: %s\n", domain.NormalizeRiskProfile(riskProfile))
		b.WriteString("Se requieren garantías adicionales o condiciones específicas.")
	default:
		b.WriteString("Solicitud en revisión manual.\n\n")
		b.WriteString("Su caso requiere evaluación adicional por parte de nuestro equipo especializado.")
	}

	return b.String()
}

// buildRecommendations materializes product recommendations from the
// catalogue templates. Codes without an active template are skipped. When
// no rule recommended a product, low and medium profiles get a fallback
// suggestion.
func (s *Synthesizer) buildRecommendations(chain *domain.ChainResult, input domain.ApplicantInput, snap *catalog.Snapshot) []domain.ProductRecommendation {
	income, _ := input.Float("monthly_income")
	profile := domain.NormalizeRiskProfile(chain.RiskProfile)

	codes := chain.RecommendedCodes
	if len(codes) == 0 {
		switch profile {
		case domain.RiskLow:
			codes = []string{"CREDITO_LIBRE_INVERSION", "TARJETA_CREDITO"}
		case domain.RiskMedium:
			codes = []string{"CREDITO_CON_CODEUDOR", "MICROCREDITO"}
		}
	}

	recs := make([]domain.ProductRecommendation, 0, len(codes))
	seen := make(map[string]bool)
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true

		tmpl, ok := snap.Product(code)
		if !ok {
			continue
		}
		recs = append(recs, domain.ProductRecommendation{
			Code:              tmpl.Code,
			Name:              tmpl.Name,
			Description:       tmpl.Description,
			MaxAmount:         tmpl.AmountFor(income),
			MaxTermMonths:     tmpl.MaxTermMonths,
			InterestRate:      tmpl.RateFor(profile),
			SpecialConditions: tmpl.SpecialConditions,
			Confidence:        tmpl.BaseConfidence,
		})
	}
	return recs
}

func anyMatches(failures []string, markers []string) bool {
	for _, f := range failures {
		for _, m := range markers {
			if strings.Contains(f, m) {
				return true
			}
		}
	}
	return false
}

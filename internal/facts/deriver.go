package facts

import (
	"log/slog"
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// SMMLV is the Colombian monthly minimum wage used for income thresholds.
const SMMLV = 1_300_000

// Fact codes emitted by the deriver.
const (
	FactAge18to75     = "FACT_EDAD_18_75"
	FactAgeUnder18    = "FACT_EDAD_MENOR_18"
	FactAgeOver75     = "FACT_EDAD_MAYOR_75"
	FactIncomeMin1    = "FACT_INGRESOS_MIN_1_SMMLV"
	FactIncomeMin2    = "FACT_INGRESOS_MIN_2_SMMLV"
	FactIncomeMin3    = "FACT_INGRESOS_MIN_3_SMMLV"
	FactIncomeMin4    = "FACT_INGRESOS_MIN_4_SMMLV"
	FactIncomeMin5    = "FACT_INGRESOS_MIN_5_SMMLV"
	FactIncomeLow     = "FACT_INGRESOS_INSUFICIENTES"
	FactScoreMin300   = "FACT_SCORE_MIN_300"
	FactScoreLow      = "FACT_SCORE_INSUFICIENTE"
	FactScore700Plus  = "FACT_SCORE_700_PLUS"
	FactScore500to699 = "FACT_SCORE_500_699"
	FactScore300to499 = "FACT_SCORE_300_499"
	FactDebtMax50     = "FACT_ENDEUDAMIENTO_MAX_50"
	FactDebtExcessive = "FACT_ENDEUDAMIENTO_EXCESIVO"
	FactMoraMax30     = "FACT_MORA_MAX_30_DIAS"
	FactMoraMax60     = "FACT_MORA_MAX_60_DIAS"
	FactMoraMax90     = "FACT_MORA_MAX_90_DIAS"
	FactMora31to90    = "FACT_MORA_31_90_DIAS"
	FactMoraSevere    = "FACT_MORA_RECIENTE_SIGNIFICATIVA"
	FactPurposeHome   = "FACT_FINALIDAD_VIVIENDA"
	FactPurposeCar    = "FACT_FINALIDAD_VEHICULO"
	FactTenure6       = "FACT_ANTIGUEDAD_LABORAL_MINIMA"
	FactTenure12      = "FACT_ANTIGUEDAD_LABORAL_12_MESES"
	FactTenure24      = "FACT_ANTIGUEDAD_LABORAL_24_MESES"
	FactPaymentMax30  = "FACT_CUOTA_MAX_30_INGRESOS"
	FactPaymentMax40  = "FACT_CUOTA_MAX_40_INGRESOS"
	FactDownPay30     = "FACT_PORCENTAJE_INICIAL_30"
	FactDownPay50     = "FACT_ENGANCHE_MIN_50"
	FactCoBorrower    = "FACT_CODEUDOR_DISPONIBLE"
	FactCoBorrower2S  = "FACT_INGRESOS_CODEUDOR_2_SMMLV"
	FactMicro         = "FACT_ACTIVIDAD_MICROEMPRESARIAL"
	FactSarlaftHigh   = "FACT_ACTIVIDAD_ALTO_RIESGO_SARLAFT"
	FactSarlaftLow    = "FACT_ACTIVIDAD_BAJO_RIESGO_SARLAFT"
	FactPEP           = "FACT_PERSONA_PEP"
	FactPEPApproved   = "FACT_APROBACION_COMITE_PEP"
	FactInquiriesLow  = "FACT_CONSULTAS_ULTIMOS_30_DIAS_3"
	FactInquiriesHigh = "FACT_MULTIPLES_CONSULTAS"
	FactCustomer24    = "FACT_ANTIGUEDAD_CLIENTE_24_MESES"
	FactCompliance95  = "FACT_CUMPLIMIENTO_HISTORICO_95"
	FactConvention    = "FACT_EMPLEADO_EMPRESA_CONVENIO"
	FactPayrollAuth   = "FACT_DESCUENTO_NOMINA_AUTORIZADO"
	FactPensioner     = "FACT_TIPO_VINCULACION_PENSIONADO"
	FactPension2S     = "FACT_MESADA_PENSION_2_SMMLV"
	FactPensionLegal  = "FACT_PENSION_LEGAL"
)

// highRiskActivities are economic activities flagged under SARLAFT.
var highRiskActivities = map[string]bool{
	"juegos":  true,
	"casinos": true,
	"cambios": true,
	"remesas": true,
}

// requiredFields are expected on every request. Their absence is tolerated
// but logged.
var requiredFields = []string{
	"age", "monthly_income", "credit_score",
	"employment_status", "credit_purpose", "requested_amount",
}

// Deriver converts raw applicant input into a fact set. Pure and
// deterministic: malformed or missing fields never error, they just skip
// their contribution.
type Deriver struct {
	logger *slog.Logger
}

// NewDeriver creates a fact deriver.
func NewDeriver(logger *slog.Logger) *Deriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deriver{logger: logger}
}

// Derive maps applicant input to a fact set. Field mappers run in a fixed
// order so the resulting sequence is stable across runs.
func (d *Deriver) Derive(input domain.ApplicantInput) *Set {
	set := NewSet()

	for _, field := range requiredFields {
		if _, ok := input[field]; !ok {
			d.logger.Warn("required applicant field missing", "field", field)
		}
	}

	if age, ok := input.Float("age"); ok {
		switch {
		case age >= 18 && age <= 75:
			set.Add(FactAge18to75)
		case age < 18:
			set.Add(FactAgeUnder18)
		default:
			set.Add(FactAgeOver75)
		}
	}

	if income, ok := input.Float("monthly_income"); ok {
		if income >= SMMLV {
			set.Add(FactIncomeMin1)
		} else {
			set.Add(FactIncomeLow)
		}
		if income >= 2*SMMLV {
			set.Add(FactIncomeMin2)
		}
		if income >= 3*SMMLV {
			set.Add(FactIncomeMin3)
		}
		if income >= 4*SMMLV {
			set.Add(FactIncomeMin4)
		}
		if income >= 5*SMMLV {
			set.Add(FactIncomeMin5)
		}
	}

	if score, ok := input.Float("credit_score"); ok {
		if score >= 300 {
			set.Add(FactScoreMin300)
		} else {
			set.Add(FactScoreLow)
		}
		switch {
		case score >= 700:
			set.Add(FactScore700Plus)
		case score >= 500:
			set.Add(FactScore500to699)
		case score >= 300:
			set.Add(FactScore300to499)
		}
	}

	if ratio, ok := input.Float("debt_to_income_ratio"); ok {
		if normalizeRatio(ratio) <= 0.50 {
			set.Add(FactDebtMax50)
		} else {
			set.Add(FactDebtExcessive)
		}
	}

	if days, ok := input.Float("max_days_delinquency"); ok {
		// Thresholds are inclusive upward: delinquency of at most N days
		// also satisfies every larger bound.
		switch {
		case days <= 30:
			set.Add(FactMoraMax30)
			set.Add(FactMoraMax60)
			set.Add(FactMoraMax90)
		case days <= 60:
			set.Add(FactMoraMax60)
			set.Add(FactMoraMax90)
		case days <= 90:
			set.Add(FactMoraMax90)
			set.Add(FactMora31to90)
		default:
			set.Add(FactMoraSevere)
		}
	}

	if purpose, ok := input.String("credit_purpose"); ok {
		switch strings.ToLower(purpose) {
		case "vivienda":
			set.Add(FactPurposeHome)
		case "vehiculo":
			set.Add(FactPurposeCar)
		}
	}

	if months, ok := input.Float("employment_tenure_months"); ok {
		if months >= 6 {
			set.Add(FactTenure6)
		}
		if months >= 12 {
			set.Add(FactTenure12)
		}
		if months >= 24 {
			set.Add(FactTenure24)
		}
	}

	if ratio, ok := input.Float("payment_to_income_ratio"); ok {
		r := normalizeRatio(ratio)
		if r <= 0.30 {
			set.Add(FactPaymentMax30)
		}
		if r <= 0.40 {
			set.Add(FactPaymentMax40)
		}
	}

	if pct, ok := input.Float("down_payment_percentage"); ok {
		if pct >= 30 {
			set.Add(FactDownPay30)
		}
		if pct >= 50 {
			set.Add(FactDownPay50)
		}
	}

	if has, ok := input.Bool("has_co_borrower"); ok && has {
		set.Add(FactCoBorrower)
	}

	if income, ok := input.Float("co_borrower_income"); ok && income >= 2*SMMLV {
		set.Add(FactCoBorrower2S)
	}

	if isMicro, ok := input.Bool("is_microenterprise"); ok && isMicro {
		set.Add(FactMicro)
	}

	if activity, ok := input.String("economic_activity"); ok {
		if highRiskActivities[strings.ToLower(activity)] {
			set.Add(FactSarlaftHigh)
		} else {
			set.Add(FactSarlaftLow)
		}
	}

	if isPep, ok := input.Bool("is_pep"); ok && isPep {
		set.Add(FactPEP)
	}

	if approved, ok := input.Bool("pep_committee_approval"); ok && approved {
		set.Add(FactPEPApproved)
	}

	if count, ok := input.Float("recent_inquiries"); ok {
		if count <= 3 {
			set.Add(FactInquiriesLow)
		} else {
			set.Add(FactInquiriesHigh)
		}
	}

	if months, ok := input.Float("customer_tenure_months"); ok && months >= 24 {
		set.Add(FactCustomer24)
	}

	if pct, ok := input.Float("historical_compliance"); ok && pct >= 95 {
		set.Add(FactCompliance95)
	}

	if isConv, ok := input.Bool("is_convention_employee"); ok && isConv {
		set.Add(FactConvention)
	}

	if auth, ok := input.Bool("payroll_discount_authorized"); ok && auth {
		set.Add(FactPayrollAuth)
	}

	if empType, ok := input.String("employment_type"); ok {
		if strings.EqualFold(empType, "pensionado") {
			set.Add(FactPensioner)
		}
	}

	if amount, ok := input.Float("pension_amount"); ok && amount >= 2*SMMLV {
		set.Add(FactPension2S)
	}

	if isLegal, ok := input.Bool("is_legal_pension"); ok && isLegal {
		set.Add(FactPensionLegal)
	}

	return set
}

// normalizeRatio accepts either a 0-1 fraction or a 0-100 percentage.
func normalizeRatio(r float64) float64 {
	if r > 1 {
		return r / 100
	}
	return r
}

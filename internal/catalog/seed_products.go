package catalog

import (
	"github.com/opensource-finance/kestrel/internal/domain"
)

// DefaultProductTemplates returns the seed product catalogue. Amounts are
// capped at monthly income times the multiplier, up to the absolute maximum;
// rates vary by risk tier where the business defines tiered pricing.
func DefaultProductTemplates(tenantID string) []*domain.ProductTemplate {
	products := []*domain.ProductTemplate{
		{
			Code:             "CREDITO_HIPOTECARIO",
			Name:             "Crédito Hipotecario",
			Description:      "Crédito para adquisición de vivienda",
			IncomeMultiplier: 15,
			MaxAmount:        200_000_000,
			MaxTermMonths:    240,
			InterestRates: map[string]float64{
				domain.RiskLow:    1.2,
				domain.RiskMedium: 1.5,
			},
			DefaultRate:    2.0,
			BaseConfidence: 95,
			SpecialConditions: []string{
				"Requiere enganche mínimo del 20%",
				"Seguro de vida obligatorio",
			},
		},
		{
			Code:             "CREDITO_VEHICULO",
			Name:             "Crédito Vehículo",
			Description:      "Crédito para adquisición de vehículo",
			IncomeMultiplier: 10,
			MaxAmount:        80_000_000,
			MaxTermMonths:    60,
			InterestRates: map[string]float64{
				domain.RiskLow:    1.0,
				domain.RiskMedium: 1.2,
			},
			DefaultRate:    1.8,
			BaseConfidence: 90,
			SpecialConditions: []string{
				"Seguro vehicular obligatorio",
				"Hipoteca sobre el vehículo",
			},
		},
		{
			Code:             "CREDITO_VEHICULO_CONDICIONADO",
			Name:             "Crédito Vehículo Condicionado",
			Description:      "Crédito vehicular con condiciones especiales",
			IncomeMultiplier: 8,
			MaxAmount:        60_000_000,
			MaxTermMonths:    48,
			DefaultRate:      1.5,
			BaseConfidence:   85,
			SpecialConditions: []string{
				"Requiere enganche del 30%",
				"Seguro de desempleo obligatorio",
			},
		},
		{
			Code:             "CREDITO_VEHICULO_ALTO_RIESGO",
			Name:             "Crédito Vehículo Alto Riesgo",
			Description:      "Crédito vehicular para perfiles de alto riesgo",
			IncomeMultiplier: 6,
			MaxAmount:        50_000_000,
			MaxTermMonths:    48,
			DefaultRate:      2.2,
			BaseConfidence:   70,
			SpecialConditions: []string{
				"Requiere enganche del 50%",
				"Seguro vehicular obligatorio",
			},
		},
		{
			Code:             "CREDITO_LIBRE_INVERSION",
			Name:             "Crédito Libre Inversión",
			Description:      "Crédito de libre inversión para gastos personales",
			IncomeMultiplier: 15,
			MaxAmount:        50_000_000,
			MaxTermMonths:    60,
			InterestRates: map[string]float64{
				domain.RiskLow:    1.8,
				domain.RiskMedium: 2.2,
			},
			DefaultRate:    2.8,
			BaseConfidence: 88,
			SpecialConditions: []string{
				"Antigüedad laboral mínima 12 meses",
			},
		},
		{
			Code:             "CREDITO_CON_CODEUDOR",
			Name:             "Crédito con Codeudor",
			Description:      "Crédito con codeudor solidario",
			IncomeMultiplier: 12,
			MaxAmount:        30_000_000,
			MaxTermMonths:    48,
			DefaultRate:      2.0,
			BaseConfidence:   80,
			SpecialConditions: []string{
				"Codeudor con ingresos mínimos 2 SMMLV",
				"Evaluación conjunta obligatoria",
			},
		},
		{
			Code:           "MICROCREDITO",
			Name:           "Microcrédito",
			Description:    "Crédito para microempresarios",
			FixedAmount:    25_000_000,
			MaxTermMonths:  36,
			DefaultRate:    2.5,
			BaseConfidence: 75,
			SpecialConditions: []string{
				"Actividad microempresarial comprobada",
				"Capacitación financiera obligatoria",
			},
		},
		{
			Code:           "MICROCREDITO_ALTO_RIESGO",
			Name:           "Microcrédito Alto Riesgo",
			Description:    "Microcrédito para perfiles de alto riesgo",
			FixedAmount:    15_000_000,
			MaxTermMonths:  24,
			DefaultRate:    3.0,
			BaseConfidence: 65,
			SpecialConditions: []string{
				"Actividad microempresarial comprobada",
				"Garantía adicional requerida",
			},
		},
		{
			Code:             "TARJETA_CREDITO",
			Name:             "Tarjeta de Crédito",
			Description:      "Tarjeta de crédito con cupo aprobado",
			IncomeMultiplier: 3,
			MaxAmount:        15_000_000,
			MaxTermMonths:    0, // Revolving
			DefaultRate:      2.8,
			BaseConfidence:   92,
			SpecialConditions: []string{
				"Cupo inicial según perfil",
				"Seguro de protección de compras",
			},
		},
		{
			Code:             "TARJETA_CREDITO_CONDICIONADA",
			Name:             "Tarjeta de Crédito Condicionada",
			Description:      "Tarjeta de crédito con cupo restringido",
			IncomeMultiplier: 2,
			MaxAmount:        8_000_000,
			MaxTermMonths:    0, // Revolving
			DefaultRate:      3.2,
			BaseConfidence:   60,
			SpecialConditions: []string{
				"Cupo restringido inicial",
				"Revisión semestral del cupo",
			},
		},
		{
			Code:             "CREDITO_NOMINA",
			Name:             "Crédito de Nómina",
			Description:      "Crédito con descuento por nómina",
			IncomeMultiplier: 8,
			MaxAmount:        40_000_000,
			MaxTermMonths:    36,
			DefaultRate:      1.5,
			BaseConfidence:   95,
			SpecialConditions: []string{
				"Descuento automático por nómina",
				"Tasa preferencial",
			},
		},
		{
			Code:             "CREDITO_PENSIONADOS",
			Name:             "Crédito para Pensionados",
			Description:      "Crédito especial para pensionados",
			IncomeMultiplier: 6,
			MaxAmount:        20_000_000,
			MaxTermMonths:    72,
			DefaultRate:      1.8,
			BaseConfidence:   90,
			SpecialConditions: []string{
				"Descuento máximo 30% de mesada",
				"Pensión legal comprobada",
			},
		},
	}

	for _, p := range products {
		p.ID = p.Code
		p.TenantID = tenantID
		p.Active = true
	}
	return products
}

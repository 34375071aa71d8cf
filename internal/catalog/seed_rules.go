package catalog

import (
	"github.com/opensource-finance/kestrel/internal/domain"
)

func req(factCode string) domain.RuleCondition {
	return domain.RuleCondition{FactCode: factCode, Operator: domain.OpEquals, Required: true}
}

func reqAbsent(factCode string) domain.RuleCondition {
	return domain.RuleCondition{FactCode: factCode, Operator: domain.OpNotEquals, Required: true}
}

// DefaultRules returns the seed rule catalogue.
//
// Admissibility and regulatory rules use inverted logic: each watches the
// fact that signals the problem, fails when it is present, and stays silent
// otherwise. That keeps the failure list free of entries for applicants the
// rule has nothing to say about.
func DefaultRules(tenantID string) []*domain.Rule {
	rules := []*domain.Rule{
		// Admisibilidad general
		{
			Code:        "R001",
			Name:        "Edad Mínima",
			Description: "Detectar solicitantes menores de 18 años",
			Category:    domain.CategoryAdmisibilidad,
			Priority:    1,
			InvertLogic: true,
			Conditions:  []domain.RuleCondition{req("FACT_EDAD_MENOR_18")},
			FailureCode: "FALLA_EDAD_FUERA_RANGO",
		},
		{
			Code:        "R002",
			Name:        "Edad Máxima",
			Description: "Detectar solicitantes mayores de 75 años",
			Category:    domain.CategoryAdmisibilidad,
			Priority:    2,
			InvertLogic: true,
			Conditions:  []domain.RuleCondition{req("FACT_EDAD_MAYOR_75")},
			FailureCode: "FALLA_EDAD_FUERA_RANGO",
		},
		{
			Code:        "R003",
			Name:        "Ingresos Mínimos",
			Description: "Detectar ingresos inferiores a 1 SMMLV",
			Category:    domain.CategoryAdmisibilidad,
			Priority:    3,
			InvertLogic: true,
			Conditions:  []domain.RuleCondition{req("FACT_INGRESOS_INSUFICIENTES")},
			FailureCode: "FALLA_INGRESOS_INSUFICIENTES",
		},
		{
			Code:        "R004",
			Name:        "Score Crediticio Mínimo",
			Description: "Detectar score inferior a 300 puntos",
			Category:    domain.CategoryAdmisibilidad,
			Priority:    4,
			InvertLogic: true,
			Conditions:  []domain.RuleCondition{req("FACT_SCORE_INSUFICIENTE")},
			FailureCode: "FALLA_SCORE_INSUFICIENTE",
		},
		{
			Code:        "R005",
			Name:        "Nivel de Endeudamiento",
			Description: "Detectar endeudamiento superior al 50%",
			Category:    domain.CategoryAdmisibilidad,
			Priority:    5,
			InvertLogic: true,
			Conditions:  []domain.RuleCondition{req("FACT_ENDEUDAMIENTO_EXCESIVO")},
			FailureCode: "FALLA_ENDEUDAMIENTO_EXCESIVO",
		},
		{
			Code:        "R006",
			Name:        "Mora Reciente",
			Description: "Detectar mora superior a 90 días en los últimos 12 meses",
			Category:    domain.CategoryAdmisibilidad,
			Priority:    6,
			InvertLogic: true,
			Conditions:  []domain.RuleCondition{req("FACT_MORA_RECIENTE_SIGNIFICATIVA")},
			FailureCode: "FALLA_MORA_RECIENTE_SIGNIFICATIVA",
		},

		// Clasificación de riesgo
		{
			Code:        "R010",
			Name:        "Clasificación Riesgo Bajo",
			Description: "Clasificar como riesgo bajo",
			Category:    domain.CategoryRiesgo,
			Priority:    10,
			Conditions: []domain.RuleCondition{
				req("FACT_SCORE_700_PLUS"),
				req("FACT_MORA_MAX_30_DIAS"),
			},
			SuccessAction: "RIESGO_BAJO",
		},
		{
			Code:        "R011",
			Name:        "Clasificación Riesgo Medio",
			Description: "Clasificar como riesgo medio",
			Category:    domain.CategoryRiesgo,
			Priority:    11,
			Conditions: []domain.RuleCondition{
				req("FACT_SCORE_500_699"),
				req("FACT_MORA_MAX_60_DIAS"),
			},
			SuccessAction: "RIESGO_MEDIO",
		},
		{
			Code:        "R012",
			Name:        "Clasificación Riesgo Alto",
			Description: "Clasificar como riesgo alto",
			Category:    domain.CategoryRiesgo,
			Priority:    12,
			Conditions: []domain.RuleCondition{
				req("FACT_SCORE_300_499"),
			},
			SuccessAction: "RIESGO_ALTO",
		},

		// Productos para riesgo bajo
		{
			Code:        "R020",
			Name:        "Crédito Hipotecario",
			Description: "Recomendar crédito hipotecario",
			Category:    domain.CategoryProducto,
			Priority:    20,
			Conditions: []domain.RuleCondition{
				req(domain.FactRiskLow),
				req("FACT_FINALIDAD_VIVIENDA"),
				req("FACT_INGRESOS_MIN_4_SMMLV"),
				req("FACT_CUOTA_MAX_30_INGRESOS"),
			},
			SuccessAction: "CREDITO_HIPOTECARIO",
		},
		{
			Code:        "R021",
			Name:        "Crédito Vehículo",
			Description: "Recomendar crédito vehicular",
			Category:    domain.CategoryProducto,
			Priority:    21,
			Conditions: []domain.RuleCondition{
				req(domain.FactRiskLow),
				req("FACT_FINALIDAD_VEHICULO"),
				req("FACT_INGRESOS_MIN_3_SMMLV"),
				req("FACT_CUOTA_MAX_40_INGRESOS"),
			},
			SuccessAction: "CREDITO_VEHICULO",
		},
		{
			Code:        "R022",
			Name:        "Crédito Libre Inversión",
			Description: "Recomendar crédito de libre inversión",
			Category:    domain.CategoryProducto,
			Priority:    22,
			Conditions: []domain.RuleCondition{
				req(domain.FactRiskLow),
				req("FACT_INGRESOS_MIN_3_SMMLV"),
				req("FACT_ANTIGUEDAD_LABORAL_12_MESES"),
			},
			SuccessAction: "CREDITO_LIBRE_INVERSION",
		},
		{
			Code:        "R023",
			Name:        "Tarjeta de Crédito",
			Description: "Recomendar tarjeta de crédito",
			Category:    domain.CategoryProducto,
			Priority:    23,
			Conditions: []domain.RuleCondition{
				req(domain.FactRiskLow),
				req("FACT_INGRESOS_MIN_2_SMMLV"),
			},
			SuccessAction: "TARJETA_CREDITO",
		},

		// Productos para riesgo medio
		{
			Code:        "R030",
			Name:        "Crédito Vehículo Condicionado",
			Description: "Recomendar crédito vehicular condicionado",
			Category:    domain.CategoryProducto,
			Priority:    30,
			Conditions: []domain.RuleCondition{
				req(domain.FactRiskMedium),
				req("FACT_FINALIDAD_VEHICULO"),
				req("FACT_INGRESOS_MIN_4_SMMLV"),
				req("FACT_PORCENTAJE_INICIAL_30"),
			},
			SuccessAction: "CREDITO_VEHICULO_CONDICIONADO",
		},
		{
			Code:        "R031",
			Name:        "Crédito con Codeudor",
			Description: "Recomendar crédito con codeudor",
			Category:    domain.CategoryProducto,
			Priority:    31,
			Conditions: []domain.RuleCondition{
				req(domain.FactRiskMedium),
				req("FACT_INGRESOS_MIN_2_SMMLV"),
				req("FACT_CODEUDOR_DISPONIBLE"),
				req("FACT_INGRESOS_CODEUDOR_2_SMMLV"),
			},
			SuccessAction: "CREDITO_CON_CODEUDOR",
		},
		{
			Code:        "R032",
			Name:        "Microcrédito",
			Description: "Recomendar microcrédito",
			Category:    domain.CategoryProducto,
			Priority:    32,
			Conditions: []domain.RuleCondition{
				req(domain.FactRiskMedium),
				req("FACT_INGRESOS_MIN_1_SMMLV"),
				req("FACT_ACTIVIDAD_MICROEMPRESARIAL"),
			},
			SuccessAction: "MICROCREDITO",
		},

		// Productos para riesgo alto
		{
			Code:        "R033",
			Name:        "Crédito Vehículo Alto Riesgo",
			Description: "Recomendar crédito vehicular para alto riesgo",
			Category:    domain.CategoryProducto,
			Priority:    33,
			Conditions: []domain.RuleCondition{
				req(domain.FactRiskHigh),
				req("FACT_FINALIDAD_VEHICULO"),
				req("FACT_INGRESOS_MIN_5_SMMLV"),
				req("FACT_ENGANCHE_MIN_50"),
			},
			SuccessAction: "CREDITO_VEHICULO_ALTO_RIESGO",
		},
		{
			Code:        "R034",
			Name:        "Microcrédito Alto Riesgo",
			Description: "Recomendar microcrédito para alto riesgo",
			Category:    domain.CategoryProducto,
			Priority:    34,
			Conditions: []domain.RuleCondition{
				req(domain.FactRiskHigh),
				req("FACT_INGRESOS_MIN_2_SMMLV"),
				req("FACT_ACTIVIDAD_MICROEMPRESARIAL"),
			},
			SuccessAction: "MICROCREDITO_ALTO_RIESGO",
		},
		{
			Code:        "R035",
			Name:        "Tarjeta de Crédito Condicionada",
			Description: "Recomendar tarjeta de crédito condicionada",
			Category:    domain.CategoryProducto,
			Priority:    35,
			Conditions: []domain.RuleCondition{
				req(domain.FactRiskHigh),
				req("FACT_INGRESOS_MIN_3_SMMLV"),
				req("FACT_ANTIGUEDAD_LABORAL_24_MESES"),
			},
			SuccessAction: "TARJETA_CREDITO_CONDICIONADA",
		},

		// Validación normativa
		{
			Code:        "R040",
			Name:        "Validación SARLAFT",
			Description: "Detectar actividades de alto riesgo SARLAFT",
			Category:    domain.CategoryNormativa,
			Priority:    40,
			InvertLogic: true,
			Conditions:  []domain.RuleCondition{req("FACT_ACTIVIDAD_ALTO_RIESGO_SARLAFT")},
			FailureCode: "FALLA_ACTIVIDAD_ALTO_RIESGO_SARLAFT",
		},
		{
			Code:        "R041",
			Name:        "Validación PEP",
			Description: "Detectar personas políticamente expuestas sin aprobación de comité",
			Category:    domain.CategoryNormativa,
			Priority:    41,
			InvertLogic: true,
			Conditions: []domain.RuleCondition{
				req("FACT_PERSONA_PEP"),
				reqAbsent("FACT_APROBACION_COMITE_PEP"),
			},
			FailureCode: "FALLA_PERSONA_PEP_SIN_APROBACION",
		},
		{
			Code:        "R042",
			Name:        "Múltiples Consultas",
			Description: "Detectar múltiples consultas simultáneas",
			Category:    domain.CategoryNormativa,
			Priority:    42,
			InvertLogic: true,
			Conditions:  []domain.RuleCondition{req("FACT_MULTIPLES_CONSULTAS")},
			FailureCode: "FALLA_MULTIPLES_CONSULTAS",
		},

		// Validación adicional
		{
			Code:        "R043",
			Name:        "Validación de Documentos",
			Description: "Validar completitud y validez de documentos",
			Category:    domain.CategoryValidacion,
			Priority:    43,
			Conditions: []domain.RuleCondition{
				req("FACT_DOCUMENTOS_COMPLETOS"),
				req("FACT_DOCUMENTOS_VALIDOS"),
			},
			FailureCode: "FALLA_DOCUMENTOS_INCOMPLETOS",
		},
		{
			Code:        "R044",
			Name:        "Validación de Referencias",
			Description: "Validar referencias personales y comerciales",
			Category:    domain.CategoryValidacion,
			Priority:    44,
			Conditions: []domain.RuleCondition{
				req("FACT_REFERENCIAS_VERIFICADAS"),
				req("FACT_REFERENCIAS_POSITIVAS"),
			},
			FailureCode: "FALLA_REFERENCIAS_NEGATIVAS",
		},
		{
			Code:        "R045",
			Name:        "Validación de Garantías",
			Description: "Validar suficiencia y avalúo de garantías",
			Category:    domain.CategoryValidacion,
			Priority:    45,
			Conditions: []domain.RuleCondition{
				req("FACT_GARANTIAS_SUFICIENTES"),
				req("FACT_GARANTIAS_AVALUADAS"),
			},
			FailureCode: "FALLA_GARANTIAS_INSUFICIENTES",
		},
		{
			Code:        "R046",
			Name:        "Validación de Historial Crediticio",
			Description: "Validar historial crediticio y cumplimiento de pagos",
			Category:    domain.CategoryValidacion,
			Priority:    46,
			Conditions: []domain.RuleCondition{
				req("FACT_HISTORIAL_CREDITICIO_POSITIVO"),
				req("FACT_CUMPLIMIENTO_PAGOS"),
			},
			FailureCode: "FALLA_HISTORIAL_CREDITICIO_NEGATIVO",
		},
		{
			Code:        "R047",
			Name:        "Validación de Capacidad de Pago",
			Description: "Validar capacidad de pago del solicitante",
			Category:    domain.CategoryValidacion,
			Priority:    47,
			Conditions: []domain.RuleCondition{
				req("FACT_CAPACIDAD_PAGO_DEMOSTRADA"),
				req("FACT_MARGEN_PAGO_SUFICIENTE"),
			},
			FailureCode: "FALLA_CAPACIDAD_PAGO_INSUFICIENTE",
		},
		{
			Code:        "R048",
			Name:        "Validación de Estabilidad Laboral",
			Description: "Validar estabilidad y antigüedad laboral",
			Category:    domain.CategoryValidacion,
			Priority:    48,
			Conditions: []domain.RuleCondition{
				req("FACT_ESTABILIDAD_LABORAL"),
				req("FACT_ANTIGUEDAD_LABORAL_MINIMA"),
			},
			FailureCode: "FALLA_ESTABILIDAD_LABORAL_INSUFICIENTE",
		},

		// Condiciones especiales
		{
			Code:        "R050",
			Name:        "Cliente Preferencial",
			Description: "Aplicar beneficios de cliente preferencial",
			Category:    domain.CategoryEspecial,
			Priority:    50,
			Conditions: []domain.RuleCondition{
				req("FACT_ANTIGUEDAD_CLIENTE_24_MESES"),
				req("FACT_CUMPLIMIENTO_HISTORICO_95"),
			},
			SuccessAction: "CLIENTE_PREFERENCIAL",
		},
		{
			Code:        "R051",
			Name:        "Empleado Empresa Convenio",
			Description: "Aplicar crédito de nómina",
			Category:    domain.CategoryEspecial,
			Priority:    51,
			Conditions: []domain.RuleCondition{
				req("FACT_EMPLEADO_EMPRESA_CONVENIO"),
				req("FACT_DESCUENTO_NOMINA_AUTORIZADO"),
			},
			SuccessAction: "CREDITO_NOMINA",
		},
		{
			Code:        "R052",
			Name:        "Pensionado",
			Description: "Aplicar crédito para pensionados",
			Category:    domain.CategoryEspecial,
			Priority:    52,
			Conditions: []domain.RuleCondition{
				req("FACT_TIPO_VINCULACION_PENSIONADO"),
				req("FACT_MESADA_PENSION_2_SMMLV"),
				req("FACT_PENSION_LEGAL"),
			},
			SuccessAction: "CREDITO_PENSIONADOS",
		},

		// Explicabilidad
		{
			Code:          "R060",
			Name:          "Generación de Justificación",
			Description:   "Generar explicación detallada de la decisión",
			Category:      domain.CategoryExplicabilidad,
			Priority:      60,
			Conditions:    []domain.RuleCondition{req("FACT_DECISION_TOMADA")},
			SuccessAction: "GENERAR_EXPLICACION_DETALLADA",
		},
		{
			Code:          "R061",
			Name:          "Trazabilidad de Decisiones",
			Description:   "Registrar trazabilidad completa de la evaluación",
			Category:      domain.CategoryExplicabilidad,
			Priority:      61,
			Conditions:    []domain.RuleCondition{req("FACT_EVALUACION_COMPLETADA")},
			SuccessAction: "REGISTRAR_TRAZABILIDAD",
		},
	}

	for _, r := range rules {
		r.ID = r.Code
		r.TenantID = tenantID
		r.Enabled = true
	}
	return rules
}

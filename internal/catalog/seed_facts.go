package catalog

import (
	"github.com/opensource-finance/kestrel/internal/domain"
)

// DefaultFactDefinitions returns the seed fact vocabulary.
func DefaultFactDefinitions(tenantID string) []*domain.FactDefinition {
	defs := []struct {
		code, description string
	}{
		// Admisibilidad
		{"FACT_EDAD_18_75", "Edad del solicitante entre 18 y 75 años"},
		{"FACT_EDAD_MENOR_18", "Edad del solicitante menor a 18 años"},
		{"FACT_EDAD_MAYOR_75", "Edad del solicitante mayor a 75 años"},
		{"FACT_INGRESOS_MIN_1_SMMLV", "Ingresos mensuales netos igual o superior a 1 SMMLV"},
		{"FACT_INGRESOS_INSUFICIENTES", "Ingresos mensuales netos inferiores a 1 SMMLV"},
		{"FACT_SCORE_MIN_300", "Score en centrales de riesgo igual o superior a 300 puntos"},
		{"FACT_SCORE_INSUFICIENTE", "Score en centrales de riesgo inferior a 300 puntos"},
		{"FACT_ENDEUDAMIENTO_MAX_50", "Nivel de endeudamiento igual o inferior al 50% de ingresos"},
		{"FACT_ENDEUDAMIENTO_EXCESIVO", "Nivel de endeudamiento superior al 50% de ingresos"},
		{"FACT_MORA_MAX_90_DIAS", "Mora máxima en últimos 12 meses igual o inferior a 90 días"},
		{"FACT_MORA_RECIENTE_SIGNIFICATIVA", "Mora máxima en últimos 12 meses superior a 90 días"},

		// Clasificación de riesgo
		{"FACT_SCORE_700_PLUS", "Score en centrales de riesgo igual o superior a 700 puntos"},
		{"FACT_MORA_MAX_30_DIAS", "Mora máxima en últimos 12 meses igual o inferior a 30 días"},
		{"FACT_SCORE_500_699", "Score en centrales de riesgo entre 500 y 699 puntos"},
		{"FACT_MORA_MAX_60_DIAS", "Mora máxima en últimos 12 meses igual o inferior a 60 días"},
		{"FACT_SCORE_300_499", "Score en centrales de riesgo entre 300 y 499 puntos"},
		{"FACT_MORA_31_90_DIAS", "Mora máxima en últimos 12 meses entre 31 y 90 días"},
		{"FACT_PERFIL_RIESGO_BAJO", "Clasificación de perfil de riesgo bajo"},
		{"FACT_PERFIL_RIESGO_MEDIO", "Clasificación de perfil de riesgo medio"},
		{"FACT_PERFIL_RIESGO_ALTO", "Clasificación de perfil de riesgo alto"},

		// Productos
		{"FACT_FINALIDAD_VIVIENDA", "Finalidad del crédito es para vivienda"},
		{"FACT_INGRESOS_MIN_4_SMMLV", "Ingresos mensuales netos igual o superior a 4 SMMLV"},
		{"FACT_INGRESOS_MIN_5_SMMLV", "Ingresos mensuales netos igual o superior a 5 SMMLV"},
		{"FACT_CUOTA_MAX_30_INGRESOS", "Cuota proyectada igual o inferior al 30% de ingresos"},
		{"FACT_FINALIDAD_VEHICULO", "Finalidad del crédito es para vehículo"},
		{"FACT_INGRESOS_MIN_3_SMMLV", "Ingresos mensuales netos igual o superior a 3 SMMLV"},
		{"FACT_CUOTA_MAX_40_INGRESOS", "Cuota proyectada igual o inferior al 40% de ingresos"},
		{"FACT_ANTIGUEDAD_LABORAL_12_MESES", "Antigüedad laboral igual o superior a 12 meses"},
		{"FACT_ANTIGUEDAD_LABORAL_24_MESES", "Antigüedad laboral igual o superior a 24 meses"},
		{"FACT_ANTIGUEDAD_LABORAL_MINIMA", "Antigüedad laboral igual o superior a 6 meses"},
		{"FACT_INGRESOS_MIN_2_SMMLV", "Ingresos mensuales netos igual o superior a 2 SMMLV"},
		{"FACT_PORCENTAJE_INICIAL_30", "Porcentaje de inicial igual o superior al 30%"},
		{"FACT_ENGANCHE_MIN_50", "Enganche igual o superior al 50% del valor"},
		{"FACT_CODEUDOR_DISPONIBLE", "Codeudor disponible para el crédito"},
		{"FACT_INGRESOS_CODEUDOR_2_SMMLV", "Ingresos del codeudor igual o superior a 2 SMMLV"},
		{"FACT_ACTIVIDAD_MICROEMPRESARIAL", "Actividad microempresarial comprobada"},

		// Normativa
		{"FACT_ACTIVIDAD_ALTO_RIESGO_SARLAFT", "Actividad económica en lista de alto riesgo SARLAFT"},
		{"FACT_ACTIVIDAD_BAJO_RIESGO_SARLAFT", "Actividad económica no está en lista de alto riesgo SARLAFT"},
		{"FACT_PERSONA_PEP", "Persona políticamente expuesta"},
		{"FACT_APROBACION_COMITE_PEP", "Aprobación de comité especial para PEP"},
		{"FACT_CONSULTAS_ULTIMOS_30_DIAS_3", "Número de consultas en últimos 30 días igual o inferior a 3"},
		{"FACT_MULTIPLES_CONSULTAS", "Múltiples consultas simultáneas detectadas"},

		// Condiciones especiales
		{"FACT_ANTIGUEDAD_CLIENTE_24_MESES", "Antigüedad como cliente igual o superior a 24 meses"},
		{"FACT_CUMPLIMIENTO_HISTORICO_95", "Cumplimiento histórico igual o superior al 95%"},
		{"FACT_EMPLEADO_EMPRESA_CONVENIO", "Empleado de empresa con convenio"},
		{"FACT_DESCUENTO_NOMINA_AUTORIZADO", "Descuento por nómina autorizado"},
		{"FACT_TIPO_VINCULACION_PENSIONADO", "Tipo de vinculación es pensionado"},
		{"FACT_MESADA_PENSION_2_SMMLV", "Mesada de pensión igual o superior a 2 SMMLV"},
		{"FACT_PENSION_LEGAL", "Pensión legal comprobada"},

		// Validación adicional
		{"FACT_DOCUMENTOS_COMPLETOS", "Documentos completos"},
		{"FACT_DOCUMENTOS_VALIDOS", "Documentos válidos y verificados"},
		{"FACT_REFERENCIAS_VERIFICADAS", "Referencias verificadas"},
		{"FACT_REFERENCIAS_POSITIVAS", "Referencias positivas"},
		{"FACT_GARANTIAS_SUFICIENTES", "Garantías suficientes para el crédito"},
		{"FACT_GARANTIAS_AVALUADAS", "Garantías avaluadas"},
		{"FACT_HISTORIAL_CREDITICIO_POSITIVO", "Historial crediticio positivo"},
		{"FACT_CUMPLIMIENTO_PAGOS", "Cumplimiento de pagos comprobado"},
		{"FACT_CAPACIDAD_PAGO_DEMOSTRADA", "Capacidad de pago demostrada"},
		{"FACT_MARGEN_PAGO_SUFICIENTE", "Margen de pago suficiente"},
		{"FACT_ESTABILIDAD_LABORAL", "Estabilidad laboral comprobada"},

		// Explicabilidad
		{"FACT_DECISION_TOMADA", "Decisión de la evaluación tomada"},
		{"FACT_EVALUACION_COMPLETADA", "Evaluación completada"},
	}

	out := make([]*domain.FactDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, &domain.FactDefinition{
			ID:          d.code,
			TenantID:    tenantID,
			Code:        d.code,
			Description: d.description,
		})
	}
	return out
}

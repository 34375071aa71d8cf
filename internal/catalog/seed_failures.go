package catalog

import (
	"github.com/opensource-finance/kestrel/internal/domain"
)

// DefaultFailureDefinitions returns the seed failure catalogue.
func DefaultFailureDefinitions(tenantID string) []*domain.FailureDefinition {
	defs := []struct {
		code, name, description string
	}{
		// Admisibilidad
		{"ADM001", "FALLA_EDAD_FUERA_RANGO", "Edad fuera del rango permitido (18-75 años)"},
		{"ADM002", "FALLA_INGRESOS_INSUFICIENTES", "Ingresos insuficientes, mínimo requerido 1 SMMLV"},
		{"ADM003", "FALLA_SCORE_INSUFICIENTE", "Score crediticio insuficiente, mínimo requerido 300 puntos"},
		{"ADM004", "FALLA_ENDEUDAMIENTO_EXCESIVO", "Nivel de endeudamiento excesivo, máximo permitido 50%"},
		{"ADM005", "FALLA_MORA_RECIENTE_SIGNIFICATIVA", "Mora reciente significativa superior a 90 días"},

		// Normativa
		{"NORM001", "FALLA_ACTIVIDAD_ALTO_RIESGO_SARLAFT", "Actividad económica de alto riesgo LA/FT"},
		{"NORM002", "FALLA_PERSONA_PEP_SIN_APROBACION", "Requiere aprobación de comité especial para PEP"},
		{"NORM003", "FALLA_MULTIPLES_CONSULTAS", "Múltiples consultas simultáneas detectadas"},

		// Validación adicional
		{"VAL001", "FALLA_DOCUMENTOS_INCOMPLETOS", "Documentación incompleta o no verificable"},
		{"VAL002", "FALLA_REFERENCIAS_NEGATIVAS", "Referencias personales o comerciales negativas"},
		{"VAL003", "FALLA_GARANTIAS_INSUFICIENTES", "Garantías insuficientes para el crédito"},
		{"VAL004", "FALLA_HISTORIAL_CREDITICIO_NEGATIVO", "Historial crediticio deficiente"},
		{"VAL005", "FALLA_CAPACIDAD_PAGO_INSUFICIENTE", "Capacidad de pago insuficiente"},
		{"VAL006", "FALLA_ESTABILIDAD_LABORAL_INSUFICIENTE", "Estabilidad laboral insuficiente"},

		// Productos
		{"PROD001", "FALLA_NO_APLICA_CREDITO_HIPOTECARIO", "No aplica para crédito hipotecario"},
		{"PROD002", "FALLA_NO_APLICA_CREDITO_VEHICULO", "No aplica para crédito vehicular"},
		{"PROD003", "FALLA_NO_APLICA_CREDITO_LIBRE_INVERSION", "No aplica para crédito de libre inversión"},
		{"PROD004", "FALLA_NO_APLICA_TARJETA_CREDITO", "No aplica para tarjeta de crédito"},
		{"PROD005", "FALLA_NO_APLICA_CREDITO_CON_CODEUDOR", "No aplica para crédito con codeudor"},
		{"PROD006", "FALLA_NO_APLICA_MICROCREDITO", "No aplica para microcrédito"},
	}

	out := make([]*domain.FailureDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, &domain.FailureDefinition{
			ID:          d.code,
			TenantID:    tenantID,
			Code:        d.code,
			Name:        d.name,
			Description: d.description,
		})
	}
	return out
}

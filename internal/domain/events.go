package domain

// Typed payloads for the evaluation pipeline topics. TopicEvaluationRequested
// carries an EvaluationRequest; TopicEvaluationCompleted and TopicManualReview
// carry an EvaluationResponse.

// EvaluationFailedEvent is published on TopicEvaluationFailed when an
// evaluation cannot reach a COMPLETED session.
type EvaluationFailedEvent struct {
	SessionID string `json:"sessionId"`
	TenantID  string `json:"tenantId"`
	Error     string `json:"error"`
}

// CatalogReloadedEvent is published on TopicCatalogReloaded after a
// successful hot reload, so other nodes can refresh their snapshots.
type CatalogReloadedEvent struct {
	TenantID string `json:"tenantId"`
	Rules    int    `json:"rules"`
}

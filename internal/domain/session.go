package domain

import (
	"time"
)

// EvaluationSession is one applicant evaluation from request to terminal
// state. Created PENDING, mutated as stages complete, write-once after
// reaching COMPLETED or FAILED.
type EvaluationSession struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenantId"`
	ApplicantID string         `json:"applicantId,omitempty"`
	Status      string         `json:"status"`
	Input       ApplicantInput `json:"inputData"`

	Result *EvaluationResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`

	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

// Session statuses.
const (
	SessionPending   = "PENDING"
	SessionCompleted = "COMPLETED"
	SessionFailed    = "FAILED"
)

// Final decisions.
const (
	DecisionApproved    = "APROBADO"
	DecisionRejected    = "RECHAZADO"
	DecisionConditional = "CONDICIONADO"
	DecisionPending     = "PENDIENTE"
)

// Failure is one detected failure in an evaluation result, resolved against
// the failure catalogue when possible.
type Failure struct {
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

// ChainResult is the output of one forward-chaining pass.
type ChainResult struct {
	Facts             []string        `json:"facts"`
	RuleExecutions    []RuleExecution `json:"ruleExecutions"`
	Failures          []string        `json:"failures"`
	RiskProfile       string          `json:"riskProfile"`
	RecommendedCodes  []string        `json:"recommendedProducts"`
	SpecialConditions []string        `json:"specialConditions"`
}

// EvaluationResult is the synthesized outcome of a completed evaluation.
type EvaluationResult struct {
	FinalDecision   string  `json:"finalDecision"`
	RiskProfile     string  `json:"riskProfile"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Explanation     string  `json:"explanation"`

	FactsDetected       []string                `json:"factsDetected"`
	FailuresDetected    []Failure               `json:"failuresDetected"`
	RecommendedProducts []ProductRecommendation `json:"recommendedProducts"`
	SpecialConditions   []string                `json:"specialConditions,omitempty"`
	RuleExecutions      []RuleExecution         `json:"ruleExecutions"`

	Metadata EvaluationMetadata `json:"metadata"`
}

// EvaluationMetadata contains processing information.
type EvaluationMetadata struct {
	TraceID        string `json:"traceId,omitempty"`
	DeriveMs       int64  `json:"deriveMs"`
	ChainMs        int64  `json:"chainMs"`
	DecisionMs     int64  `json:"decisionMs"`
	TotalMs        int64  `json:"totalMs"`
	RulesEvaluated int    `json:"rulesEvaluated"`
	EngineVersion  string `json:"engineVersion"`
}

// EvaluationResponse is the API response for an applicant evaluation.
type EvaluationResponse struct {
	SessionID           string                  `json:"sessionId"`
	TenantID            string                  `json:"tenantId"`
	ApplicantID         string                  `json:"applicantId,omitempty"`
	Status              string                  `json:"status"`
	FinalDecision       string                  `json:"finalDecision"`
	RiskProfile         string                  `json:"riskProfile"`
	ConfidenceScore     float64                 `json:"confidenceScore"`
	Explanation         string                  `json:"explanation"`
	FactsDetected       []string                `json:"factsDetected"`
	FailuresDetected    []string                `json:"failuresDetected"`
	RecommendedProducts []ProductRecommendation `json:"recommendedProducts"`
	RuleExecutions      []RuleExecution         `json:"ruleExecutions"`
	Metadata            EvaluationMetadata      `json:"metadata"`
	EvaluatedAt         time.Time               `json:"evaluatedAt"`
}

// ToResponse converts a terminal session to an API response.
func (s *EvaluationSession) ToResponse() *EvaluationResponse {
	resp := &EvaluationResponse{
		SessionID:   s.ID,
		TenantID:    s.TenantID,
		ApplicantID: s.ApplicantID,
		Status:      s.Status,
		EvaluatedAt: s.CompletedAt,
	}
	if s.Result == nil {
		return resp
	}

	resp.FinalDecision = s.Result.FinalDecision
	resp.RiskProfile = s.Result.RiskProfile
	resp.ConfidenceScore = s.Result.ConfidenceScore
	resp.Explanation = s.Result.Explanation
	resp.FactsDetected = s.Result.FactsDetected
	resp.RecommendedProducts = s.Result.RecommendedProducts
	resp.RuleExecutions = s.Result.RuleExecutions
	resp.Metadata = s.Result.Metadata

	failures := make([]string, 0, len(s.Result.FailuresDetected))
	for _, f := range s.Result.FailuresDetected {
		failures = append(failures, f.Name)
	}
	resp.FailuresDetected = failures
	return resp
}

package domain

import "encoding/json"

// ApplicantInput holds the raw applicant fields submitted for evaluation.
// Fields are loosely typed on purpose: the fact deriver tolerates missing or
// malformed values and simply skips their contribution.
type ApplicantInput map[string]interface{}

// Float returns a numeric field as float64. The second return is false when
// the field is absent or not a number.
func (in ApplicantInput) Float(key string) (float64, bool) {
	v, ok := in[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Bool returns a boolean field. False when absent or not a bool.
func (in ApplicantInput) Bool(key string) (bool, bool) {
	v, ok := in[key]
	if !ok || v == nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// String returns a non-empty string field. False when absent, empty, or not
// a string.
func (in ApplicantInput) String(key string) (string, bool) {
	v, ok := in[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// EvaluationRequest is the API request payload for an applicant evaluation.
type EvaluationRequest struct {
	TenantID    string         `json:"tenantId"`
	ApplicantID string         `json:"applicantId,omitempty"`
	SessionID   string         `json:"sessionId,omitempty"`
	Input       ApplicantInput `json:"inputData"`
}

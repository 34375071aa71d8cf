package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/catalog"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/evaluation"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo         domain.Repository
	cache        domain.Cache
	bus          domain.EventBus
	orchestrator *evaluation.Orchestrator
	store        *catalog.Store
	version      string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, orchestrator *evaluation.Orchestrator, store *catalog.Store, version string) *Handler {
	return &Handler{
		repo:         repo,
		cache:        cache,
		bus:          bus,
		orchestrator: orchestrator,
		store:        store,
		version:      version,
	}
}

// EvaluateRequest is the request body for POST /v1/evaluate.
type EvaluateRequest struct {
	ApplicantID string               `json:"applicantId,omitempty"`
	Input       domain.ApplicantInput `json:"inputData"`
}

// Evaluate handles POST /v1/evaluate requests. The default mode is
// synchronous; ?async=true queues the evaluation on the event bus and
// returns the session ID immediately.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if len(req.Input) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "inputData is required",
		})
		return
	}

	evalReq := &domain.EvaluationRequest{
		TenantID:    tenantID,
		ApplicantID: req.ApplicantID,
		Input:       req.Input,
	}

	if r.URL.Query().Get("async") == "true" {
		h.evaluateAsync(w, r, evalReq)
		return
	}

	session, err := h.orchestrator.Evaluate(ctx, evalReq)
	if err != nil {
		if errors.Is(err, evaluation.ErrEmptyInput) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
			return
		}
		slog.Error("evaluation failed",
			"session_id", session.ID,
			"tenant_id", tenantID,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "evaluation failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, session.ToResponse())
}

// evaluateAsync queues the evaluation request for the worker.
func (h *Handler) evaluateAsync(w http.ResponseWriter, r *http.Request, req *domain.EvaluationRequest) {
	if h.bus == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "event bus not available",
		})
		return
	}

	// Pre-assign the session ID so the caller can poll for the result
	req.SessionID = "eval_" + uuid.New().String()

	payload, err := json.Marshal(req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to encode request",
		})
		return
	}

	if err := h.bus.Publish(r.Context(), req.TenantID, domain.TopicEvaluationRequested, payload); err != nil {
		slog.Error("failed to queue evaluation", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to queue evaluation",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"sessionId": req.SessionID,
		"status":    domain.SessionPending,
	})
}

// GetEvaluation retrieves an evaluation session by ID.
func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	sessionID := chi.URLParam(r, "id")

	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "session id is required",
		})
		return
	}

	session, err := h.orchestrator.GetSession(ctx, tenantID, sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "evaluation not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, session.ToResponse())
}

// ListEvaluations returns recent sessions for an applicant.
func (h *Handler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	applicantID := r.URL.Query().Get("applicant_id")
	if applicantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "applicant_id query parameter is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "days must be a positive integer",
			})
			return
		}
		days = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	sessions, err := h.repo.ListSessionsByApplicant(ctx, tenantID, applicantID, since)
	if err != nil {
		slog.Error("failed to list sessions", "applicant_id", applicantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list evaluations",
		})
		return
	}

	responses := make([]*domain.EvaluationResponse, 0, len(sessions))
	for _, s := range sessions {
		responses = append(responses, s.ToResponse())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"evaluations": responses,
		"count":       len(responses),
	})
}

// GetStats returns session counts grouped by final decision.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	counts, err := h.repo.CountSessionsByDecision(ctx, tenantID)
	if err != nil {
		slog.Error("failed to count sessions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load stats",
		})
		return
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"byDecision": counts,
		"total":      total,
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// ListRules returns the rules in the active catalogue snapshot.
// Rules are loaded from the database at startup and can be reloaded via
// POST /v1/rules/reload.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules := h.store.Snapshot().Rules()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules":  rules,
		"count":  len(rules),
		"source": "database",
	})
}

// GetRule retrieves a rule by code from the active snapshot.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule code is required",
		})
		return
	}

	for _, rule := range h.store.Snapshot().Rules() {
		if rule.Code == code {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// CreateRuleRequest is the request body for creating a rule.
type CreateRuleRequest struct {
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	Category      string                 `json:"category"`
	Priority      int                    `json:"priority"`
	Conditions    []domain.RuleCondition `json:"conditions"`
	UseOrLogic    bool                   `json:"useOrLogic"`
	InvertLogic   bool                   `json:"invertLogic"`
	FailureCode   string                 `json:"failureCode,omitempty"`
	SuccessAction string                 `json:"successAction,omitempty"`
	Enabled       bool                   `json:"enabled"`
}

// CreateRule saves a new rule for the tenant. After saving, call
// POST /v1/rules/reload to hot-reload the catalogue.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.Code == "" || req.Name == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "code, name, and category are required",
		})
		return
	}

	for _, cond := range req.Conditions {
		if cond.FactCode == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "condition factCode cannot be empty",
			})
			return
		}
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	rule := &domain.Rule{
		ID:            req.Code,
		TenantID:      tenantID,
		Code:          req.Code,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Priority:      req.Priority,
		Conditions:    req.Conditions,
		UseOrLogic:    req.UseOrLogic,
		InvertLogic:   req.InvertLogic,
		FailureCode:   req.FailureCode,
		SuccessAction: req.SuccessAction,
		Enabled:       req.Enabled,
	}

	if err := h.repo.SaveRule(ctx, tenantID, rule); err != nil {
		slog.Error("failed to save rule", "code", rule.Code, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save rule",
		})
		return
	}

	slog.Info("rule created", "code", rule.Code, "name", rule.Name)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"rule":    rule,
		"message": "Rule created. Call POST /v1/rules/reload to apply changes.",
	})
}

// ReloadRules rebuilds the catalogue snapshot from the database.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if err := h.store.Reload(ctx, tenantID); err != nil {
		slog.Error("failed to reload catalogue", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload catalogue: " + err.Error(),
		})
		return
	}

	count := len(h.store.Snapshot().Rules())

	if h.bus != nil {
		payload, _ := json.Marshal(domain.CatalogReloadedEvent{
			TenantID: tenantID,
			Rules:    count,
		})
		if err := h.bus.Publish(ctx, tenantID, domain.TopicCatalogReloaded, payload); err != nil {
			slog.Warn("failed to publish catalogue reload event", "error", err)
		}
	}

	slog.Info("catalogue reloaded", "tenant_id", tenantID, "rules", count)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "catalogue reloaded successfully",
		"count":   count,
	})
}

// ListFacts returns the fact definitions in the active snapshot.
func (h *Handler) ListFacts(w http.ResponseWriter, r *http.Request) {
	facts := h.store.Snapshot().Facts()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"facts": facts,
		"count": len(facts),
	})
}

// ListFailures returns the failure definitions in the active snapshot.
func (h *Handler) ListFailures(w http.ResponseWriter, r *http.Request) {
	failures := h.store.Snapshot().Failures()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"failures": failures,
		"count":    len(failures),
	})
}

// ListProducts returns the active product templates in the snapshot.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.store.Snapshot().Products()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

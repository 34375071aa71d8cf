package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/catalog"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/evaluation"
)

// apiRepo is an in-memory repository for API tests.
type apiRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.EvaluationSession

	rules    []*domain.Rule
	facts    []*domain.FactDefinition
	failures []*domain.FailureDefinition
	products []*domain.ProductTemplate
}

func newAPIRepo() *apiRepo {
	return &apiRepo{sessions: make(map[string]*domain.EvaluationSession)}
}

func (a *apiRepo) SaveSession(ctx context.Context, tenantID string, s *domain.EvaluationSession) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	copied := *s
	a.sessions[s.ID] = &copied
	return nil
}

func (a *apiRepo) GetSession(ctx context.Context, tenantID, sessionID string) (*domain.EvaluationSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[sessionID]
	if !ok {
		return nil, evaluation.ErrSessionNotFound
	}
	return s, nil
}

func (a *apiRepo) ListSessionsByApplicant(ctx context.Context, tenantID, applicantID string, since time.Time) ([]*domain.EvaluationSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*domain.EvaluationSession
	for _, s := range a.sessions {
		if s.ApplicantID == applicantID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (a *apiRepo) CountSessionsByDecision(ctx context.Context, tenantID string) (map[string]int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	counts := make(map[string]int64)
	for _, s := range a.sessions {
		if s.Result != nil {
			counts[s.Result.FinalDecision]++
		}
	}
	return counts, nil
}

func (a *apiRepo) SaveRule(ctx context.Context, tenantID string, r *domain.Rule) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, existing := range a.rules {
		if existing.Code == r.Code {
			a.rules[i] = r
			return nil
		}
	}
	a.rules = append(a.rules, r)
	return nil
}

func (a *apiRepo) GetRule(ctx context.Context, tenantID, code string) (*domain.Rule, error) {
	return nil, nil
}

func (a *apiRepo) ListRules(ctx context.Context, tenantID string) ([]*domain.Rule, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*domain.Rule(nil), a.rules...), nil
}

func (a *apiRepo) SaveFactDefinition(ctx context.Context, tenantID string, d *domain.FactDefinition) error {
	a.facts = append(a.facts, d)
	return nil
}

func (a *apiRepo) ListFactDefinitions(ctx context.Context, tenantID string) ([]*domain.FactDefinition, error) {
	return a.facts, nil
}

func (a *apiRepo) SaveFailureDefinition(ctx context.Context, tenantID string, d *domain.FailureDefinition) error {
	a.failures = append(a.failures, d)
	return nil
}

func (a *apiRepo) ListFailureDefinitions(ctx context.Context, tenantID string) ([]*domain.FailureDefinition, error) {
	return a.failures, nil
}

func (a *apiRepo) SaveProductTemplate(ctx context.Context, tenantID string, p *domain.ProductTemplate) error {
	a.products = append(a.products, p)
	return nil
}

func (a *apiRepo) GetProductTemplate(ctx context.Context, tenantID, code string) (*domain.ProductTemplate, error) {
	return nil, nil
}

func (a *apiRepo) ListProductTemplates(ctx context.Context, tenantID string) ([]*domain.ProductTemplate, error) {
	return a.products, nil
}

func (a *apiRepo) Ping(ctx context.Context) error { return nil }
func (a *apiRepo) Close() error                   { return nil }

// createTestServer builds a server backed by in-memory components with the
// default catalogue seeded for tenant-001.
func createTestServer(t *testing.T, eventBus domain.EventBus) (*Server, *apiRepo) {
	t.Helper()

	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}

	repo := newAPIRepo()
	store := catalog.NewStore(repo, nil)
	ctx := context.Background()
	if err := store.Seed(ctx, "tenant-001"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := store.Reload(ctx, "tenant-001"); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	orchestrator := evaluation.NewOrchestrator(store, evaluation.Options{Repo: repo, Bus: eventBus})

	return NewServer(cfg, repo, nil, eventBus, orchestrator, store, "test-v1"), repo
}

func applicantBody() []byte {
	body, _ := json.Marshal(EvaluateRequest{
		ApplicantID: "app-001",
		Input: domain.ApplicantInput{
			"age":                      30,
			"monthly_income":           3_000_000,
			"credit_score":             750,
			"max_days_delinquency":     10,
			"employment_status":        "empleado",
			"credit_purpose":           "vivienda",
			"requested_amount":         50_000_000,
			"employment_tenure_months": 24,
			"payment_to_income_ratio":  0.25,
			"debt_to_income_ratio":     0.3,
		},
	})
	return body
}

func TestEvaluateEndpoint(t *testing.T) {
	server, _ := createTestServer(t, nil)

	t.Run("SuccessfulEvaluation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewBuffer(applicantBody()))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp domain.EvaluationResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if !strings.HasPrefix(resp.SessionID, "eval_") {
			t.Errorf("expected eval_ session id, got '%s'", resp.SessionID)
		}
		if resp.Status != domain.SessionCompleted {
			t.Errorf("expected COMPLETED, got '%s'", resp.Status)
		}
		if resp.FinalDecision != domain.DecisionApproved {
			t.Errorf("expected APROBADO, got '%s'", resp.FinalDecision)
		}
		if resp.Metadata.EngineVersion == "" {
			t.Error("expected engine version in metadata")
		}
	})

	t.Run("MissingTenantID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		// No X-Tenant-ID header

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewBufferString("not-json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewBufferString(`{"inputData":{}}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("ResponseHeaders", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewBuffer(applicantBody()))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header in response")
		}
		if rr.Header().Get("X-Trace-ID") == "" {
			t.Error("expected X-Trace-ID header in response")
		}
		if rr.Header().Get("Content-Type") != "application/json" {
			t.Error("expected Content-Type: application/json")
		}
	})
}

func TestEvaluateAsync(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	server, repo := createTestServer(t, eventBus)

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate?async=true", bytes.NewBuffer(applicantBody()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", "tenant-001")

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(rr.Body.Bytes(), &resp)

	if !strings.HasPrefix(resp["sessionId"], "eval_") {
		t.Errorf("expected eval_ session id, got '%s'", resp["sessionId"])
	}
	if resp["status"] != domain.SessionPending {
		t.Errorf("expected PENDING, got '%s'", resp["status"])
	}

	// Nothing consumed the queue, so nothing is persisted yet
	if _, err := repo.GetSession(context.Background(), "tenant-001", resp["sessionId"]); err == nil {
		t.Error("queued evaluation must not be persisted before processing")
	}
}

func TestGetEvaluationEndpoint(t *testing.T) {
	server, _ := createTestServer(t, nil)

	// Create a session first
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewBuffer(applicantBody()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", "tenant-001")
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	var created domain.EvaluationResponse
	json.Unmarshal(rr.Body.Bytes(), &created)

	t.Run("Found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/evaluations/"+created.SessionID, nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}

		var resp domain.EvaluationResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.SessionID != created.SessionID {
			t.Errorf("expected session '%s', got '%s'", created.SessionID, resp.SessionID)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/evaluations/eval_missing", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestListEvaluationsEndpoint(t *testing.T) {
	server, _ := createTestServer(t, nil)

	// Create a session for app-001
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewBuffer(applicantBody()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", "tenant-001")
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	t.Run("ByApplicant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/evaluations?applicant_id=app-001", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 1 {
			t.Errorf("expected 1 evaluation, got %d", resp.Count)
		}
	})

	t.Run("MissingApplicantID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/evaluations", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InvalidDays", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/evaluations?applicant_id=app-001&days=zero", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestStatsEndpoint(t *testing.T) {
	server, _ := createTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewBuffer(applicantBody()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", "tenant-001")
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	req = httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	req.Header.Set("X-Tenant-ID", "tenant-001")

	rr = httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		ByDecision map[string]int64 `json:"byDecision"`
		Total      int64            `json:"total"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)

	if resp.Total != 1 {
		t.Errorf("expected 1 total session, got %d", resp.Total)
	}
	if resp.ByDecision[domain.DecisionApproved] != 1 {
		t.Errorf("expected 1 approved session, got %d", resp.ByDecision[domain.DecisionApproved])
	}
}

func TestRuleEndpoints(t *testing.T) {
	server, _ := createTestServer(t, nil)

	t.Run("ListRules", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/rules", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count == 0 {
			t.Error("expected seeded rules in the snapshot")
		}
	})

	t.Run("GetRule", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/rules/R001", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var rule domain.Rule
		json.Unmarshal(rr.Body.Bytes(), &rule)
		if rule.Code != "R001" {
			t.Errorf("expected rule R001, got '%s'", rule.Code)
		}
	})

	t.Run("GetRuleNotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/rules/R999", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("CreateAndReload", func(t *testing.T) {
		body, _ := json.Marshal(CreateRuleRequest{
			Code:     "R900",
			Name:     "Custom tenure rule",
			Category: domain.CategoryValidacion,
			Priority: 90,
			Conditions: []domain.RuleCondition{
				{FactCode: "FACT_EMPLEO_ESTABLE", Operator: domain.OpEquals, Required: true},
			},
			Enabled: true,
		})

		req := httptest.NewRequest(http.MethodPost, "/v1/rules", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}

		// New rule is not visible until reload
		req = httptest.NewRequest(http.MethodGet, "/v1/rules/R900", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected 404 before reload, got %d", rr.Code)
		}

		req = httptest.NewRequest(http.MethodPost, "/v1/rules/reload", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("reload failed: %d: %s", rr.Code, rr.Body.String())
		}

		req = httptest.NewRequest(http.MethodGet, "/v1/rules/R900", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("expected 200 after reload, got %d", rr.Code)
		}
	})

	t.Run("CreateRuleMissingFields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/rules", bytes.NewBufferString(`{"code":"R901"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestCatalogueEndpoints(t *testing.T) {
	server, _ := createTestServer(t, nil)

	for _, path := range []string{"/v1/facts", "/v1/failures", "/v1/products"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, rr.Code)
			continue
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count == 0 {
			t.Errorf("%s: expected seeded catalogue entries", path)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := createTestServer(t, nil)

	t.Run("HealthCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}

		var resp map[string]string
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp["status"] != "healthy" {
			t.Errorf("expected status 'healthy', got '%s'", resp["status"])
		}
		if resp["version"] != "test-v1" {
			t.Errorf("expected version 'test-v1', got '%s'", resp["version"])
		}
	})

	t.Run("ReadyCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("TenantMiddlewareExtractsID", func(t *testing.T) {
		var capturedTenantID string

		handler := TenantMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedTenantID = GetTenantID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Tenant-ID", "my-tenant-123")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedTenantID != "my-tenant-123" {
			t.Errorf("expected tenant ID 'my-tenant-123', got '%s'", capturedTenantID)
		}
	})

	t.Run("TenantMiddlewareRejectsMalformedID", func(t *testing.T) {
		handler := TenantMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run for a malformed tenant id")
		}))

		for _, id := range []string{
			"bad tenant",
			"lender.norte",
			"lender;drop",
			strings.Repeat("x", 65),
		} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Tenant-ID", id)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("tenant id %q: expected 400, got %d", id, rr.Code)
			}
		}
	})

	t.Run("TracingMiddlewareSetsRequestID", func(t *testing.T) {
		var capturedRequestID string

		handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, ok := r.Context().Value(RequestIDKey).(string); ok {
				capturedRequestID = v
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedRequestID == "" {
			t.Error("expected request ID to be set")
		}

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID response header")
		}
	})

	t.Run("RecoverMiddlewareHandlesPanic", func(t *testing.T) {
		handler := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		// Should not panic
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rr.Code)
		}
	})
}

package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// memRepo is an in-memory repository covering the catalogue operations the
// store exercises.
type memRepo struct {
	rules    []*domain.Rule
	facts    []*domain.FactDefinition
	failures []*domain.FailureDefinition
	products []*domain.ProductTemplate
}

func (m *memRepo) SaveSession(ctx context.Context, tenantID string, s *domain.EvaluationSession) error {
	return nil
}
func (m *memRepo) GetSession(ctx context.Context, tenantID, sessionID string) (*domain.EvaluationSession, error) {
	return nil, nil
}
func (m *memRepo) ListSessionsByApplicant(ctx context.Context, tenantID, applicantID string, since time.Time) ([]*domain.EvaluationSession, error) {
	return nil, nil
}
func (m *memRepo) CountSessionsByDecision(ctx context.Context, tenantID string) (map[string]int64, error) {
	return nil, nil
}
func (m *memRepo) SaveRule(ctx context.Context, tenantID string, r *domain.Rule) error {
	m.rules = append(m.rules, r)
	return nil
}
func (m *memRepo) GetRule(ctx context.Context, tenantID, code string) (*domain.Rule, error) {
	return nil, nil
}
func (m *memRepo) ListRules(ctx context.Context, tenantID string) ([]*domain.Rule, error) {
	return m.rules, nil
}
func (m *memRepo) SaveFactDefinition(ctx context.Context, tenantID string, f *domain.FactDefinition) error {
	m.facts = append(m.facts, f)
	return nil
}
func (m *memRepo) ListFactDefinitions(ctx context.Context, tenantID string) ([]*domain.FactDefinition, error) {
	return m.facts, nil
}
func (m *memRepo) SaveFailureDefinition(ctx context.Context, tenantID string, f *domain.FailureDefinition) error {
	m.failures = append(m.failures, f)
	return nil
}
func (m *memRepo) ListFailureDefinitions(ctx context.Context, tenantID string) ([]*domain.FailureDefinition, error) {
	return m.failures, nil
}
func (m *memRepo) SaveProductTemplate(ctx context.Context, tenantID string, p *domain.ProductTemplate) error {
	m.products = append(m.products, p)
	return nil
}
func (m *memRepo) GetProductTemplate(ctx context.Context, tenantID, code string) (*domain.ProductTemplate, error) {
	return nil, nil
}
func (m *memRepo) ListProductTemplates(ctx context.Context, tenantID string) ([]*domain.ProductTemplate, error) {
	return m.products, nil
}
func (m *memRepo) Ping(ctx context.Context) error { return nil }
func (m *memRepo) Close() error                   { return nil }

func TestSnapshotFiltersAndSorts(t *testing.T) {
	rules := []*domain.Rule{
		{Code: "R3", Priority: 30, Enabled: true},
		{Code: "R1", Priority: 10, Enabled: true},
		{Code: "R_OFF", Priority: 5, Enabled: false},
		{Code: "R2", Priority: 20, Enabled: true},
	}
	products := []*domain.ProductTemplate{
		{Code: "P_ON", Active: true},
		{Code: "P_OFF", Active: false},
	}

	snap := NewSnapshot(rules, nil, nil, products)

	got := snap.Rules()
	if len(got) != 3 {
		t.Fatalf("disabled rules must be filtered, got %d rules", len(got))
	}
	for i, want := range []string{"R1", "R2", "R3"} {
		if got[i].Code != want {
			t.Errorf("rule %d: got %s, want %s", i, got[i].Code, want)
		}
	}

	if _, ok := snap.Product("P_OFF"); ok {
		t.Error("inactive products must not be resolvable")
	}
	if _, ok := snap.Product("P_ON"); !ok {
		t.Error("active product missing from snapshot")
	}
}

func TestSnapshotPriorityTieBreak(t *testing.T) {
	rules := []*domain.Rule{
		{Code: "A", Priority: 10, Enabled: true},
		{Code: "B", Priority: 10, Enabled: true},
	}
	snap := NewSnapshot(rules, nil, nil, nil)
	if snap.Rules()[0].Code != "A" || snap.Rules()[1].Code != "B" {
		t.Error("equal priorities must keep catalogue order")
	}
}

func TestSeedCatalogueIntegrity(t *testing.T) {
	rules := DefaultRules("t1")
	facts := DefaultFactDefinitions("t1")
	failures := DefaultFailureDefinitions("t1")
	products := DefaultProductTemplates("t1")

	knownFacts := make(map[string]bool, len(facts))
	for _, f := range facts {
		knownFacts[f.Code] = true
	}
	knownFailures := make(map[string]bool, len(failures))
	for _, f := range failures {
		knownFailures[f.Name] = true
	}
	knownProducts := make(map[string]bool, len(products))
	for _, p := range products {
		knownProducts[p.Code] = true
	}

	seenCodes := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seenCodes[r.Code] {
			t.Errorf("duplicate rule code %s", r.Code)
		}
		seenCodes[r.Code] = true

		if !r.Enabled {
			t.Errorf("seed rule %s must be enabled", r.Code)
		}
		if r.TenantID != "t1" {
			t.Errorf("seed rule %s has tenant %q", r.Code, r.TenantID)
		}
		for _, c := range r.Conditions {
			if !knownFacts[c.FactCode] {
				t.Errorf("rule %s references undefined fact %s", r.Code, c.FactCode)
			}
		}
		if r.FailureCode != "" && !knownFailures[r.FailureCode] {
			t.Errorf("rule %s references undefined failure %s", r.Code, r.FailureCode)
		}
		if r.Category == domain.CategoryProducto && !knownProducts[r.SuccessAction] {
			t.Errorf("product rule %s references undefined template %s", r.Code, r.SuccessAction)
		}
		if r.Category == domain.CategoryRiesgo && !strings.HasPrefix(r.SuccessAction, "RIESGO_") {
			t.Errorf("risk rule %s must assert a RIESGO_ profile, got %s", r.Code, r.SuccessAction)
		}
		if r.InvertLogic && r.Category != domain.CategoryAdmisibilidad && r.Category != domain.CategoryNormativa {
			t.Errorf("inverted rule %s outside admissibility/regulatory categories", r.Code)
		}
	}
}

func TestStoreSeedAndReload(t *testing.T) {
	repo := &memRepo{}
	store := NewStore(repo, nil)
	ctx := context.Background()

	if store.Snapshot() == nil || len(store.Snapshot().Rules()) != 0 {
		t.Fatal("fresh store must start with an empty snapshot")
	}

	if err := store.Seed(ctx, "t1"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	seeded := len(repo.rules)
	if seeded == 0 {
		t.Fatal("seed wrote no rules")
	}

	// Seeding again on a populated catalogue is a no-op.
	if err := store.Seed(ctx, "t1"); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if len(repo.rules) != seeded {
		t.Errorf("seed must not duplicate rules: %d -> %d", seeded, len(repo.rules))
	}

	if err := store.Reload(ctx, "t1"); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	snap := store.Snapshot()
	if len(snap.Rules()) != seeded {
		t.Errorf("snapshot has %d rules, repository has %d", len(snap.Rules()), seeded)
	}
	if len(snap.Products()) == 0 {
		t.Error("snapshot has no products after reload")
	}
	if _, ok := snap.Failure("FALLA_SCORE_INSUFICIENTE"); !ok {
		t.Error("failure catalogue missing after reload")
	}
}

func TestStoreReloadSwapsSnapshot(t *testing.T) {
	repo := &memRepo{}
	store := NewStore(repo, nil)
	ctx := context.Background()

	if err := store.Seed(ctx, "t1"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := store.Reload(ctx, "t1"); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	before := store.Snapshot()

	repo.rules = append(repo.rules, &domain.Rule{
		ID: "R999", TenantID: "t1", Code: "R999", Priority: 999, Enabled: true,
	})
	if err := store.Reload(ctx, "t1"); err != nil {
		t.Fatalf("second reload failed: %v", err)
	}
	after := store.Snapshot()

	if before == after {
		t.Fatal("reload must install a new snapshot")
	}
	if len(after.Rules()) != len(before.Rules())+1 {
		t.Errorf("new snapshot missing the added rule")
	}
	// The old snapshot is untouched for in-flight evaluations.
	for _, r := range before.Rules() {
		if r.Code == "R999" {
			t.Error("old snapshot must not see the new rule")
		}
	}
}

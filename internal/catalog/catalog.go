// Package catalog manages the rule/fact/failure/product catalogue as an
// immutable in-memory snapshot loaded from the repository.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Snapshot is an immutable view of the catalogue. Concurrent evaluations
// share one snapshot; catalogue updates build a new snapshot and swap it in,
// never mutate one in use.
type Snapshot struct {
	rules    []*domain.Rule
	facts    map[string]*domain.FactDefinition
	failures map[string]*domain.FailureDefinition
	products map[string]*domain.ProductTemplate

	factList    []*domain.FactDefinition
	failureList []*domain.FailureDefinition
	productList []*domain.ProductTemplate
}

// NewSnapshot builds a snapshot. Rules are stable-sorted by ascending
// priority; catalogue order breaks ties.
func NewSnapshot(
	rules []*domain.Rule,
	facts []*domain.FactDefinition,
	failures []*domain.FailureDefinition,
	products []*domain.ProductTemplate,
) *Snapshot {
	enabled := make([]*domain.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})

	s := &Snapshot{
		rules:       enabled,
		facts:       make(map[string]*domain.FactDefinition, len(facts)),
		failures:    make(map[string]*domain.FailureDefinition, len(failures)),
		products:    make(map[string]*domain.ProductTemplate, len(products)),
		factList:    facts,
		failureList: failures,
	}
	for _, f := range facts {
		s.facts[f.Code] = f
	}
	for _, f := range failures {
		s.failures[f.Name] = f
	}
	for _, p := range products {
		if p.Active {
			s.products[p.Code] = p
			s.productList = append(s.productList, p)
		}
	}
	return s
}

// Rules returns the enabled rules in execution order. Callers must not
// mutate the returned slice.
func (s *Snapshot) Rules() []*domain.Rule {
	return s.rules
}

// Fact returns a fact definition by code.
func (s *Snapshot) Fact(code string) (*domain.FactDefinition, bool) {
	f, ok := s.facts[code]
	return f, ok
}

// Facts returns all fact definitions.
func (s *Snapshot) Facts() []*domain.FactDefinition {
	return s.factList
}

// Failure returns a failure definition by name.
func (s *Snapshot) Failure(name string) (*domain.FailureDefinition, bool) {
	f, ok := s.failures[name]
	return f, ok
}

// Failures returns all failure definitions.
func (s *Snapshot) Failures() []*domain.FailureDefinition {
	return s.failureList
}

// Product returns an active product template by code.
func (s *Snapshot) Product(code string) (*domain.ProductTemplate, bool) {
	p, ok := s.products[code]
	return p, ok
}

// Products returns all active product templates.
func (s *Snapshot) Products() []*domain.ProductTemplate {
	return s.productList
}

// Store holds the active catalogue snapshot behind a read-write mutex and
// reloads it from the repository on demand.
type Store struct {
	mu     sync.RWMutex
	snap   *Snapshot
	repo   domain.Repository
	logger *slog.Logger
}

// NewStore creates a catalogue store with an empty snapshot.
func NewStore(repo domain.Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		snap:   NewSnapshot(nil, nil, nil, nil),
		repo:   repo,
		logger: logger,
	}
}

// Snapshot returns the active snapshot.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Reload reads the full catalogue from the repository, builds a new
// snapshot, and swaps it in. In-flight evaluations keep the snapshot they
// started with.
func (s *Store) Reload(ctx context.Context, tenantID string) error {
	rules, err := s.repo.ListRules(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	facts, err := s.repo.ListFactDefinitions(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load fact definitions: %w", err)
	}
	failures, err := s.repo.ListFailureDefinitions(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load failure definitions: %w", err)
	}
	products, err := s.repo.ListProductTemplates(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load product templates: %w", err)
	}

	snap := NewSnapshot(rules, facts, failures, products)

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("catalogue reloaded",
		"rules", len(snap.Rules()),
		"facts", len(facts),
		"failures", len(failures),
		"products", len(snap.Products()),
	)
	return nil
}

// Seed writes the default catalogue into the repository when it holds no
// rules for the tenant yet.
func (s *Store) Seed(ctx context.Context, tenantID string) error {
	existing, err := s.repo.ListRules(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to check existing rules: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, r := range DefaultRules(tenantID) {
		if err := s.repo.SaveRule(ctx, tenantID, r); err != nil {
			return fmt.Errorf("failed to seed rule %s: %w", r.Code, err)
		}
	}
	for _, f := range DefaultFactDefinitions(tenantID) {
		if err := s.repo.SaveFactDefinition(ctx, tenantID, f); err != nil {
			return fmt.Errorf("failed to seed fact %s: %w", f.Code, err)
		}
	}
	for _, f := range DefaultFailureDefinitions(tenantID) {
		if err := s.repo.SaveFailureDefinition(ctx, tenantID, f); err != nil {
			return fmt.Errorf("failed to seed failure %s: %w", f.Name, err)
		}
	}
	for _, p := range DefaultProductTemplates(tenantID) {
		if err := s.repo.SaveProductTemplate(ctx, tenantID, p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Code, err)
		}
	}

	s.logger.Info("default catalogue seeded", "tenant_id", tenantID)
	return nil
}

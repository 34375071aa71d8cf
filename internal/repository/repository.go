// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveSession upserts an evaluation session with tenant isolation. Sessions
// are written once in PENDING state and again in their terminal state.
func (r *SQLRepository) SaveSession(ctx context.Context, tenantID string, session *domain.EvaluationSession) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	input, _ := json.Marshal(session.Input)

	var result []byte
	var finalDecision string
	if session.Result != nil {
		result, _ = json.Marshal(session.Result)
		finalDecision = session.Result.FinalDecision
	}

	query := `
		INSERT INTO sessions (
			id, tenant_id, applicant_id, status, final_decision,
			input, result, error, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			final_decision = excluded.final_decision,
			result = excluded.result,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		session.ID, tenantID, session.ApplicantID,
		session.Status, finalDecision,
		string(input), string(result), session.Error,
		session.StartedAt, session.CompletedAt,
	)
	return err
}

// GetSession retrieves an evaluation session by ID with tenant isolation.
func (r *SQLRepository) GetSession(ctx context.Context, tenantID string, sessionID string) (*domain.EvaluationSession, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, applicant_id, status, input, result, error,
			   started_at, completed_at
		FROM sessions
		WHERE tenant_id = ? AND id = ?
	`

	row := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return session, err
}

// ListSessionsByApplicant retrieves an applicant's sessions since a cutoff,
// newest first.
func (r *SQLRepository) ListSessionsByApplicant(ctx context.Context, tenantID string, applicantID string, since time.Time) ([]*domain.EvaluationSession, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, applicant_id, status, input, result, error,
			   started_at, completed_at
		FROM sessions
		WHERE tenant_id = ? AND applicant_id = ? AND started_at >= ?
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, applicantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.EvaluationSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// CountSessionsByDecision aggregates completed sessions per final decision.
func (r *SQLRepository) CountSessionsByDecision(ctx context.Context, tenantID string) (map[string]int64, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT final_decision, COUNT(*)
		FROM sessions
		WHERE tenant_id = ? AND final_decision IS NOT NULL AND final_decision != ''
		GROUP BY final_decision
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var decision string
		var count int64
		if err := rows.Scan(&decision, &count); err != nil {
			return nil, err
		}
		counts[decision] = count
	}
	return counts, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(s scanner) (*domain.EvaluationSession, error) {
	var session domain.EvaluationSession
	var applicantID, input, result, errText sql.NullString
	var completedAt sql.NullTime

	if err := s.Scan(
		&session.ID, &session.TenantID, &applicantID,
		&session.Status, &input, &result, &errText,
		&session.StartedAt, &completedAt,
	); err != nil {
		return nil, err
	}

	session.ApplicantID = applicantID.String
	session.Error = errText.String
	if completedAt.Valid {
		session.CompletedAt = completedAt.Time
	}
	if input.String != "" {
		json.Unmarshal([]byte(input.String), &session.Input)
	}
	if result.String != "" {
		session.Result = &domain.EvaluationResult{}
		if err := json.Unmarshal([]byte(result.String), session.Result); err != nil {
			return nil, fmt.Errorf("failed to parse session result: %w", err)
		}
	}
	return &session, nil
}

// SaveRule upserts a rule with tenant isolation.
func (r *SQLRepository) SaveRule(ctx context.Context, tenantID string, rule *domain.Rule) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	conditions, _ := json.Marshal(rule.Conditions)
	now := time.Now().UTC()

	query := `
		INSERT INTO rules (
			code, tenant_id, name, description, category, priority,
			conditions, use_or_logic, invert_logic, failure_code,
			success_action, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code, tenant_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			priority = excluded.priority,
			conditions = excluded.conditions,
			use_or_logic = excluded.use_or_logic,
			invert_logic = excluded.invert_logic,
			failure_code = excluded.failure_code,
			success_action = excluded.success_action,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.Code, tenantID, rule.Name, rule.Description,
		rule.Category, rule.Priority, string(conditions),
		boolToInt(rule.UseOrLogic), boolToInt(rule.InvertLogic),
		rule.FailureCode, rule.SuccessAction, boolToInt(rule.Enabled),
		now, now,
	)
	return err
}

// GetRule retrieves a rule by code with tenant isolation.
func (r *SQLRepository) GetRule(ctx context.Context, tenantID string, code string) (*domain.Rule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT code, tenant_id, name, description, category, priority,
			   conditions, use_or_logic, invert_logic, failure_code,
			   success_action, enabled
		FROM rules
		WHERE tenant_id = ? AND code = ?
	`

	rule, err := scanRule(r.db.QueryRowContext(ctx, r.rebind(query), tenantID, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rule, err
}

// ListRules retrieves all rules for a tenant ordered by priority.
func (r *SQLRepository) ListRules(ctx context.Context, tenantID string) ([]*domain.Rule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT code, tenant_id, name, description, category, priority,
			   conditions, use_or_logic, invert_logic, failure_code,
			   success_action, enabled
		FROM rules
		WHERE tenant_id = ?
		ORDER BY priority, code
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanRule(s scanner) (*domain.Rule, error) {
	var rule domain.Rule
	var description, failureCode, successAction sql.NullString
	var conditions string
	var useOr, invert, enabled int

	if err := s.Scan(
		&rule.Code, &rule.TenantID, &rule.Name, &description,
		&rule.Category, &rule.Priority, &conditions,
		&useOr, &invert, &failureCode, &successAction, &enabled,
	); err != nil {
		return nil, err
	}

	rule.ID = rule.Code
	rule.Description = description.String
	rule.FailureCode = failureCode.String
	rule.SuccessAction = successAction.String
	rule.UseOrLogic = useOr == 1
	rule.InvertLogic = invert == 1
	rule.Enabled = enabled == 1
	if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to parse conditions for rule %s: %w", rule.Code, err)
	}
	return &rule, nil
}

// SaveFactDefinition upserts a fact definition with tenant isolation.
func (r *SQLRepository) SaveFactDefinition(ctx context.Context, tenantID string, fact *domain.FactDefinition) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO fact_definitions (code, tenant_id, description, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code, tenant_id) DO UPDATE SET
			description = excluded.description,
			category = excluded.category,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		fact.Code, tenantID, fact.Description, fact.Category, now, now,
	)
	return err
}

// ListFactDefinitions retrieves all fact definitions for a tenant.
func (r *SQLRepository) ListFactDefinitions(ctx context.Context, tenantID string) ([]*domain.FactDefinition, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT code, tenant_id, description, category
		FROM fact_definitions
		WHERE tenant_id = ?
		ORDER BY code
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []*domain.FactDefinition
	for rows.Next() {
		var fact domain.FactDefinition
		var description, category sql.NullString
		if err := rows.Scan(&fact.Code, &fact.TenantID, &description, &category); err != nil {
			return nil, err
		}
		fact.ID = fact.Code
		fact.Description = description.String
		fact.Category = category.String
		facts = append(facts, &fact)
	}
	return facts, rows.Err()
}

// SaveFailureDefinition upserts a failure definition with tenant isolation.
func (r *SQLRepository) SaveFailureDefinition(ctx context.Context, tenantID string, failure *domain.FailureDefinition) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO failure_definitions (code, tenant_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code, tenant_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		failure.Code, tenantID, failure.Name, failure.Description, now, now,
	)
	return err
}

// ListFailureDefinitions retrieves all failure definitions for a tenant.
func (r *SQLRepository) ListFailureDefinitions(ctx context.Context, tenantID string) ([]*domain.FailureDefinition, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT code, tenant_id, name, description
		FROM failure_definitions
		WHERE tenant_id = ?
		ORDER BY code
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []*domain.FailureDefinition
	for rows.Next() {
		var failure domain.FailureDefinition
		var description sql.NullString
		if err := rows.Scan(&failure.Code, &failure.TenantID, &failure.Name, &description); err != nil {
			return nil, err
		}
		failure.ID = failure.Code
		failure.Description = description.String
		failures = append(failures, &failure)
	}
	return failures, rows.Err()
}

// SaveProductTemplate upserts a product template with tenant isolation.
func (r *SQLRepository) SaveProductTemplate(ctx context.Context, tenantID string, product *domain.ProductTemplate) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	rates, _ := json.Marshal(product.InterestRates)
	conditions, _ := json.Marshal(product.SpecialConditions)
	now := time.Now().UTC()

	query := `
		INSERT INTO product_templates (
			code, tenant_id, name, description, income_multiplier,
			fixed_amount, max_amount, max_term_months, interest_rates,
			default_rate, base_confidence, special_conditions, active,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code, tenant_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			income_multiplier = excluded.income_multiplier,
			fixed_amount = excluded.fixed_amount,
			max_amount = excluded.max_amount,
			max_term_months = excluded.max_term_months,
			interest_rates = excluded.interest_rates,
			default_rate = excluded.default_rate,
			base_confidence = excluded.base_confidence,
			special_conditions = excluded.special_conditions,
			active = excluded.active,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		product.Code, tenantID, product.Name, product.Description,
		product.IncomeMultiplier, product.FixedAmount, product.MaxAmount,
		product.MaxTermMonths, string(rates), product.DefaultRate,
		product.BaseConfidence, string(conditions), boolToInt(product.Active),
		now, now,
	)
	return err
}

// GetProductTemplate retrieves a product template by code with tenant isolation.
func (r *SQLRepository) GetProductTemplate(ctx context.Context, tenantID string, code string) (*domain.ProductTemplate, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT code, tenant_id, name, description, income_multiplier,
			   fixed_amount, max_amount, max_term_months, interest_rates,
			   default_rate, base_confidence, special_conditions, active
		FROM product_templates
		WHERE tenant_id = ? AND code = ?
	`

	product, err := scanProduct(r.db.QueryRowContext(ctx, r.rebind(query), tenantID, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return product, err
}

// ListProductTemplates retrieves all product templates for a tenant.
func (r *SQLRepository) ListProductTemplates(ctx context.Context, tenantID string) ([]*domain.ProductTemplate, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT code, tenant_id, name, description, income_multiplier,
			   fixed_amount, max_amount, max_term_months, interest_rates,
			   default_rate, base_confidence, special_conditions, active
		FROM product_templates
		WHERE tenant_id = ?
		ORDER BY code
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.ProductTemplate
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanProduct(s scanner) (*domain.ProductTemplate, error) {
	var product domain.ProductTemplate
	var description, rates, conditions sql.NullString
	var active int

	if err := s.Scan(
		&product.Code, &product.TenantID, &product.Name, &description,
		&product.IncomeMultiplier, &product.FixedAmount, &product.MaxAmount,
		&product.MaxTermMonths, &rates, &product.DefaultRate,
		&product.BaseConfidence, &conditions, &active,
	); err != nil {
		return nil, err
	}

	product.ID = product.Code
	product.Description = description.String
	product.Active = active == 1
	if rates.String != "" {
		json.Unmarshal([]byte(rates.String), &product.InterestRates)
	}
	if conditions.String != "" {
		json.Unmarshal([]byte(conditions.String), &product.SpecialConditions)
	}
	return &product, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

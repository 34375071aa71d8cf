package repository

// Schema definitions for the Kestrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaSessions = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    applicant_id TEXT,
    status TEXT NOT NULL,
    final_decision TEXT,
    input TEXT NOT NULL,
    result TEXT,
    error TEXT,
    started_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sessions_tenant ON sessions(tenant_id);
CREATE INDEX IF NOT EXISTS idx_sessions_applicant ON sessions(tenant_id, applicant_id, started_at);
CREATE INDEX IF NOT EXISTS idx_sessions_decision ON sessions(tenant_id, final_decision);
`

const schemaRules = `
CREATE TABLE IF NOT EXISTS rules (
    code TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    category TEXT NOT NULL,
    priority INTEGER NOT NULL,
    conditions TEXT NOT NULL,
    use_or_logic INTEGER NOT NULL DEFAULT 0,
    invert_logic INTEGER NOT NULL DEFAULT 0,
    failure_code TEXT,
    success_action TEXT,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (code, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_rules_tenant ON rules(tenant_id);
CREATE INDEX IF NOT EXISTS idx_rules_enabled ON rules(tenant_id, enabled);
CREATE INDEX IF NOT EXISTS idx_rules_priority ON rules(tenant_id, priority);
`

const schemaFactDefinitions = `
CREATE TABLE IF NOT EXISTS fact_definitions (
    code TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    description TEXT,
    category TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (code, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_fact_definitions_tenant ON fact_definitions(tenant_id);
`

const schemaFailureDefinitions = `
CREATE TABLE IF NOT EXISTS failure_definitions (
    code TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (code, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_failure_definitions_tenant ON failure_definitions(tenant_id);
CREATE INDEX IF NOT EXISTS idx_failure_definitions_name ON failure_definitions(tenant_id, name);
`

const schemaProductTemplates = `
CREATE TABLE IF NOT EXISTS product_templates (
    code TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    income_multiplier REAL NOT NULL DEFAULT 0,
    fixed_amount REAL NOT NULL DEFAULT 0,
    max_amount REAL NOT NULL DEFAULT 0,
    max_term_months INTEGER NOT NULL DEFAULT 0,
    interest_rates TEXT,
    default_rate REAL NOT NULL DEFAULT 0,
    base_confidence REAL NOT NULL DEFAULT 0,
    special_conditions TEXT,
    active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (code, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_product_templates_tenant ON product_templates(tenant_id);
CREATE INDEX IF NOT EXISTS idx_product_templates_active ON product_templates(tenant_id, active);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaSessions,
		schemaRules,
		schemaFactDefinitions,
		schemaFailureDefinitions,
		schemaProductTemplates,
	}
}

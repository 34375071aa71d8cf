// Package domain defines the core interfaces and types for Kestrel.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Evaluation session operations
	SaveSession(ctx context.Context, tenantID string, session *EvaluationSession) error
	GetSession(ctx context.Context, tenantID string, sessionID string) (*EvaluationSession, error)
	ListSessionsByApplicant(ctx context.Context, tenantID string, applicantID string, since time.Time) ([]*EvaluationSession, error)
	CountSessionsByDecision(ctx context.Context, tenantID string) (map[string]int64, error)

	// Rule catalogue operations
	SaveRule(ctx context.Context, tenantID string, rule *Rule) error
	GetRule(ctx context.Context, tenantID string, code string) (*Rule, error)
	ListRules(ctx context.Context, tenantID string) ([]*Rule, error)

	// Fact catalogue operations
	SaveFactDefinition(ctx context.Context, tenantID string, fact *FactDefinition) error
	ListFactDefinitions(ctx context.Context, tenantID string) ([]*FactDefinition, error)

	// Failure catalogue operations
	SaveFailureDefinition(ctx context.Context, tenantID string, failure *FailureDefinition) error
	ListFailureDefinitions(ctx context.Context, tenantID string) ([]*FailureDefinition, error)

	// Product template operations
	SaveProductTemplate(ctx context.Context, tenantID string, product *ProductTemplate) error
	GetProductTemplate(ctx context.Context, tenantID string, code string) (*ProductTemplate, error)
	ListProductTemplates(ctx context.Context, tenantID string) ([]*ProductTemplate, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `json:"driver" yaml:"driver"`

	// SQLite specific
	SQLitePath string `json:"sqlitePath" yaml:"sqlitePath"`

	// PostgreSQL specific
	PostgresHost     string `json:"postgresHost" yaml:"postgresHost"`
	PostgresPort     int    `json:"postgresPort" yaml:"postgresPort"`
	PostgresUser     string `json:"postgresUser" yaml:"postgresUser"`
	PostgresPassword string `json:"postgresPassword" yaml:"postgresPassword"`
	PostgresDB       string `json:"postgresDb" yaml:"postgresDb"`
	PostgresSSLMode  string `json:"postgresSslMode" yaml:"postgresSslMode"`

	// Connection pool settings
	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
}

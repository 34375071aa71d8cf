package facts

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/opensource-finance/kestrel/internal/domain"
)

// FactExpression defines a custom derived fact as a CEL expression over the
// applicant input. Expressions let operators extend the fact vocabulary
// without code changes, e.g.
//
//	input.monthly_income >= 2600000.0 && input.credit_score >= 650.0
type FactExpression struct {
	FactCode   string `json:"factCode"`
	Expression string `json:"expression"`
	Enabled    bool   `json:"enabled"`
}

// ExprDeriver evaluates compiled fact expressions against applicant input
// and asserts the corresponding fact codes. Expressions are compiled once
// and hot-reloadable via snapshot swap.
type ExprDeriver struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled []compiledExpr
	logger   *slog.Logger
}

type compiledExpr struct {
	factCode string
	program  cel.Program
}

// NewExprDeriver creates an expression deriver.
func NewExprDeriver(logger *slog.Logger) (*ExprDeriver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &ExprDeriver{env: env, logger: logger}, nil
}

// Validate compiles an expression without loading it.
func (d *ExprDeriver) Validate(expr *FactExpression) error {
	if expr == nil {
		return fmt.Errorf("fact expression is required")
	}
	_, err := d.compile(expr)
	return err
}

// Load compiles expressions and swaps them in as the active set. Disabled
// entries are skipped; a compile error rejects the whole batch so a bad
// reload never clears working expressions.
func (d *ExprDeriver) Load(exprs []*FactExpression) error {
	next := make([]compiledExpr, 0, len(exprs))
	for _, expr := range exprs {
		if !expr.Enabled {
			continue
		}
		c, err := d.compile(expr)
		if err != nil {
			return err
		}
		next = append(next, c)
	}

	d.mu.Lock()
	d.compiled = next
	d.mu.Unlock()
	return nil
}

// Count returns the number of loaded expressions.
func (d *ExprDeriver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.compiled)
}

// Apply evaluates every loaded expression against the input and adds the
// fact codes whose expressions are true. Evaluation errors skip the
// expression; derivation stays best-effort.
func (d *ExprDeriver) Apply(input domain.ApplicantInput, set *Set) {
	d.mu.RLock()
	compiled := d.compiled
	d.mu.RUnlock()

	if len(compiled) == 0 {
		return
	}

	activation := map[string]any{
		"input": map[string]interface{}(input),
	}

	for _, c := range compiled {
		out, _, err := c.program.Eval(activation)
		if err != nil {
			d.logger.Warn("fact expression evaluation failed",
				"fact_code", c.factCode,
				"error", err,
			)
			continue
		}
		if b, ok := out.(types.Bool); ok && bool(b) {
			set.Add(c.factCode)
		}
	}
}

func (d *ExprDeriver) compile(expr *FactExpression) (compiledExpr, error) {
	if expr.FactCode == "" {
		return compiledExpr{}, fmt.Errorf("fact expression requires a fact code")
	}

	ast, issues := d.env.Compile(expr.Expression)
	if issues != nil && issues.Err() != nil {
		return compiledExpr{}, fmt.Errorf("failed to compile expression for %s: %w", expr.FactCode, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return compiledExpr{}, fmt.Errorf("expression for %s must return bool, got %s", expr.FactCode, ast.OutputType())
	}

	program, err := d.env.Program(ast)
	if err != nil {
		return compiledExpr{}, fmt.Errorf("failed to create program for %s: %w", expr.FactCode, err)
	}

	return compiledExpr{factCode: expr.FactCode, program: program}, nil
}

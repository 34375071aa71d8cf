// Package evaluation drives the applicant evaluation pipeline: fact
// derivation, forward chaining over the rule catalogue, and decision
// synthesis, with session persistence and event publication around it.
package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-finance/kestrel/internal/catalog"
	"github.com/opensource-finance/kestrel/internal/decision"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/facts"
	"github.com/opensource-finance/kestrel/internal/rules"
	"github.com/opensource-finance/kestrel/internal/velocity"
)

// EngineVersion is stamped into every evaluation's metadata.
const EngineVersion = "kestrel-1.0"

// sessionCacheTTL bounds how long completed sessions stay in the cache.
const sessionCacheTTL = 15 * time.Minute

var (
	// ErrEmptyInput is returned when an evaluation request carries no
	// applicant data.
	ErrEmptyInput = errors.New("applicant input is empty")

	// ErrSessionNotFound is returned when a session cannot be resolved
	// from the cache or the repository.
	ErrSessionNotFound = errors.New("session not found")
)

// Options holds the optional collaborators of the orchestrator. Repo,
// Cache, Bus, Expr, and Tracker may all be nil; the pipeline degrades to a
// pure in-memory evaluation.
type Options struct {
	Repo    domain.Repository
	Cache   domain.Cache
	Bus     domain.EventBus
	Expr    *facts.ExprDeriver
	Tracker *velocity.Tracker
	Logger  *slog.Logger
}

// Orchestrator runs evaluations against the active catalogue snapshot.
type Orchestrator struct {
	store   *catalog.Store
	deriver *facts.Deriver
	chainer *rules.Chainer
	synth   *decision.Synthesizer

	repo    domain.Repository
	cache   domain.Cache
	bus     domain.EventBus
	expr    *facts.ExprDeriver
	tracker *velocity.Tracker
	logger  *slog.Logger
}

// NewOrchestrator wires the pipeline around a catalogue store.
func NewOrchestrator(store *catalog.Store, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:   store,
		deriver: facts.NewDeriver(logger),
		chainer: rules.NewChainer(logger),
		synth:   decision.NewSynthesizer(),
		repo:    opts.Repo,
		cache:   opts.Cache,
		bus:     opts.Bus,
		expr:    opts.Expr,
		tracker: opts.Tracker,
		logger:  logger,
	}
}

// Evaluate runs the full pipeline for one applicant and returns the
// terminal session. The session is persisted in its PENDING state before
// the pipeline runs and in its terminal state after; a persistence error
// at either point marks the session FAILED and is returned to the caller,
// so a COMPLETED session is always backed by its audit trail.
func (o *Orchestrator) Evaluate(ctx context.Context, req *domain.EvaluationRequest) (*domain.EvaluationSession, error) {
	start := time.Now()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "eval_" + uuid.New().String()
	}

	session := &domain.EvaluationSession{
		ID:          sessionID,
		TenantID:    req.TenantID,
		ApplicantID: req.ApplicantID,
		Status:      domain.SessionPending,
		Input:       req.Input,
		StartedAt:   start.UTC(),
	}

	if len(req.Input) == 0 {
		return o.fail(ctx, session, ErrEmptyInput)
	}

	if err := o.saveSession(ctx, session); err != nil {
		return o.fail(ctx, session, err)
	}

	snap := o.store.Snapshot()

	deriveStart := time.Now()
	set := o.deriver.Derive(req.Input)
	if o.expr != nil {
		o.expr.Apply(req.Input, set)
	}
	if o.tracker != nil {
		count, err := o.tracker.Record(ctx, req.TenantID, req.ApplicantID)
		if err != nil {
			o.logger.Warn("inquiry tracking failed",
				"session_id", sessionID,
				"error", err,
			)
		} else {
			o.tracker.Annotate(req.TenantID, req.ApplicantID, count, set)
		}
	}
	deriveMs := time.Since(deriveStart).Milliseconds()

	chainStart := time.Now()
	chain := o.chainer.Run(set, snap.Rules())
	chainMs := time.Since(chainStart).Milliseconds()

	decisionStart := time.Now()
	result := o.synth.Synthesize(chain, req.Input, snap)
	decisionMs := time.Since(decisionStart).Milliseconds()

	result.Metadata = domain.EvaluationMetadata{
		TraceID:        traceIDFrom(ctx),
		DeriveMs:       deriveMs,
		ChainMs:        chainMs,
		DecisionMs:     decisionMs,
		TotalMs:        time.Since(start).Milliseconds(),
		RulesEvaluated: len(chain.RuleExecutions),
		EngineVersion:  EngineVersion,
	}

	session.Status = domain.SessionCompleted
	session.Result = result
	session.CompletedAt = time.Now().UTC()

	if err := o.saveSession(ctx, session); err != nil {
		return o.fail(ctx, session, err)
	}
	o.cacheSession(ctx, session)
	o.publishResult(ctx, session)

	o.logger.Info("evaluation completed",
		"session_id", sessionID,
		"tenant_id", req.TenantID,
		"decision", result.FinalDecision,
		"risk_profile", result.RiskProfile,
		"failures", len(result.FailuresDetected),
		"duration_ms", result.Metadata.TotalMs,
	)

	return session, nil
}

// GetSession returns a session by ID, checking the cache before the
// repository.
func (o *Orchestrator) GetSession(ctx context.Context, tenantID, sessionID string) (*domain.EvaluationSession, error) {
	if o.cache != nil {
		if session, err := o.cache.GetSession(ctx, tenantID, sessionID); err == nil && session != nil {
			return session, nil
		}
	}
	if o.repo == nil {
		return nil, ErrSessionNotFound
	}
	return o.repo.GetSession(ctx, tenantID, sessionID)
}

// fail marks the session FAILED, persists it, publishes the failure, and
// returns the original error. Persisting the FAILED state is best effort;
// the original error is what reaches the caller.
func (o *Orchestrator) fail(ctx context.Context, session *domain.EvaluationSession, err error) (*domain.EvaluationSession, error) {
	session.Status = domain.SessionFailed
	session.Error = err.Error()
	session.CompletedAt = time.Now().UTC()

	_ = o.saveSession(ctx, session)

	if o.bus != nil {
		payload, _ := json.Marshal(domain.EvaluationFailedEvent{
			SessionID: session.ID,
			TenantID:  session.TenantID,
			Error:     session.Error,
		})
		if pubErr := o.bus.Publish(ctx, session.TenantID, domain.TopicEvaluationFailed, payload); pubErr != nil {
			o.logger.Error("failed to publish evaluation failure",
				"session_id", session.ID,
				"error", pubErr,
			)
		}
	}

	o.logger.Error("evaluation failed",
		"session_id", session.ID,
		"tenant_id", session.TenantID,
		"error", err,
	)
	return session, err
}

func (o *Orchestrator) saveSession(ctx context.Context, session *domain.EvaluationSession) error {
	if o.repo == nil {
		return nil
	}
	if err := o.repo.SaveSession(ctx, session.TenantID, session); err != nil {
		o.logger.Error("failed to save session",
			"session_id", session.ID,
			"status", session.Status,
			"error", err,
		)
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

func (o *Orchestrator) cacheSession(ctx context.Context, session *domain.EvaluationSession) {
	if o.cache == nil {
		return
	}
	if err := o.cache.SetSession(ctx, session.TenantID, session, sessionCacheTTL); err != nil {
		o.logger.Warn("failed to cache session",
			"session_id", session.ID,
			"error", err,
		)
	}
}

// publishResult emits the completion event, plus a manual-review event for
// decisions an analyst has to pick up.
func (o *Orchestrator) publishResult(ctx context.Context, session *domain.EvaluationSession) {
	if o.bus == nil {
		return
	}

	payload, err := json.Marshal(session.ToResponse())
	if err != nil {
		o.logger.Error("failed to marshal evaluation result", "session_id", session.ID, "error", err)
		return
	}

	if err := o.bus.Publish(ctx, session.TenantID, domain.TopicEvaluationCompleted, payload); err != nil {
		o.logger.Error("failed to publish evaluation result",
			"session_id", session.ID,
			"error", err,
		)
	}

	if session.Result != nil && session.Result.FinalDecision == domain.DecisionPending {
		if err := o.bus.Publish(ctx, session.TenantID, domain.TopicManualReview, payload); err != nil {
			o.logger.Error("failed to publish manual review event",
				"session_id", session.ID,
				"error", err,
			)
		}
	}
}

func traceIDFrom(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

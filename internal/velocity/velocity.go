// Package velocity tracks how often an applicant is evaluated inside a
// rolling window. Bureau data normally carries the inquiry count; when the
// request omits it, the tracker derives it from our own evaluation history.
package velocity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/facts"
)

// counterKeyPrefix namespaces inquiry counters in the cache.
const counterKeyPrefix = "inquiries:"

// Repository is the slice of the persistence layer the tracker needs.
type Repository interface {
	ListSessionsByApplicant(ctx context.Context, tenantID, applicantID string, since time.Time) ([]*domain.EvaluationSession, error)
}

// Counter is the slice of the cache the tracker needs.
type Counter interface {
	IncrementCounter(ctx context.Context, tenantID string, key string, window time.Duration) (int64, error)
}

// Tracker counts evaluation requests per applicant. The cache counter is
// preferred; the repository is the fallback when no cache is configured.
type Tracker struct {
	repo      Repository
	counter   Counter
	window    time.Duration
	threshold int64
	logger    *slog.Logger
}

// NewTracker creates an inquiry tracker. windowDays and threshold come from
// the engine configuration.
func NewTracker(repo Repository, counter Counter, windowDays, threshold int, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		repo:      repo,
		counter:   counter,
		window:    time.Duration(windowDays) * 24 * time.Hour,
		threshold: int64(threshold),
		logger:    logger,
	}
}

// Record registers one evaluation request for the applicant and returns the
// count inside the window, including this one.
func (t *Tracker) Record(ctx context.Context, tenantID, applicantID string) (int64, error) {
	if applicantID == "" {
		return 0, nil
	}

	if t.counter != nil {
		count, err := t.counter.IncrementCounter(ctx, tenantID, counterKeyPrefix+applicantID, t.window)
		if err != nil {
			return 0, fmt.Errorf("failed to increment inquiry counter: %w", err)
		}
		return count, nil
	}

	if t.repo != nil {
		since := time.Now().Add(-t.window)
		sessions, err := t.repo.ListSessionsByApplicant(ctx, tenantID, applicantID, since)
		if err != nil {
			return 0, fmt.Errorf("failed to count applicant sessions: %w", err)
		}
		return int64(len(sessions)) + 1, nil
	}

	return 0, nil
}

// Annotate injects the inquiry facts from the evaluation history count.
// Facts already derived from bureau data take precedence and are never
// overridden.
func (t *Tracker) Annotate(tenantID, applicantID string, count int64, set *facts.Set) {
	if set.Has(facts.FactInquiriesLow) || set.Has(facts.FactInquiriesHigh) {
		return
	}
	if applicantID == "" || count <= 0 {
		return
	}

	if count <= t.threshold {
		set.Add(facts.FactInquiriesLow)
	} else {
		set.Add(facts.FactInquiriesHigh)
		t.logger.Warn("inquiry velocity exceeded",
			"tenant_id", tenantID,
			"applicant_id", applicantID,
			"count", count,
			"threshold", t.threshold,
		)
	}
}

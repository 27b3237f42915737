package decision

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/linnemanlabs/assay/internal/registry"
)

var tracer = otel.Tracer("github.com/linnemanlabs/assay/internal/decision")

// maxBatchWorkers bounds concurrent per-identifier evaluations. The
// work is in-memory map lookups, so a small pool is plenty.
const maxBatchWorkers = 8

// Process evaluates every identifier independently and aggregates a
// summary. Identifiers have no ordering dependency, so evaluation runs
// concurrently; result order matches input order. A failure on one
// identifier degrades only that identifier, never the batch.
func (e *Engine) Process(ctx context.Context, snap *registry.Snapshot, requestID string, identifiers []string) *BatchResult {
	ctx, span := tracer.Start(ctx, "decision.batch", trace.WithAttributes(
		attribute.String("assay.request.id", requestID),
		attribute.Int("assay.batch.size", len(identifiers)),
		attribute.Int64("assay.registry.generation", int64(snap.Generation)),
	))
	defer span.End()

	start := time.Now()

	results := make([]Result, len(identifiers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchWorkers)
	for i, id := range identifiers {
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					e.logger.Error(gctx, fmt.Errorf("panic: %v", p), "evaluation panicked, degrading to cannot-confirm")
					e.hooks.onEvaluationError("panic")
					results[i] = Result{
						Identifier: id,
						Status:     StatusCannotConfirm,
						Reasons:    []Reason{},
						Error:      "internal evaluation failure",
					}
				}
			}()
			results[i] = e.Evaluate(gctx, snap, id)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; degradation is per-result

	summary := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusEligible:
			summary.EligibleCount++
		case StatusNotEligible:
			summary.NotEligibleCount++
		case StatusCannotConfirm:
			summary.CannotConfirmCount++
		}
		summary.TotalReasonsExtracted += len(r.Reasons)
	}
	summary.ProcessingLatency = time.Since(start).Seconds()

	span.SetAttributes(
		attribute.Int("assay.batch.eligible", summary.EligibleCount),
		attribute.Int("assay.batch.not_eligible", summary.NotEligibleCount),
		attribute.Int("assay.batch.cannot_confirm", summary.CannotConfirmCount),
		attribute.Int("assay.batch.reasons", summary.TotalReasonsExtracted),
	)

	e.hooks.onBatch(len(results), summary.ProcessingLatency)

	return &BatchResult{
		RequestID:      requestID,
		BatchTimestamp: time.Now().UTC(),
		Accounts:       results,
		Summary:        summary,
	}
}

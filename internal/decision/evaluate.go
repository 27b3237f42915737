package decision

import (
	"context"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/assay/internal/registry"
)

// Engine is the pure per-identifier evaluator. It holds no mutable
// state; every call takes the snapshot to evaluate against.
type Engine struct {
	logger log.Logger
	hooks  EngineHooks
}

// NewEngine creates an evaluation engine. A nil logger falls back to Nop.
func NewEngine(logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{logger: logger, hooks: hooks}
}

// Evaluate runs the three-terminal-state machine for one identifier:
// eligible-set hit, evaluation-set hit with extraction+enrichment, or
// cannot-confirm. No retries; errors degrade to CANNOT_CONFIRM.
//
// The eligible set is checked first. An identifier present in both
// sets therefore resolves ELIGIBLE; the overlap itself is reported at
// load time as a data quality signal, not here.
func (e *Engine) Evaluate(ctx context.Context, snap *registry.Snapshot, identifier string) Result {
	if entry, ok := snap.LookupEligible(identifier); ok {
		r := Result{
			Identifier:  identifier,
			Status:      StatusEligible,
			DisplayName: entry.DisplayName,
			Reasons:     []Reason{},
		}
		e.hooks.onDecision(r.Status, 0)
		return r
	}

	row, ok := snap.LookupAccount(identifier)
	if !ok {
		r := Result{Identifier: identifier, Status: StatusCannotConfirm, Reasons: []Reason{}}
		e.hooks.onDecision(r.Status, 0)
		return r
	}

	rec := Normalize(row, snap.Catalog)
	extracted, err := Extract(rec, snap.Catalog)
	if err != nil {
		// Per-identifier degradation; never a technical message to the
		// user, never the raw identifier in the log.
		e.logger.Error(ctx, err, "extraction failed, degrading to cannot-confirm")
		e.hooks.onEvaluationError("extract")
		r := Result{
			Identifier: identifier,
			Status:     StatusCannotConfirm,
			Reasons:    []Reason{},
			Error:      err.Error(),
		}
		e.hooks.onDecision(r.Status, 0)
		return r
	}

	reasons := make([]Reason, 0, len(extracted))
	for _, raw := range extracted {
		reasons = append(reasons, enrich(ctx, e.logger, raw, snap.Catalog))
	}

	r := Result{
		Identifier: identifier,
		Status:     StatusNotEligible,
		Reasons:    reasons,
	}
	e.hooks.onDecision(r.Status, len(reasons))
	return r
}

package decision

import (
	"context"
	"errors"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/assay/internal/clarify"
	"github.com/linnemanlabs/assay/internal/registry"
)

// ErrNotLoaded is returned before the first successful registry load.
var ErrNotLoaded = errors.New("decision: registry not loaded")

// RequestContext carries conversation state from upstream.
type RequestContext struct {
	HasPriorIdentifierReference bool `json:"has_prior_identifier_reference"`
}

// Request is one decision request as delivered by upstream
// collaborators: intent already classified, identifiers already
// extracted and validated.
type Request struct {
	RequestID         string               `json:"request_id,omitempty"`
	ConversationID    string               `json:"conversation_id"`
	EligibilityIntent bool                 `json:"eligibility_intent"`
	Message           string               `json:"message,omitempty"`
	Identifiers       []clarify.Identifier `json:"identifiers"`
	Context           RequestContext       `json:"context"`
}

// Outcome is the engine's answer: exactly one of Clarification or
// Batch is set.
type Outcome struct {
	RequestID     string
	Clarification *clarify.Selection
	Batch         *BatchResult
}

// Service is the business boundary for decision requests: it asks the
// clarification detector first and only evaluates when the detector
// yields none.
type Service struct {
	holder   *registry.Holder
	engine   *Engine
	detector *clarify.Detector
	logger   log.Logger
	hooks    EngineHooks
}

// NewService creates a decision service.
func NewService(holder *registry.Holder, engine *Engine, detector *clarify.Detector, logger log.Logger, hooks EngineHooks) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		holder:   holder,
		engine:   engine,
		detector: detector,
		logger:   logger,
		hooks:    hooks,
	}
}

// Decide runs one request end to end. The request id doubles as the
// correlation id on every log line; identifier values never appear in
// logs, only their count.
func (s *Service) Decide(ctx context.Context, req *Request) (*Outcome, error) {
	snap := s.holder.Active()
	if snap == nil {
		return nil, ErrNotLoaded
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = ulid.Make().String()
	}

	L := s.logger.With("request_id", requestID)
	L.Info(ctx, "decision request",
		"intent", req.EligibilityIntent,
		"identifier_count", len(req.Identifiers),
		"prior_reference", req.Context.HasPriorIdentifierReference,
		"snapshot_generation", snap.Generation,
	)

	det := s.detector.Detect(ctx, clarify.Input{
		EligibilityIntent:           req.EligibilityIntent,
		Identifiers:                 req.Identifiers,
		HasPriorIdentifierReference: req.Context.HasPriorIdentifierReference,
		Message:                     req.Message,
	})

	if !det.None() {
		sel, err := clarify.Select(req.ConversationID, det)
		if err != nil {
			return nil, err
		}
		s.hooks.onClarification(sel.PatternID)
		L.Info(ctx, "clarification selected",
			"pattern", sel.PatternID,
			"variant", sel.VariantIndex,
			"severity", string(sel.Severity),
		)
		return &Outcome{RequestID: requestID, Clarification: &sel}, nil
	}

	identifiers := make([]string, 0, len(req.Identifiers))
	for _, id := range req.Identifiers {
		identifiers = append(identifiers, id.Value)
	}

	batch := s.engine.Process(ctx, snap, requestID, identifiers)
	L.Info(ctx, "batch complete",
		"total", batch.Summary.Total,
		"eligible", batch.Summary.EligibleCount,
		"not_eligible", batch.Summary.NotEligibleCount,
		"cannot_confirm", batch.Summary.CannotConfirmCount,
		"reasons", batch.Summary.TotalReasonsExtracted,
		"latency_seconds", batch.Summary.ProcessingLatency,
	)
	return &Outcome{RequestID: requestID, Batch: batch}, nil
}

package decideapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/assay/internal/clarify"
	"github.com/linnemanlabs/assay/internal/decision"
)

// decideResponse carries exactly one of the two payloads.
type decideResponse struct {
	RequestID     string                `json:"request_id"`
	Clarification *clarify.Selection    `json:"clarification,omitempty"`
	Batch         *decision.BatchResult `json:"batch,omitempty"`
}

func (a *API) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decision.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}
	// Reject unknown validation outcomes here so the detector's input
	// domain stays closed.
	for _, id := range req.Identifiers {
		if !id.Validation.Known() {
			writeError(w, http.StatusBadRequest, "unknown identifier validation outcome")
			return
		}
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.Bool("assay.request.intent", req.EligibilityIntent),
		attribute.Int("assay.request.identifiers", len(req.Identifiers)),
	)

	outcome, err := a.svc.Decide(r.Context(), &req)
	if err != nil {
		if errors.Is(err, decision.ErrNotLoaded) {
			writeError(w, http.StatusServiceUnavailable, "registry not loaded")
			return
		}
		a.logger.Error(r.Context(), err, "decision failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := decideResponse{
		RequestID:     outcome.RequestID,
		Clarification: outcome.Clarification,
		Batch:         outcome.Batch,
	}
	if outcome.Clarification != nil {
		span.SetAttributes(attribute.String("assay.clarification.pattern", outcome.Clarification.PatternID))
	}

	writeJSON(w, http.StatusOK, resp)
}

package decision

import (
	"time"

	"github.com/linnemanlabs/assay/internal/registry"
)

// Status is the terminal outcome of one identifier's evaluation.
type Status string

const (
	// StatusEligible means the identifier is in the eligible set.
	StatusEligible Status = "ELIGIBLE"

	// StatusNotEligible means the identifier is in the evaluation set;
	// its extracted reasons say why.
	StatusNotEligible Status = "NOT_ELIGIBLE"

	// StatusCannotConfirm means the identifier is in neither set, or
	// its evaluation degraded on an error.
	StatusCannotConfirm Status = "CANNOT_CONFIRM"
)

// TriggeredBy records which column value fired a reason.
type TriggeredBy struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Reason is one extracted, playbook-enriched exclusion reason.
// Enrichment fields are zero when the playbook has no entry for the
// reason code; Enriched distinguishes that from empty content.
type Reason struct {
	ReasonCode  string            `json:"reason_code"`
	TriggeredBy TriggeredBy       `json:"triggered_by"`
	Evidence    map[string]string `json:"evidence,omitempty"`
	Facts       []string          `json:"facts,omitempty"`

	Enriched              bool                `json:"enriched"`
	Meaning               string              `json:"meaning,omitempty"`
	NextSteps             []registry.NextStep `json:"next_steps,omitempty"`
	ReviewType            string              `json:"review_type,omitempty"`
	ReviewTiming          string              `json:"review_timing,omitempty"`
	ManualOverrideAllowed bool                `json:"manual_override_allowed,omitempty"`
	Constraints           []string            `json:"constraints,omitempty"`
}

// Result is the terminal decision for one identifier.
type Result struct {
	Identifier  string   `json:"identifier"`
	Status      Status   `json:"status"`
	DisplayName string   `json:"display_name,omitempty"`
	Reasons     []Reason `json:"reasons"`

	// Error carries the degradation annotation when an evaluation
	// error forced CANNOT_CONFIRM. Never user-facing prose.
	Error string `json:"error,omitempty"`
}

// Summary aggregates one batch.
type Summary struct {
	Total                 int     `json:"total"`
	EligibleCount         int     `json:"eligible_count"`
	NotEligibleCount      int     `json:"not_eligible_count"`
	CannotConfirmCount    int     `json:"cannot_confirm_count"`
	TotalReasonsExtracted int     `json:"total_reasons_extracted"`
	ProcessingLatency     float64 `json:"processing_latency_seconds"`
}

// BatchResult is the aggregated outcome of one decision request.
type BatchResult struct {
	RequestID      string    `json:"request_id"`
	BatchTimestamp time.Time `json:"batch_timestamp"`
	Accounts       []Result  `json:"accounts"`
	Summary        Summary   `json:"summary"`
}

// AccountRecord is the normalized view of one evaluation-set row:
// every check and evidence value has had blank/null handling applied,
// so rules never observe a null.
type AccountRecord struct {
	Identifier string
	Checks     map[string]string
	Evidence   map[string]string
}

package clarify

import (
	"context"
	"strings"

	"github.com/linnemanlabs/go-core/log"
)

// Validation is the upstream per-identifier validation outcome.
type Validation string

const (
	ValidationFound         Validation = "found"
	ValidationNotFound      Validation = "not_found"
	ValidationInvalidFormat Validation = "invalid_format"
)

// Known reports whether v is one of the three upstream outcomes.
func (v Validation) Known() bool {
	switch v {
	case ValidationFound, ValidationNotFound, ValidationInvalidFormat:
		return true
	}
	return false
}

// Identifier is one extracted account identifier with its validation
// outcome, as delivered by the upstream extraction collaborator.
type Identifier struct {
	Value      string     `json:"value"`
	Validation Validation `json:"validation"`
}

// Severity classifies a detection for downstream handling.
type Severity string

const (
	// SeverityRequiredInput is the normal case: the user must supply
	// something before evaluation can run.
	SeverityRequiredInput Severity = "REQUIRED_INPUT"

	// SeverityError marks a fallback branch that should never fire.
	SeverityError Severity = "ERROR"
)

// Input is everything the detector considers. Message is used only for
// keyword classification and is never persisted.
type Input struct {
	EligibilityIntent           bool
	Identifiers                 []Identifier
	HasPriorIdentifierReference bool
	Message                     string
}

// Detection is the detector's verdict: either a pattern id with its
// context, or none (PatternID empty) meaning evaluation may proceed.
type Detection struct {
	PatternID    string   `json:"pattern_id,omitempty"`
	Reason       string   `json:"reason"`
	MissingField string   `json:"missing_field,omitempty"`
	Severity     Severity `json:"severity,omitempty"`
}

// None reports whether no clarification is needed.
func (d Detection) None() bool { return d.PatternID == "" }

// Keyword classes for the single-identifier branch. Matching is
// case-insensitive substring over the message text.
var (
	reasonKeywords = []string{"why", "reason", "excluded", "exclusion", "declined"}
	limitKeywords  = []string{"limit", "how much", "maximum", "cap"}
)

// Detector chooses a clarification pattern, or none, for a request.
type Detector struct {
	logger log.Logger
}

// NewDetector creates a detector. A nil logger falls back to Nop.
func NewDetector(logger log.Logger) *Detector {
	if logger == nil {
		logger = log.Nop()
	}
	return &Detector{logger: logger}
}

// Detect walks the priority-ordered decision tree. It is total: every
// input yields exactly one Detection, first match wins.
func (d *Detector) Detect(ctx context.Context, in Input) Detection {
	// R1: no eligibility intent, nothing to clarify.
	if !in.EligibilityIntent {
		return Detection{Reason: "no eligibility intent"}
	}

	// R2: more than one identifier, ask which to check.
	if len(in.Identifiers) > 1 {
		return Detection{
			PatternID:    PatternMultipleAccounts,
			Reason:       "multiple identifiers in one request",
			MissingField: "account_selection",
			Severity:     SeverityRequiredInput,
		}
	}

	// R3: no identifier at all.
	if len(in.Identifiers) == 0 {
		if in.HasPriorIdentifierReference {
			return Detection{
				PatternID:    PatternContextMissing,
				Reason:       "prior identifier referenced but none given now",
				MissingField: "explicit_account_number",
				Severity:     SeverityRequiredInput,
			}
		}
		return Detection{
			PatternID:    PatternAccountRequired,
			Reason:       "no identifier extracted",
			MissingField: "account_number",
			Severity:     SeverityRequiredInput,
		}
	}

	// R4: exactly one identifier.
	id := in.Identifiers[0]
	switch id.Validation {
	case ValidationFound:
		return Detection{Reason: "identifier usable, evaluation proceeds"}
	case ValidationNotFound, ValidationInvalidFormat:
		if matchesAny(in.Message, reasonKeywords) {
			return Detection{
				PatternID:    PatternReasonLookup,
				Reason:       "reason question against unusable identifier",
				MissingField: "valid_account_number",
				Severity:     SeverityRequiredInput,
			}
		}
		if matchesAny(in.Message, limitKeywords) {
			return Detection{
				PatternID:    PatternLimitCheck,
				Reason:       "limit question against unusable identifier",
				MissingField: "valid_account_number",
				Severity:     SeverityRequiredInput,
			}
		}
		return Detection{
			PatternID:    PatternAccountRequired,
			Reason:       "unusable identifier",
			MissingField: "valid_account_number",
			Severity:     SeverityRequiredInput,
		}
	}

	// Unreachable when the API boundary validates outcomes; if it ever
	// fires, fall back to asking for an account and flag it loudly.
	d.logger.Error(ctx, nil, "clarification tree gap",
		"validation", string(id.Validation),
		"identifier_count", len(in.Identifiers),
	)
	return Detection{
		PatternID:    PatternAccountRequired,
		Reason:       "unrecognized validation outcome",
		MissingField: "valid_account_number",
		Severity:     SeverityError,
	}
}

func matchesAny(message string, keywords []string) bool {
	m := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(m, kw) {
			return true
		}
	}
	return false
}

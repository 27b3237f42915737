package clarify

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Selection is the fully resolved clarification response.
type Selection struct {
	PatternID    string   `json:"pattern_id"`
	SelectedText string   `json:"selected_text"`
	VariantIndex int      `json:"variant_index"`
	MissingField string   `json:"missing_field,omitempty"`
	Severity     Severity `json:"severity"`
	NextStepText string   `json:"next_step_text,omitempty"`
	AuditLabel   string   `json:"audit_label,omitempty"`
}

// Select resolves a detection into concrete response text. The variant
// is chosen by xxhash over the UTF-8 bytes of conversationID++patternID,
// so the same conversation always sees the same wording across
// restarts and deployments. Variant 0 is the default text.
func Select(conversationID string, det Detection) (Selection, error) {
	p, ok := Lookup(det.PatternID)
	if !ok {
		return Selection{}, fmt.Errorf("clarify: unknown pattern %q", det.PatternID)
	}

	idx := VariantIndex(conversationID, p.ID, len(p.Alternates))
	text := p.DefaultText
	if idx > 0 {
		text = p.Alternates[idx-1]
	}

	return Selection{
		PatternID:    p.ID,
		SelectedText: text,
		VariantIndex: idx,
		MissingField: det.MissingField,
		Severity:     det.Severity,
		NextStepText: p.NextStepText,
		AuditLabel:   p.AuditLabel,
	}, nil
}

// VariantIndex returns a stable index in [0, alternates]. xxhash is
// seedless and version-stable, which keeps the pick reproducible; the
// language's builtin map hash is randomized per process and must not
// be used here.
func VariantIndex(conversationID, patternID string, alternates int) int {
	sum := xxhash.Sum64String(conversationID + patternID)
	return int(sum % uint64(1+alternates))
}

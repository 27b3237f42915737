package decision

import (
	"fmt"

	"github.com/linnemanlabs/assay/internal/registry"
)

// EvaluationError is a recoverable per-identifier failure: the
// identifier degrades to CANNOT_CONFIRM, the batch proceeds.
type EvaluationError struct {
	Stage string // "extract" or "enrich"
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation: %s: %v", e.Stage, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Extract evaluates detection rules against a normalized record. It
// walks the catalog in column order, so reason order is deterministic.
// Reasons are never deduplicated and extraction never short-circuits:
// an account carries one reason per triggering condition, zero to many.
func Extract(rec AccountRecord, cat *registry.Catalog) ([]Reason, error) {
	var reasons []Reason

	recency := cat.RecencyColumn()

	for _, col := range cat.Columns {
		if col.Role != registry.RoleCheck || col.Name == recency {
			continue
		}
		if rec.Checks[col.Name] != registry.TriggerExclude {
			continue
		}

		rule, ok := cat.Rule(col.Name)
		if !ok {
			// A rule gap surviving to runtime means the catalog's
			// expected values were wrong; the account cannot be
			// explained, so it must not be silently skipped.
			return nil, &EvaluationError{
				Stage: "extract",
				Err:   fmt.Errorf("check column %q is Exclude but has no detection rule", col.Name),
			}
		}

		evidence := make(map[string]string, len(rule.EvidenceColumns))
		for _, ev := range rule.EvidenceColumns {
			if v, ok := rec.Evidence[ev]; ok {
				evidence[ev] = v
			} else {
				evidence[ev] = rec.Checks[ev]
			}
		}

		reasons = append(reasons, Reason{
			ReasonCode:  rule.ReasonCode,
			TriggeredBy: TriggeredBy{Column: col.Name, Value: registry.TriggerExclude},
			Evidence:    evidence,
			Facts:       registry.RenderFacts(rule.Facts, evidence),
		})
	}

	// The recency override fires unconditionally and independently of
	// the rules above.
	if recency != "" && rec.Checks[recency] == registry.RecencyNo {
		evidence := map[string]string{recency: registry.RecencyNo}
		var facts []string
		if rule, ok := cat.Rule(recency); ok {
			facts = registry.RenderFacts(rule.Facts, evidence)
		}
		reasons = append(reasons, Reason{
			ReasonCode:  registry.ReasonRecency,
			TriggeredBy: TriggeredBy{Column: recency, Value: registry.RecencyNo},
			Evidence:    evidence,
			Facts:       facts,
		})
	}

	return reasons, nil
}

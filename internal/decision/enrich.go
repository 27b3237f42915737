package decision

import (
	"context"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/assay/internal/registry"
)

// enrich attaches playbook content to an extracted reason. A missing
// playbook entry never aborts the account: the reason is returned
// unenriched and the gap is logged for remediation.
func enrich(ctx context.Context, logger log.Logger, r Reason, cat *registry.Catalog) Reason {
	entry, ok := cat.Playbook(r.ReasonCode)
	if !ok {
		logger.Warn(ctx, "no playbook entry for reason",
			"reason_code", r.ReasonCode,
			"triggered_by", r.TriggeredBy.Column,
		)
		return r
	}

	r.Enriched = true
	r.Meaning = entry.Meaning
	r.NextSteps = entry.NextSteps
	r.ReviewType = entry.ReviewType
	r.ReviewTiming = entry.ReviewTiming
	r.ManualOverrideAllowed = entry.ManualOverrideAllowed
	r.Constraints = entry.Constraints
	return r
}

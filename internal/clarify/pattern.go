// Package clarify decides whether a request can be evaluated at all,
// and when it cannot, picks the pre-approved clarification to send
// back instead of a verdict.
package clarify

// Pattern ids. These are stable API values; changing one breaks audit
// trails and the selector's variant assignment.
const (
	PatternAccountRequired  = "CLARIFY_ACCOUNT_REQUIRED"
	PatternMultipleAccounts = "CLARIFY_MULTIPLE_ACCOUNTS"
	PatternContextMissing   = "CLARIFY_CONTEXT_MISSING"
	PatternReasonLookup     = "CLARIFY_REASON_LOOKUP"
	PatternLimitCheck       = "CLARIFY_LIMIT_CHECK"
)

// Pattern is one named, pre-approved clarification response.
type Pattern struct {
	ID           string   `json:"id"`
	Trigger      string   `json:"trigger"`
	DefaultText  string   `json:"default_text"`
	Alternates   []string `json:"alternates,omitempty"`
	AuditLabel   string   `json:"audit_label"`
	NextStepText string   `json:"next_step_text"`
}

// patterns is the built-in pattern table. Content is reviewed copy;
// edits go through the same approval as any customer-facing text.
var patterns = map[string]Pattern{
	PatternAccountRequired: {
		ID:          PatternAccountRequired,
		Trigger:     "eligibility question without a usable account number",
		DefaultText: "I can check that for you. Could you share the account number you'd like me to look at?",
		Alternates: []string{
			"Happy to help with that. Which account number should I check?",
			"Sure — I just need the account number to run the eligibility check.",
		},
		AuditLabel:   "account_required",
		NextStepText: "Provide the account number and I'll run the check.",
	},
	PatternMultipleAccounts: {
		ID:          PatternMultipleAccounts,
		Trigger:     "more than one account number in a single request",
		DefaultText: "I found more than one account number in your message. Which one would you like me to check first?",
		Alternates: []string{
			"You've mentioned several accounts. Let's take them one at a time — which should I start with?",
		},
		AuditLabel:   "multiple_accounts",
		NextStepText: "Pick one account and I'll check it; we can do the others after.",
	},
	PatternContextMissing: {
		ID:          PatternContextMissing,
		Trigger:     "earlier account reference with no explicit number in this message",
		DefaultText: "Just to be safe, could you repeat the account number? I don't want to check the wrong account.",
		Alternates: []string{
			"I'd rather not guess which account you meant earlier — could you type the number again?",
		},
		AuditLabel:   "context_missing",
		NextStepText: "Re-enter the account number explicitly.",
	},
	PatternReasonLookup: {
		ID:          PatternReasonLookup,
		Trigger:     "exclusion-reason question against an unusable account number",
		DefaultText: "I can look up why an account was excluded, but the number you gave doesn't match our records. Could you double-check it?",
		Alternates: []string{
			"To explain the exclusion I need a valid account number — the one provided didn't match anything.",
		},
		AuditLabel:   "reason_lookup",
		NextStepText: "Verify the account number and I'll pull the exclusion reasons.",
	},
	PatternLimitCheck: {
		ID:          PatternLimitCheck,
		Trigger:     "limit question against an unusable account number",
		DefaultText: "I can check limits once I have a valid account number — the one provided didn't match our records.",
		Alternates: []string{
			"That account number didn't match anything on file. Could you confirm it so I can check the limit?",
		},
		AuditLabel:   "limit_check",
		NextStepText: "Confirm the account number and I'll check the limit.",
	},
}

// Lookup returns the pattern for an id.
func Lookup(id string) (Pattern, bool) {
	p, ok := patterns[id]
	return p, ok
}

// Patterns returns the ids of all registered patterns.
func Patterns() []string {
	ids := make([]string, 0, len(patterns))
	for id := range patterns {
		ids = append(ids, id)
	}
	return ids
}

package clarify

import (
	"context"
	"testing"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	one := func(v Validation) []Identifier {
		return []Identifier{{Value: "1001", Validation: v}}
	}

	cases := []struct {
		name         string
		in           Input
		wantPattern  string
		wantMissing  string
		wantSeverity Severity
	}{
		{
			name: "no intent",
			in:   Input{EligibilityIntent: false, Identifiers: one(ValidationFound)},
		},
		{
			name: "no intent overrides everything",
			in: Input{
				EligibilityIntent: false,
				Identifiers: []Identifier{
					{Value: "1", Validation: ValidationNotFound},
					{Value: "2", Validation: ValidationNotFound},
				},
				Message: "why was I excluded",
			},
		},
		{
			name: "multiple identifiers",
			in: Input{
				EligibilityIntent: true,
				Identifiers: []Identifier{
					{Value: "1", Validation: ValidationFound},
					{Value: "2", Validation: ValidationFound},
				},
			},
			wantPattern:  PatternMultipleAccounts,
			wantMissing:  "account_selection",
			wantSeverity: SeverityRequiredInput,
		},
		{
			name: "multiple identifiers beats keyword match",
			in: Input{
				EligibilityIntent: true,
				Identifiers: []Identifier{
					{Value: "1", Validation: ValidationNotFound},
					{Value: "2", Validation: ValidationInvalidFormat},
				},
				Message: "why is my limit capped",
			},
			wantPattern:  PatternMultipleAccounts,
			wantMissing:  "account_selection",
			wantSeverity: SeverityRequiredInput,
		},
		{
			name: "none given with prior reference",
			in: Input{
				EligibilityIntent:           true,
				HasPriorIdentifierReference: true,
			},
			wantPattern:  PatternContextMissing,
			wantMissing:  "explicit_account_number",
			wantSeverity: SeverityRequiredInput,
		},
		{
			name:         "none given fresh conversation",
			in:           Input{EligibilityIntent: true},
			wantPattern:  PatternAccountRequired,
			wantMissing:  "account_number",
			wantSeverity: SeverityRequiredInput,
		},
		{
			name: "single found proceeds",
			in:   Input{EligibilityIntent: true, Identifiers: one(ValidationFound)},
		},
		{
			name: "not found with reason question",
			in: Input{
				EligibilityIntent: true,
				Identifiers:       one(ValidationNotFound),
				Message:           "Why was this account declined?",
			},
			wantPattern:  PatternReasonLookup,
			wantMissing:  "valid_account_number",
			wantSeverity: SeverityRequiredInput,
		},
		{
			name: "invalid format with limit question",
			in: Input{
				EligibilityIntent: true,
				Identifiers:       one(ValidationInvalidFormat),
				Message:           "How much is the MAXIMUM I can draw?",
			},
			wantPattern:  PatternLimitCheck,
			wantMissing:  "valid_account_number",
			wantSeverity: SeverityRequiredInput,
		},
		{
			name: "reason keywords win over limit keywords",
			in: Input{
				EligibilityIntent: true,
				Identifiers:       one(ValidationNotFound),
				Message:           "what is the reason my limit dropped",
			},
			wantPattern:  PatternReasonLookup,
			wantMissing:  "valid_account_number",
			wantSeverity: SeverityRequiredInput,
		},
		{
			name: "not found without keywords",
			in: Input{
				EligibilityIntent: true,
				Identifiers:       one(ValidationNotFound),
				Message:           "please check this account",
			},
			wantPattern:  PatternAccountRequired,
			wantMissing:  "valid_account_number",
			wantSeverity: SeverityRequiredInput,
		},
		{
			name: "unknown validation falls back loudly",
			in: Input{
				EligibilityIntent: true,
				Identifiers:       one(Validation("garbled")),
			},
			wantPattern:  PatternAccountRequired,
			wantMissing:  "valid_account_number",
			wantSeverity: SeverityError,
		},
	}

	d := NewDetector(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := d.Detect(context.Background(), tc.in)
			if tc.wantPattern == "" {
				if !got.None() {
					t.Fatalf("expected no detection, got %+v", got)
				}
				return
			}
			if got.None() {
				t.Fatalf("expected %s, got none (%+v)", tc.wantPattern, got)
			}
			if got.PatternID != tc.wantPattern {
				t.Errorf("PatternID = %s, want %s", got.PatternID, tc.wantPattern)
			}
			if got.MissingField != tc.wantMissing {
				t.Errorf("MissingField = %s, want %s", got.MissingField, tc.wantMissing)
			}
			if got.Severity != tc.wantSeverity {
				t.Errorf("Severity = %s, want %s", got.Severity, tc.wantSeverity)
			}
			if got.Reason == "" {
				t.Error("Reason must not be empty")
			}
		})
	}
}

func TestValidationKnown(t *testing.T) {
	t.Parallel()

	for _, v := range []Validation{ValidationFound, ValidationNotFound, ValidationInvalidFormat} {
		if !v.Known() {
			t.Errorf("%s should be known", v)
		}
	}
	if Validation("").Known() || Validation("FOUND").Known() {
		t.Error("unknown outcomes must not pass Known")
	}
}

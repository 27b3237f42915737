package registry

import (
	"errors"
	"testing"
)

func testColumns() []ColumnDefinition {
	return []ColumnDefinition{
		{Name: "Account_Number", Role: RoleIdentifier, Class: ClassText},
		{Name: "DPD_Arrears_Check", Role: RoleCheck, Class: ClassText, Expected: []string{"Include", "Exclude"}},
		{Name: "Fraud_Check", Role: RoleCheck, Class: ClassText, Expected: []string{"Include", "Exclude"}},
		{Name: "Recency_Check", Role: RoleCheck, Class: ClassText, Expected: []string{"Include", "N"}, Recency: true},
		{Name: "Arrears_Days", Role: RoleEvidence, Class: ClassNumeric},
		{Name: "Branch", Role: RoleIgnore, Class: ClassText},
	}
}

func testRules() []DetectionRule {
	return []DetectionRule{
		{
			Column:          "DPD_Arrears_Check",
			Value:           "Exclude",
			ReasonCode:      "DPD_ARREARS_EXCLUSION",
			EvidenceColumns: []string{"Arrears_Days"},
			Facts:           []string{"Account is {Arrears_Days} days past due"},
		},
		{
			Column:     "Fraud_Check",
			ReasonCode: "FRAUD_EXCLUSION",
		},
	}
}

func testPlaybook() []PlaybookEntry {
	return []PlaybookEntry{
		{
			ReasonCode: "DPD_ARREARS_EXCLUSION",
			Meaning:    "Account is in arrears beyond the allowed window.",
			NextSteps:  []NextStep{{Action: "Confirm arrears balance", Owner: "Collections"}},
			ReviewType: "manual",
		},
		{
			ReasonCode: "RECENCY_EXCLUSION",
			Meaning:    "Most recent origination is outside the eligibility window.",
		},
	}
}

func TestBuildCatalog_Valid(t *testing.T) {
	t.Parallel()

	cat, err := buildCatalog(testColumns(), testRules(), testPlaybook(), nil)
	if err != nil {
		t.Fatalf("buildCatalog: %v", err)
	}

	if got := cat.RecencyColumn(); got != "Recency_Check" {
		t.Errorf("RecencyColumn = %q, want Recency_Check", got)
	}
	if cat.RuleCount() != 2 {
		t.Errorf("RuleCount = %d, want 2", cat.RuleCount())
	}
	if cat.PlaybookCount() != 2 {
		t.Errorf("PlaybookCount = %d, want 2", cat.PlaybookCount())
	}

	rule, ok := cat.Rule("DPD_Arrears_Check")
	if !ok {
		t.Fatal("expected rule for DPD_Arrears_Check")
	}
	if rule.ReasonCode != "DPD_ARREARS_EXCLUSION" {
		t.Errorf("ReasonCode = %q", rule.ReasonCode)
	}

	// Empty trigger value defaults to Exclude.
	fraud, _ := cat.Rule("Fraud_Check")
	if fraud.Value != TriggerExclude {
		t.Errorf("Fraud_Check trigger = %q, want %q", fraud.Value, TriggerExclude)
	}
}

func TestBuildCatalog_Defects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		columns  []ColumnDefinition
		rules    []DetectionRule
		playbook []PlaybookEntry
	}{
		{
			name:    "empty catalog",
			columns: nil,
		},
		{
			name: "duplicate column",
			columns: append(testColumns(), ColumnDefinition{
				Name: "Fraud_Check", Role: RoleCheck, Class: ClassText,
			}),
			rules: testRules(),
		},
		{
			name: "unknown role",
			columns: []ColumnDefinition{
				{Name: "Account_Number", Role: RoleIdentifier, Class: ClassText},
				{Name: "Weird", Role: "mystery", Class: ClassText},
			},
		},
		{
			name: "unknown class",
			columns: []ColumnDefinition{
				{Name: "Account_Number", Role: RoleIdentifier, Class: ClassText},
				{Name: "Weird", Role: RoleEvidence, Class: "decimalish"},
			},
		},
		{
			name:    "no identifier column",
			columns: testColumns()[1:],
			rules:   testRules(),
		},
		{
			name:    "check column without rule",
			columns: testColumns(),
			rules:   testRules()[:1], // drops the Fraud_Check rule
		},
		{
			name:    "rule for unknown column",
			columns: testColumns(),
			rules: append(testRules(), DetectionRule{
				Column: "Ghost_Check", ReasonCode: "GHOST",
			}),
		},
		{
			name:    "rule with unknown evidence column",
			columns: testColumns(),
			rules: []DetectionRule{
				{Column: "DPD_Arrears_Check", ReasonCode: "DPD_ARREARS_EXCLUSION", EvidenceColumns: []string{"Nope"}},
				{Column: "Fraud_Check", ReasonCode: "FRAUD_EXCLUSION"},
			},
		},
		{
			name:    "duplicate rule",
			columns: testColumns(),
			rules:   append(testRules(), testRules()[0]),
		},
		{
			name:     "duplicate playbook entry",
			columns:  testColumns(),
			rules:    testRules(),
			playbook: append(testPlaybook(), testPlaybook()[0]),
		},
		{
			name: "recency on non-check column",
			columns: []ColumnDefinition{
				{Name: "Account_Number", Role: RoleIdentifier, Class: ClassText},
				{Name: "Arrears_Days", Role: RoleEvidence, Class: ClassNumeric, Recency: true},
			},
		},
		{
			name: "two recency columns",
			columns: []ColumnDefinition{
				{Name: "Account_Number", Role: RoleIdentifier, Class: ClassText},
				{Name: "Recency_Check", Role: RoleCheck, Class: ClassText, Recency: true},
				{Name: "Recency_Check_2", Role: RoleCheck, Class: ClassText, Recency: true},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := buildCatalog(tc.columns, tc.rules, tc.playbook, nil)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("error type = %T, want *ConfigurationError", err)
			}
		})
	}
}

func TestIsNullToken(t *testing.T) {
	t.Parallel()

	cat, err := buildCatalog(testColumns(), testRules(), nil, nil)
	if err != nil {
		t.Fatalf("buildCatalog: %v", err)
	}

	for _, v := range []string{"", "  ", "null", "NULL", "N/A", "n/a", "-"} {
		if !cat.IsNullToken(v) {
			t.Errorf("IsNullToken(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"0", "Include", "Exclude", "na"} {
		if cat.IsNullToken(v) {
			t.Errorf("IsNullToken(%q) = true, want false", v)
		}
	}
}

func TestIsNullToken_CustomTokens(t *testing.T) {
	t.Parallel()

	cat, err := buildCatalog(testColumns(), testRules(), nil, []string{"missing"})
	if err != nil {
		t.Fatalf("buildCatalog: %v", err)
	}

	if !cat.IsNullToken("missing") {
		t.Error("expected custom token to match")
	}
	if cat.IsNullToken("null") {
		t.Error("default tokens should not apply when custom tokens are configured")
	}
}

func TestRenderFacts(t *testing.T) {
	t.Parallel()

	evidence := map[string]string{"Arrears_Days": "143", "Branch": "West"}

	cases := []struct {
		template string
		want     string
	}{
		{"Account is {Arrears_Days} days past due", "Account is 143 days past due"},
		{"{Arrears_Days}", "143"},
		{"no placeholders", "no placeholders"},
		{"{Unknown} value", " value"},
		{"unclosed {Arrears_Days", "unclosed {Arrears_Days"},
		{"{Arrears_Days} at {Branch}", "143 at West"},
	}
	for _, tc := range cases {
		got := RenderFacts([]string{tc.template}, evidence)
		if len(got) != 1 || got[0] != tc.want {
			t.Errorf("RenderFacts(%q) = %v, want [%q]", tc.template, got, tc.want)
		}
	}

	if got := RenderFacts(nil, evidence); got != nil {
		t.Errorf("RenderFacts(nil) = %v, want nil", got)
	}
}

package decision

import (
	"context"
	"testing"

	"github.com/linnemanlabs/assay/internal/registry"
)

// fixtureTables builds a small but complete registry covering every
// evaluation path: a clean exclusion with evidence and facts, an
// exclusion without playbook coverage, the recency override, a null
// evidence value, a column value the catalog never expected, and an
// identifier present in both record sets.
func fixtureTables(t *testing.T) *registry.Tables {
	t.Helper()

	return &registry.Tables{
		Columns: []registry.ColumnDefinition{
			{Name: "Account_Number", Role: registry.RoleIdentifier, Class: registry.ClassText},
			{Name: "DPD_Arrears_Check", Role: registry.RoleCheck, Class: registry.ClassText, Expected: []string{"Include", "Exclude"}},
			{Name: "Fraud_Check", Role: registry.RoleCheck, Class: registry.ClassText, Expected: []string{"Include", "Exclude"}},
			{Name: "Pending_Review_Check", Role: registry.RoleCheck, Class: registry.ClassText, Expected: []string{"Include", "Review"}},
			{Name: "Recency_Check", Role: registry.RoleCheck, Class: registry.ClassText, Expected: []string{"Include", "N"}, Recency: true},
			{Name: "Arrears_Days", Role: registry.RoleEvidence, Class: registry.ClassNumeric},
			{Name: "Branch", Role: registry.RoleIgnore, Class: registry.ClassText},
		},
		Rules: []registry.DetectionRule{
			{
				Column:          "DPD_Arrears_Check",
				Value:           "Exclude",
				ReasonCode:      "DPD_ARREARS_EXCLUSION",
				EvidenceColumns: []string{"Arrears_Days"},
				Facts:           []string{"Account is {Arrears_Days} days past due"},
			},
			{
				Column:     "Fraud_Check",
				Value:      "Exclude",
				ReasonCode: "FRAUD_EXCLUSION",
			},
		},
		Playbook: []registry.PlaybookEntry{
			{
				ReasonCode:            "DPD_ARREARS_EXCLUSION",
				Meaning:               "Account is in arrears beyond the allowed window.",
				NextSteps:             []registry.NextStep{{Action: "Confirm arrears balance", Owner: "Collections"}},
				ReviewType:            "manual",
				ReviewTiming:          "next business day",
				ManualOverrideAllowed: true,
				Constraints:           []string{"Do not promise a timeline"},
			},
			{
				ReasonCode: "RECENCY_EXCLUSION",
				Meaning:    "Most recent origination is outside the eligibility window.",
				ReviewType: "automatic",
			},
		},
		Eligible: []registry.EligibleEntry{
			{Identifier: "1001", DisplayName: "Orchard Lane Trust"},
			{Identifier: "1002", DisplayName: "Harbor View Ltd"},
			{Identifier: "3001", DisplayName: "Dual Listing Co"},
		},
		Accounts: []registry.AccountRow{
			{Identifier: "2001", Values: map[string]string{
				"DPD_Arrears_Check": "Exclude", "Fraud_Check": "Include",
				"Pending_Review_Check": "Include", "Recency_Check": "Include",
				"Arrears_Days": "143", "Branch": "West",
			}},
			{Identifier: "2002", Values: map[string]string{
				"DPD_Arrears_Check": "Include", "Fraud_Check": "Include",
				"Pending_Review_Check": "Include", "Recency_Check": "Include",
				"Arrears_Days": "0",
			}},
			{Identifier: "2003", Values: map[string]string{
				"DPD_Arrears_Check": "Include", "Fraud_Check": "Exclude",
				"Pending_Review_Check": "Include", "Recency_Check": "N",
				"Arrears_Days": "0",
			}},
			{Identifier: "2004", Values: map[string]string{
				"DPD_Arrears_Check": "Exclude", "Fraud_Check": "Include",
				"Pending_Review_Check": "Include", "Recency_Check": "Include",
				"Arrears_Days": "N/A",
			}},
			{Identifier: "2005", Values: map[string]string{
				"DPD_Arrears_Check": "Include", "Fraud_Check": "Include",
				"Pending_Review_Check": "Exclude", "Recency_Check": "Include",
				"Arrears_Days": "0",
			}},
			{Identifier: "3001", Values: map[string]string{
				"DPD_Arrears_Check": "Exclude", "Fraud_Check": "Include",
				"Pending_Review_Check": "Include", "Recency_Check": "Include",
				"Arrears_Days": "12",
			}},
		},
	}
}

func testSnapshot(t *testing.T) *registry.Snapshot {
	t.Helper()
	snap, err := registry.Build(fixtureTables(t))
	if err != nil {
		t.Fatalf("Build fixture: %v", err)
	}
	return snap
}

// fixtureSource serves the fixture tables through the registry's
// Source interface.
type fixtureSource struct {
	tables *registry.Tables
}

func (s *fixtureSource) Name() string { return "fixture" }

func (s *fixtureSource) Load(context.Context) (*registry.Tables, error) {
	return s.tables, nil
}

package registry

// EligibleEntry is one row of the eligible record set.
type EligibleEntry struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name"`
}

// AccountRow is one raw row of the evaluation record set. Values holds
// every non-identifier column by name, pre-normalization.
type AccountRow struct {
	Identifier string            `json:"identifier"`
	Values     map[string]string `json:"values"`
}

// Tables is the raw parse output of a Source: all five configuration
// and record tables before validation and indexing.
type Tables struct {
	Columns    []ColumnDefinition
	Rules      []DetectionRule
	Playbook   []PlaybookEntry
	NullTokens []string
	Eligible   []EligibleEntry
	Accounts   []AccountRow
}

package registry

import (
	"strings"
)

// Role classifies what the engine does with a column.
type Role string

const (
	// RoleIdentifier is the account key column.
	RoleIdentifier Role = "identifier"

	// RoleCheck columns are evaluated by the reason extractor.
	RoleCheck Role = "check"

	// RoleEvidence columns are carried into facts but never trigger.
	RoleEvidence Role = "evidence"

	// RoleIgnore columns pass through unused.
	RoleIgnore Role = "ignore"
)

// NormClass selects the blank/null replacement for a column.
type NormClass string

const (
	ClassNumeric NormClass = "numeric"
	ClassText    NormClass = "text"
)

const (
	// TriggerExclude is the check value that fires a detection rule.
	TriggerExclude = "Exclude"

	// RecencyNo is the recency check value that always yields a reason.
	RecencyNo = "N"

	// ReasonRecency is the fixed reason code for the recency override.
	ReasonRecency = "RECENCY_EXCLUSION"
)

// ColumnDefinition describes one column of the evaluation record set.
type ColumnDefinition struct {
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	Class    NormClass `json:"class"`
	Expected []string  `json:"expected,omitempty"` // for check columns
	Recency  bool      `json:"recency,omitempty"`  // marks the one check column with N/Include semantics
}

// DetectionRule maps a check column trigger to a reason and its evidence.
type DetectionRule struct {
	Column          string   `json:"column"`
	Value           string   `json:"value"`
	ReasonCode      string   `json:"reason_code"`
	EvidenceColumns []string `json:"evidence_columns,omitempty"`
	Facts           []string `json:"facts,omitempty"` // templates with {Column} placeholders
}

// NextStep is one remediation action with its owning team.
type NextStep struct {
	Action string `json:"action"`
	Owner  string `json:"owner"`
}

// PlaybookEntry is the staff-facing content attached to a reason code.
type PlaybookEntry struct {
	ReasonCode            string     `json:"reason_code"`
	Meaning               string     `json:"meaning"`
	NextSteps             []NextStep `json:"next_steps,omitempty"`
	ReviewType            string     `json:"review_type,omitempty"`
	ReviewTiming          string     `json:"review_timing,omitempty"`
	ManualOverrideAllowed bool       `json:"manual_override_allowed"`
	Constraints           []string   `json:"constraints,omitempty"`
}

// Catalog is the indexed, validated view of the three configuration
// tables. Built once by Build, immutable afterwards.
type Catalog struct {
	// Columns in declaration order. Extraction iterates this slice so
	// reason order is deterministic.
	Columns []ColumnDefinition

	// NullTokens are treated as blank during normalization, in
	// addition to the empty string.
	NullTokens []string

	rules    map[string]DetectionRule // trigger column -> rule
	playbook map[string]PlaybookEntry // reason code -> entry
	byName   map[string]ColumnDefinition
	recency  string // name of the recency check column, if any
}

// Rule returns the detection rule keyed by trigger column.
func (c *Catalog) Rule(column string) (DetectionRule, bool) {
	r, ok := c.rules[column]
	return r, ok
}

// Playbook returns the playbook entry for a reason code.
func (c *Catalog) Playbook(reasonCode string) (PlaybookEntry, bool) {
	p, ok := c.playbook[reasonCode]
	return p, ok
}

// Column returns the definition for a column name.
func (c *Catalog) Column(name string) (ColumnDefinition, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// RecencyColumn returns the name of the recency check column, or "" if
// the catalog declares none.
func (c *Catalog) RecencyColumn() string {
	return c.recency
}

// RuleCount reports how many detection rules the catalog carries.
func (c *Catalog) RuleCount() int { return len(c.rules) }

// PlaybookCount reports how many playbook entries the catalog carries.
func (c *Catalog) PlaybookCount() int { return len(c.playbook) }

// IsNullToken reports whether a raw value should be treated as blank.
// Matching is exact after trimming surrounding whitespace.
func (c *Catalog) IsNullToken(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	for _, tok := range c.NullTokens {
		if v == tok {
			return true
		}
	}
	return false
}

// defaultNullTokens is used when the configuration declares none.
var defaultNullTokens = []string{"null", "NULL", "N/A", "n/a", "-"}

// buildCatalog validates and indexes the three configuration tables.
// All defects are ConfigurationErrors: the caller must refuse to serve.
func buildCatalog(columns []ColumnDefinition, rules []DetectionRule, playbook []PlaybookEntry, nullTokens []string) (*Catalog, error) {
	if len(columns) == 0 {
		return nil, configErrf(TableColumns, "column catalog is empty")
	}

	c := &Catalog{
		Columns:    columns,
		NullTokens: nullTokens,
		rules:      make(map[string]DetectionRule, len(rules)),
		playbook:   make(map[string]PlaybookEntry, len(playbook)),
		byName:     make(map[string]ColumnDefinition, len(columns)),
	}
	if c.NullTokens == nil {
		c.NullTokens = defaultNullTokens
	}

	identifiers := 0
	for i := range c.Columns {
		col := &c.Columns[i]
		if col.Name == "" {
			return nil, configErrf(TableColumns, "column with empty name")
		}
		if _, dup := c.byName[col.Name]; dup {
			return nil, configErrf(TableColumns, "duplicate column %q", col.Name)
		}
		switch col.Role {
		case RoleIdentifier:
			identifiers++
		case RoleCheck, RoleEvidence, RoleIgnore:
		default:
			return nil, configErrf(TableColumns, "column %q has unknown role %q", col.Name, col.Role)
		}
		switch col.Class {
		case ClassNumeric, ClassText:
		case "":
			col.Class = ClassText
		default:
			return nil, configErrf(TableColumns, "column %q has unknown class %q", col.Name, col.Class)
		}
		if col.Recency {
			if col.Role != RoleCheck {
				return nil, configErrf(TableColumns, "recency column %q must have role check", col.Name)
			}
			if c.recency != "" {
				return nil, configErrf(TableColumns, "multiple recency columns (%q, %q)", c.recency, col.Name)
			}
			c.recency = col.Name
		}
		c.byName[col.Name] = *col
	}
	if identifiers != 1 {
		return nil, configErrf(TableColumns, "catalog must declare exactly one identifier column, got %d", identifiers)
	}

	for _, r := range rules {
		if r.Column == "" || r.ReasonCode == "" {
			return nil, configErrf(TableRules, "rule with empty column or reason code")
		}
		col, ok := c.byName[r.Column]
		if !ok {
			return nil, configErrf(TableRules, "rule for unknown column %q", r.Column)
		}
		if col.Role != RoleCheck {
			return nil, configErrf(TableRules, "rule for column %q with role %q, want check", r.Column, col.Role)
		}
		if _, dup := c.rules[r.Column]; dup {
			return nil, configErrf(TableRules, "duplicate rule for column %q", r.Column)
		}
		if r.Value == "" {
			r.Value = TriggerExclude
		}
		for _, ev := range r.EvidenceColumns {
			if _, ok := c.byName[ev]; !ok {
				return nil, configErrf(TableRules, "rule %q references unknown evidence column %q", r.ReasonCode, ev)
			}
		}
		c.rules[r.Column] = r
	}

	for _, p := range playbook {
		if p.ReasonCode == "" {
			return nil, configErrf(TablePlaybook, "playbook entry with empty reason code")
		}
		if _, dup := c.playbook[p.ReasonCode]; dup {
			return nil, configErrf(TablePlaybook, "duplicate playbook entry %q", p.ReasonCode)
		}
		c.playbook[p.ReasonCode] = p
	}

	// Every check column that can carry the Exclude value must map to a
	// rule. Finding the gap at load time keeps it out of evaluation.
	for _, col := range c.Columns {
		if col.Role != RoleCheck || col.Recency {
			continue
		}
		if !expects(col, TriggerExclude) {
			continue
		}
		if _, ok := c.rules[col.Name]; !ok {
			return nil, configErrf(TableRules, "check column %q has no detection rule", col.Name)
		}
	}

	return c, nil
}

func expects(col ColumnDefinition, value string) bool {
	if len(col.Expected) == 0 {
		// No expected list declared: assume the standard Include/Exclude pair.
		return value == TriggerExclude
	}
	for _, v := range col.Expected {
		if v == value {
			return true
		}
	}
	return false
}

// RenderFacts substitutes {Column} placeholders in each fact template
// with the corresponding evidence value. An unknown placeholder renders
// as the empty string; the caller decides whether to log it.
func RenderFacts(templates []string, evidence map[string]string) []string {
	if len(templates) == 0 {
		return nil
	}
	facts := make([]string, 0, len(templates))
	for _, t := range templates {
		facts = append(facts, renderFact(t, evidence))
	}
	return facts
}

func renderFact(template string, evidence map[string]string) string {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:open])
		name := rest[open+1 : open+closing]
		b.WriteString(evidence[name])
		rest = rest[open+closing+1:]
	}
}

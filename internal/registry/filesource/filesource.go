// Package filesource loads the registry from local files: a YAML
// document for the column catalog, detection rules, and playbook, and
// two CSV exports for the record sets.
package filesource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/assay/internal/registry"
)

// Source reads registry tables from disk. Paths are fixed at
// construction; Load re-reads them, so reload picks up edited files.
type Source struct {
	catalogPath  string
	eligiblePath string
	accountsPath string
}

// New creates a file-backed registry source.
func New(catalogPath, eligiblePath, accountsPath string) *Source {
	return &Source{
		catalogPath:  catalogPath,
		eligiblePath: eligiblePath,
		accountsPath: accountsPath,
	}
}

// Name identifies this source in snapshot metadata.
func (s *Source) Name() string { return "file" }

// catalogDoc is the YAML shape of the configuration document.
type catalogDoc struct {
	NullTokens []string `yaml:"null_tokens"`
	Columns    []struct {
		Name     string   `yaml:"name"`
		Role     string   `yaml:"role"`
		Class    string   `yaml:"class"`
		Expected []string `yaml:"expected"`
		Recency  bool     `yaml:"recency"`
	} `yaml:"columns"`
	Rules []struct {
		Column     string   `yaml:"column"`
		Value      string   `yaml:"value"`
		ReasonCode string   `yaml:"reason_code"`
		Evidence   []string `yaml:"evidence"`
		Facts      []string `yaml:"facts"`
	} `yaml:"rules"`
	Playbook []struct {
		ReasonCode string `yaml:"reason_code"`
		Meaning    string `yaml:"meaning"`
		NextSteps  []struct {
			Action string `yaml:"action"`
			Owner  string `yaml:"owner"`
		} `yaml:"next_steps"`
		ReviewType            string   `yaml:"review_type"`
		ReviewTiming          string   `yaml:"review_timing"`
		ManualOverrideAllowed bool     `yaml:"manual_override_allowed"`
		Constraints           []string `yaml:"constraints"`
	} `yaml:"playbook"`
}

// Load parses all five tables. Parse failures are ConfigurationErrors:
// the caller must not serve from a partially read registry.
func (s *Source) Load(_ context.Context) (*registry.Tables, error) {
	doc, err := s.loadCatalog()
	if err != nil {
		return nil, err
	}

	tables := &registry.Tables{NullTokens: doc.NullTokens}

	for _, c := range doc.Columns {
		tables.Columns = append(tables.Columns, registry.ColumnDefinition{
			Name:     c.Name,
			Role:     registry.Role(c.Role),
			Class:    registry.NormClass(c.Class),
			Expected: c.Expected,
			Recency:  c.Recency,
		})
	}
	for _, r := range doc.Rules {
		tables.Rules = append(tables.Rules, registry.DetectionRule{
			Column:          r.Column,
			Value:           r.Value,
			ReasonCode:      r.ReasonCode,
			EvidenceColumns: r.Evidence,
			Facts:           r.Facts,
		})
	}
	for _, p := range doc.Playbook {
		entry := registry.PlaybookEntry{
			ReasonCode:            p.ReasonCode,
			Meaning:               p.Meaning,
			ReviewType:            p.ReviewType,
			ReviewTiming:          p.ReviewTiming,
			ManualOverrideAllowed: p.ManualOverrideAllowed,
			Constraints:           p.Constraints,
		}
		for _, n := range p.NextSteps {
			entry.NextSteps = append(entry.NextSteps, registry.NextStep{Action: n.Action, Owner: n.Owner})
		}
		tables.Playbook = append(tables.Playbook, entry)
	}

	if tables.Eligible, err = s.loadEligible(); err != nil {
		return nil, err
	}

	// The catalog must be indexed before the evaluation CSV can be
	// interpreted: the identifier column is found by role.
	snap, err := registry.Build(&registry.Tables{
		Columns:    tables.Columns,
		Rules:      tables.Rules,
		Playbook:   tables.Playbook,
		NullTokens: tables.NullTokens,
	})
	if err != nil {
		return nil, err
	}
	if tables.Accounts, err = s.loadAccounts(snap.Catalog); err != nil {
		return nil, err
	}

	return tables, nil
}

func (s *Source) loadCatalog() (*catalogDoc, error) {
	raw, err := os.ReadFile(s.catalogPath)
	if err != nil {
		return nil, &registry.ConfigurationError{Table: registry.TableColumns, Err: fmt.Errorf("read catalog: %w", err)}
	}
	var doc catalogDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &registry.ConfigurationError{Table: registry.TableColumns, Err: fmt.Errorf("parse catalog: %w", err)}
	}
	return &doc, nil
}

func (s *Source) loadEligible() ([]registry.EligibleEntry, error) {
	rows, err := readCSV(s.eligiblePath)
	if err != nil {
		return nil, &registry.ConfigurationError{Table: registry.TableEligible, Err: err}
	}
	if len(rows) == 0 {
		return nil, &registry.ConfigurationError{Table: registry.TableEligible, Err: fmt.Errorf("missing header row")}
	}
	header := rows[0]
	if len(header) < 2 || header[0] != "identifier" || header[1] != "display_name" {
		return nil, &registry.ConfigurationError{Table: registry.TableEligible, Err: fmt.Errorf("header must be identifier,display_name")}
	}
	entries := make([]registry.EligibleEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, &registry.ConfigurationError{Table: registry.TableEligible, Err: fmt.Errorf("row %d: want %d fields, got %d", i+2, len(header), len(row))}
		}
		entries = append(entries, registry.EligibleEntry{Identifier: row[0], DisplayName: row[1]})
	}
	return entries, nil
}

func (s *Source) loadAccounts(cat *registry.Catalog) ([]registry.AccountRow, error) {
	rows, err := readCSV(s.accountsPath)
	if err != nil {
		return nil, &registry.ConfigurationError{Table: registry.TableAccounts, Err: err}
	}
	if len(rows) == 0 {
		return nil, &registry.ConfigurationError{Table: registry.TableAccounts, Err: fmt.Errorf("missing header row")}
	}

	header := rows[0]
	idCol := -1
	for i, name := range header {
		def, ok := cat.Column(name)
		if !ok {
			return nil, &registry.ConfigurationError{Table: registry.TableAccounts, Err: fmt.Errorf("header column %q not in catalog", name)}
		}
		if def.Role == registry.RoleIdentifier {
			idCol = i
		}
	}
	if idCol < 0 {
		return nil, &registry.ConfigurationError{Table: registry.TableAccounts, Err: fmt.Errorf("header has no identifier column")}
	}

	// Every check and evidence column from the catalog must be present;
	// a silently absent column would evaluate as permanently blank.
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}
	for _, def := range cat.Columns {
		if def.Role != registry.RoleCheck && def.Role != registry.RoleEvidence {
			continue
		}
		if !present[def.Name] {
			return nil, &registry.ConfigurationError{Table: registry.TableAccounts, Err: fmt.Errorf("required column %q missing from export", def.Name)}
		}
	}

	accounts := make([]registry.AccountRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, &registry.ConfigurationError{Table: registry.TableAccounts, Err: fmt.Errorf("row %d: want %d fields, got %d", i+2, len(header), len(row))}
		}
		a := registry.AccountRow{
			Identifier: row[idCol],
			Values:     make(map[string]string, len(header)-1),
		}
		for j, v := range row {
			if j == idCol {
				continue
			}
			a.Values[header[j]] = v
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // row width is validated per table
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		rows = append(rows, row)
	}
}

package decision

import (
	"strings"

	"github.com/linnemanlabs/assay/internal/registry"
)

// Normalize applies per-column blank/null handling to a raw row.
// Numeric blanks become "0", text blanks become ""; ignore-role
// columns are dropped. Runs before any rule evaluates.
func Normalize(row registry.AccountRow, cat *registry.Catalog) AccountRecord {
	rec := AccountRecord{
		Identifier: row.Identifier,
		Checks:     make(map[string]string),
		Evidence:   make(map[string]string),
	}

	for _, col := range cat.Columns {
		switch col.Role {
		case registry.RoleCheck:
			rec.Checks[col.Name] = normalizeValue(row.Values[col.Name], col, cat)
		case registry.RoleEvidence:
			rec.Evidence[col.Name] = normalizeValue(row.Values[col.Name], col, cat)
		}
	}

	return rec
}

func normalizeValue(raw string, col registry.ColumnDefinition, cat *registry.Catalog) string {
	if cat.IsNullToken(raw) {
		if col.Class == registry.ClassNumeric {
			return "0"
		}
		return ""
	}
	return strings.TrimSpace(raw)
}

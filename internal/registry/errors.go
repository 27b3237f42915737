package registry

import "fmt"

// Table names used in configuration error reporting.
const (
	TableColumns  = "column_catalog"
	TableRules    = "detection_rules"
	TablePlaybook = "playbook"
	TableEligible = "eligible_accounts"
	TableAccounts = "evaluation_accounts"
)

// ConfigurationError marks a registry defect that must prevent the
// engine from serving. Startup aborts on it; reload rejects the new
// snapshot and keeps the old one.
type ConfigurationError struct {
	Table string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("registry: %s: %v", e.Table, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErrf(table, format string, args ...any) error {
	return &ConfigurationError{Table: table, Err: fmt.Errorf(format, args...)}
}

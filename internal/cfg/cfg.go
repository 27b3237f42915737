package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds app-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	CatalogPath           string
	EligiblePath          string
	AccountsPath          string
	DatabaseURL           string
	ReloadToken           string
	SlackWebhookURL       string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.CatalogPath, "catalog-path", "", "path to the YAML catalog document (columns, rules, playbook)")
	fs.StringVar(&c.EligiblePath, "eligible-path", "", "path to the eligible record set CSV export")
	fs.StringVar(&c.AccountsPath, "accounts-path", "", "path to the evaluation record set CSV export")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL for the registry tables (empty = file source)")
	fs.StringVar(&c.ReloadToken, "reload-token", "", "bearer token for the registry reload endpoint (empty = reload disabled)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for registry load digests")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Exactly one registry source: either the file trio or Postgres.
	switch {
	case c.DatabaseURL != "":
		if c.CatalogPath != "" || c.EligiblePath != "" || c.AccountsPath != "" {
			errs = append(errs, errors.New("DATABASE_URL and file paths are mutually exclusive"))
		}
	case c.CatalogPath != "" || c.EligiblePath != "" || c.AccountsPath != "":
		if c.CatalogPath == "" || c.EligiblePath == "" || c.AccountsPath == "" {
			errs = append(errs, errors.New("file source needs CATALOG_PATH, ELIGIBLE_PATH, and ACCOUNTS_PATH together"))
		}
	default:
		errs = append(errs, errors.New("a registry source is required: DATABASE_URL or CATALOG_PATH/ELIGIBLE_PATH/ACCOUNTS_PATH"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

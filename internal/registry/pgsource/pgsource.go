// Package pgsource loads the registry tables from PostgreSQL.
package pgsource

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/assay/internal/registry"
)

var tracer = otel.Tracer("github.com/linnemanlabs/assay/internal/registry/pgsource")

//go:embed schema.sql
var schema string

// Source reads the registry tables from a PostgreSQL pool.
type Source struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Source.
func New(ctx context.Context, pool *pgxpool.Pool) (*Source, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Source{pool: pool}, nil
}

// Name identifies this source in snapshot metadata.
func (s *Source) Name() string { return "postgres" }

// Load reads all five registry tables inside one tracing span. Read
// failures surface as ConfigurationErrors so callers refuse the
// snapshot rather than serve from a partial registry.
func (s *Source) Load(ctx context.Context) (*registry.Tables, error) {
	ctx, span := tracer.Start(ctx, "pgsource.Load", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	tables := &registry.Tables{}
	var err error
	if tables.Columns, err = s.loadColumns(ctx); err != nil {
		return nil, fail(span, registry.TableColumns, err)
	}
	if tables.Rules, err = s.loadRules(ctx); err != nil {
		return nil, fail(span, registry.TableRules, err)
	}
	if tables.Playbook, err = s.loadPlaybook(ctx); err != nil {
		return nil, fail(span, registry.TablePlaybook, err)
	}
	if tables.Eligible, err = s.loadEligible(ctx); err != nil {
		return nil, fail(span, registry.TableEligible, err)
	}
	if tables.Accounts, err = s.loadAccounts(ctx); err != nil {
		return nil, fail(span, registry.TableAccounts, err)
	}
	if tables.NullTokens, err = s.loadNullTokens(ctx); err != nil {
		return nil, fail(span, registry.TableColumns, err)
	}

	span.SetAttributes(
		attribute.Int("assay.registry.columns", len(tables.Columns)),
		attribute.Int("assay.registry.rules", len(tables.Rules)),
		attribute.Int("assay.registry.eligible", len(tables.Eligible)),
		attribute.Int("assay.registry.accounts", len(tables.Accounts)),
	)
	return tables, nil
}

func fail(span trace.Span, table string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return &registry.ConfigurationError{Table: table, Err: err}
}

func (s *Source) loadColumns(ctx context.Context) ([]registry.ColumnDefinition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, role, class, expected, recency FROM catalog_columns ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query catalog_columns: %w", err)
	}
	defer rows.Close()

	var cols []registry.ColumnDefinition
	for rows.Next() {
		var c registry.ColumnDefinition
		if err := rows.Scan(&c.Name, &c.Role, &c.Class, &c.Expected, &c.Recency); err != nil {
			return nil, fmt.Errorf("scan catalog_columns: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (s *Source) loadRules(ctx context.Context) ([]registry.DetectionRule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT trigger_column, trigger_value, reason_code, evidence, facts FROM detection_rules ORDER BY trigger_column`)
	if err != nil {
		return nil, fmt.Errorf("query detection_rules: %w", err)
	}
	defer rows.Close()

	var rules []registry.DetectionRule
	for rows.Next() {
		var r registry.DetectionRule
		if err := rows.Scan(&r.Column, &r.Value, &r.ReasonCode, &r.EvidenceColumns, &r.Facts); err != nil {
			return nil, fmt.Errorf("scan detection_rules: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *Source) loadPlaybook(ctx context.Context) ([]registry.PlaybookEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT reason_code, meaning, next_steps, review_type, review_timing, manual_override_allowed, constraints
		 FROM playbook ORDER BY reason_code`)
	if err != nil {
		return nil, fmt.Errorf("query playbook: %w", err)
	}
	defer rows.Close()

	var entries []registry.PlaybookEntry
	for rows.Next() {
		var p registry.PlaybookEntry
		var nextSteps []byte
		if err := rows.Scan(&p.ReasonCode, &p.Meaning, &nextSteps, &p.ReviewType, &p.ReviewTiming, &p.ManualOverrideAllowed, &p.Constraints); err != nil {
			return nil, fmt.Errorf("scan playbook: %w", err)
		}
		if len(nextSteps) > 0 {
			if err := json.Unmarshal(nextSteps, &p.NextSteps); err != nil {
				return nil, fmt.Errorf("playbook %s: decode next_steps: %w", p.ReasonCode, err)
			}
		}
		entries = append(entries, p)
	}
	return entries, rows.Err()
}

func (s *Source) loadEligible(ctx context.Context) ([]registry.EligibleEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT identifier, display_name FROM eligible_accounts`)
	if err != nil {
		return nil, fmt.Errorf("query eligible_accounts: %w", err)
	}
	defer rows.Close()

	var entries []registry.EligibleEntry
	for rows.Next() {
		var e registry.EligibleEntry
		if err := rows.Scan(&e.Identifier, &e.DisplayName); err != nil {
			return nil, fmt.Errorf("scan eligible_accounts: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Source) loadAccounts(ctx context.Context) ([]registry.AccountRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT identifier, attrs FROM evaluation_accounts`)
	if err != nil {
		return nil, fmt.Errorf("query evaluation_accounts: %w", err)
	}
	defer rows.Close()

	var accounts []registry.AccountRow
	for rows.Next() {
		var a registry.AccountRow
		var values []byte
		if err := rows.Scan(&a.Identifier, &values); err != nil {
			return nil, fmt.Errorf("scan evaluation_accounts: %w", err)
		}
		if len(values) > 0 {
			if err := json.Unmarshal(values, &a.Values); err != nil {
				return nil, fmt.Errorf("evaluation account row: decode values: %w", err)
			}
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Source) loadNullTokens(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT token FROM registry_null_tokens ORDER BY token`)
	if err != nil {
		return nil, fmt.Errorf("query registry_null_tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan registry_null_tokens: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

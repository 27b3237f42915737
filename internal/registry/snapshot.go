// Package registry loads and indexes the engine's configuration: the
// column catalog, detection rules, playbook, and the two identifier-
// keyed record sets. A Snapshot is immutable once built; the Holder
// swaps whole snapshots atomically so in-flight evaluations always see
// a consistent view.
package registry

import (
	"context"
	"sync/atomic"
	"time"
)

// Source produces the raw registry tables from some backing store.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Tables, error)
}

// Snapshot is one validated, indexed, immutable registry generation.
type Snapshot struct {
	Catalog *Catalog

	Generation uint64
	LoadedAt   time.Time
	SourceName string

	eligible map[string]EligibleEntry
	accounts map[string]AccountRow

	// collisions holds identifiers present in both record sets. The
	// eligible set wins at evaluation time; the overlap is a data
	// quality signal, never logged by value.
	collisions []string
}

// LookupEligible returns the eligible-set entry for an identifier.
func (s *Snapshot) LookupEligible(identifier string) (EligibleEntry, bool) {
	e, ok := s.eligible[identifier]
	return e, ok
}

// LookupAccount returns the evaluation-set row for an identifier.
func (s *Snapshot) LookupAccount(identifier string) (AccountRow, bool) {
	a, ok := s.accounts[identifier]
	return a, ok
}

// EligibleCount reports the size of the eligible set.
func (s *Snapshot) EligibleCount() int { return len(s.eligible) }

// AccountCount reports the size of the evaluation set.
func (s *Snapshot) AccountCount() int { return len(s.accounts) }

// CollisionCount reports how many identifiers appear in both sets.
func (s *Snapshot) CollisionCount() int { return len(s.collisions) }

// Build validates and indexes raw tables into a Snapshot. Any defect
// is a ConfigurationError and no snapshot is produced.
func Build(tables *Tables) (*Snapshot, error) {
	cat, err := buildCatalog(tables.Columns, tables.Rules, tables.Playbook, tables.NullTokens)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		Catalog:  cat,
		LoadedAt: time.Now(),
		eligible: make(map[string]EligibleEntry, len(tables.Eligible)),
		accounts: make(map[string]AccountRow, len(tables.Accounts)),
	}

	for _, e := range tables.Eligible {
		if e.Identifier == "" {
			return nil, configErrf(TableEligible, "row with empty identifier")
		}
		if _, dup := s.eligible[e.Identifier]; dup {
			return nil, configErrf(TableEligible, "duplicate identifier in eligible set")
		}
		s.eligible[e.Identifier] = e
	}

	for _, a := range tables.Accounts {
		if a.Identifier == "" {
			return nil, configErrf(TableAccounts, "row with empty identifier")
		}
		if _, dup := s.accounts[a.Identifier]; dup {
			return nil, configErrf(TableAccounts, "duplicate identifier in evaluation set")
		}
		for col := range a.Values {
			if _, known := cat.Column(col); !known {
				return nil, configErrf(TableAccounts, "row references unknown column %q", col)
			}
		}
		s.accounts[a.Identifier] = a
		if _, both := s.eligible[a.Identifier]; both {
			s.collisions = append(s.collisions, a.Identifier)
		}
	}

	return s, nil
}

// Holder is the atomically swappable reference to the active Snapshot.
// Readers never block; Reload builds and validates a complete new
// snapshot before swapping it in.
type Holder struct {
	active atomic.Pointer[Snapshot]
	gen    atomic.Uint64
}

// NewHolder returns an empty Holder. Active returns nil until the
// first successful Reload.
func NewHolder() *Holder {
	return &Holder{}
}

// Active returns the current snapshot, or nil before the first load.
func (h *Holder) Active() *Snapshot {
	return h.active.Load()
}

// Reload loads, validates, and atomically publishes a new snapshot.
// On error the previous snapshot stays active.
func (h *Holder) Reload(ctx context.Context, src Source) (*Snapshot, error) {
	tables, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := Build(tables)
	if err != nil {
		return nil, err
	}
	snap.SourceName = src.Name()
	snap.Generation = h.gen.Add(1)
	h.active.Store(snap)
	return snap, nil
}

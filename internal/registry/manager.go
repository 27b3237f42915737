package registry

import (
	"context"

	"github.com/linnemanlabs/go-core/log"
)

// ReloadHooks lets the manager report load outcomes without depending
// on the metrics or notification backends. Nil fields are no-ops.
type ReloadHooks struct {
	OnLoaded   func(snap *Snapshot)
	OnRejected func(err error)
}

// Manager owns the holder/source pair and the operational concerns of
// loading: logging, hook dispatch, keep-old-on-failure semantics.
type Manager struct {
	holder *Holder
	src    Source
	logger log.Logger
	hooks  ReloadHooks
}

// NewManager creates a registry manager. A nil logger falls back to Nop.
func NewManager(src Source, logger log.Logger, hooks ReloadHooks) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		holder: NewHolder(),
		src:    src,
		logger: logger,
		hooks:  hooks,
	}
}

// Holder returns the underlying snapshot holder for readers.
func (m *Manager) Holder() *Holder { return m.holder }

// Active returns the current snapshot, or nil before the first load.
func (m *Manager) Active() *Snapshot { return m.holder.Active() }

// Reload builds and publishes a new snapshot. On failure the previous
// snapshot keeps serving and the error is reported through the hooks.
func (m *Manager) Reload(ctx context.Context) (*Snapshot, error) {
	snap, err := m.holder.Reload(ctx, m.src)
	if err != nil {
		m.logger.Error(ctx, err, "registry load rejected", "source", m.src.Name())
		if m.hooks.OnRejected != nil {
			m.hooks.OnRejected(err)
		}
		return nil, err
	}

	// Collisions are a data quality signal: eligible wins at
	// evaluation time, but the overlap should not exist. Count only,
	// never the identifiers themselves.
	if n := snap.CollisionCount(); n > 0 {
		m.logger.Warn(ctx, "identifiers present in both record sets",
			"collisions", n,
			"generation", snap.Generation,
		)
	}

	m.logger.Info(ctx, "registry loaded",
		"source", snap.SourceName,
		"generation", snap.Generation,
		"columns", len(snap.Catalog.Columns),
		"rules", snap.Catalog.RuleCount(),
		"playbook", snap.Catalog.PlaybookCount(),
		"eligible", snap.EligibleCount(),
		"accounts", snap.AccountCount(),
		"collisions", snap.CollisionCount(),
	)

	if m.hooks.OnLoaded != nil {
		m.hooks.OnLoaded(snap)
	}
	return snap, nil
}

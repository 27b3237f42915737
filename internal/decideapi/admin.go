package decideapi

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/assay/internal/registry"
)

// snapshotInfo is the wire form of registry snapshot metadata. Counts
// only; no identifier values.
type snapshotInfo struct {
	Source     string    `json:"source"`
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at"`
	Columns    int       `json:"columns"`
	Rules      int       `json:"rules"`
	Playbook   int       `json:"playbook"`
	Eligible   int       `json:"eligible"`
	Accounts   int       `json:"accounts"`
	Collisions int       `json:"collisions"`
}

func toSnapshotInfo(s *registry.Snapshot) snapshotInfo {
	return snapshotInfo{
		Source:     s.SourceName,
		Generation: s.Generation,
		LoadedAt:   s.LoadedAt,
		Columns:    len(s.Catalog.Columns),
		Rules:      s.Catalog.RuleCount(),
		Playbook:   s.Catalog.PlaybookCount(),
		Eligible:   s.EligibleCount(),
		Accounts:   s.AccountCount(),
		Collisions: s.CollisionCount(),
	}
}

func (a *API) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := a.admin.Active()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "registry not loaded")
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotInfo(snap))
}

func (a *API) handleReload(w http.ResponseWriter, r *http.Request) {
	span := trace.SpanFromContext(r.Context())

	snap, err := a.admin.Reload(r.Context())
	if err != nil {
		// The previous snapshot stays active; 409 tells the operator
		// the new data was rejected, not that serving stopped.
		a.logger.Error(r.Context(), err, "registry reload rejected")
		writeError(w, http.StatusConflict, "reload rejected: "+err.Error())
		return
	}

	span.SetAttributes(attribute.Int64("assay.registry.generation", int64(snap.Generation)))
	a.logger.Info(r.Context(), "registry reloaded",
		"generation", snap.Generation,
		"eligible", snap.EligibleCount(),
		"accounts", snap.AccountCount(),
		"collisions", snap.CollisionCount(),
	)

	writeJSON(w, http.StatusOK, toSnapshotInfo(snap))
}

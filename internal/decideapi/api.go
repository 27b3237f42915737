// Package decideapi exposes the decision engine over HTTP.
package decideapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/assay/internal/authmw"
	"github.com/linnemanlabs/assay/internal/decision"
	"github.com/linnemanlabs/assay/internal/registry"
)

// DecisionService defines the business operations decideapi needs.
type DecisionService interface {
	Decide(ctx context.Context, req *decision.Request) (*decision.Outcome, error)
}

// RegistryAdmin exposes snapshot inspection and reload to the API.
type RegistryAdmin interface {
	Active() *registry.Snapshot
	Reload(ctx context.Context) (*registry.Snapshot, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger      log.Logger
	svc         DecisionService
	admin       RegistryAdmin
	reloadToken string
}

// New creates a new API handler. reloadToken guards the reload
// endpoint; when empty, reload is not registered at all.
func New(logger log.Logger, svc DecisionService, admin RegistryAdmin, reloadToken string) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("decision service is required"))
	}
	if admin == nil {
		panic(xerrors.New("registry admin is required"))
	}
	return &API{
		logger:      logger,
		svc:         svc,
		admin:       admin,
		reloadToken: reloadToken,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/decide", a.handleDecide)
		r.Get("/snapshot", a.handleSnapshot)
		if a.reloadToken != "" {
			r.With(authmw.BearerToken(a.reloadToken)).Post("/reload", a.handleReload)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

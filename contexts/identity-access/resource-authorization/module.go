package authorization

import (
	"log/slog"
	"time"

	httpadapter "aegis/contexts/identity-access/resource-authorization/adapters/http"
	"aegis/contexts/identity-access/resource-authorization/adapters/memory"
	"aegis/contexts/identity-access/resource-authorization/application/commands"
	"aegis/contexts/identity-access/resource-authorization/application/queries"
	"aegis/contexts/identity-access/resource-authorization/ports"
)

// Module is the resource-authorization composition root exposed to runtime
// wiring.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Grants         ports.GrantStore
	Catalog        ports.PolicyCatalog
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// NewModule wires use-cases and the transport handler using explicit ports.
func NewModule(deps Dependencies) Module {
	checkAccess := queries.CheckAccessUseCase{
		Grants:  deps.Grants,
		Catalog: deps.Catalog,
		Clock:   deps.Clock,
		Logger:  deps.Logger,
	}
	checkBatch := queries.CheckAccessBatchUseCase{
		CheckAccess: checkAccess,
		Logger:      deps.Logger,
	}
	listGrants := queries.ListGrantsUseCase{
		Grants: deps.Grants,
		Logger: deps.Logger,
	}
	listPolicies := queries.ListPoliciesUseCase{
		Catalog: deps.Catalog,
		Logger:  deps.Logger,
	}
	grantAccess := commands.GrantAccessUseCase{
		Grants:         deps.Grants,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	revokeGrant := commands.RevokeGrantUseCase{
		Grants:         deps.Grants,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	registerPolicy := commands.RegisterPolicyUseCase{
		Catalog:     deps.Catalog,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}

	handler := httpadapter.Handler{
		CheckAccess:      checkAccess,
		CheckAccessBatch: checkBatch,
		ListGrants:       listGrants,
		ListPolicies:     listPolicies,
		GrantAccess:      grantAccess,
		RevokeGrant:      revokeGrant,
		RegisterPolicy:   registerPolicy,
		Logger:           deps.Logger,
	}

	return Module{
		Handler: handler,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters seeded with the default resource catalog.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Grants:         store,
		Catalog:        store,
		Idempotency:    store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}

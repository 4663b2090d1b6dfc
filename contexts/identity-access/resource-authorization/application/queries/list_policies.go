package queries

import (
	"context"
	"log/slog"

	application "aegis/contexts/identity-access/resource-authorization/application"
	"aegis/contexts/identity-access/resource-authorization/domain/entities"
	"aegis/contexts/identity-access/resource-authorization/ports"
)

// ListPoliciesUseCase returns every registered catalog entry.
type ListPoliciesUseCase struct {
	Catalog ports.PolicyCatalog
	Logger  *slog.Logger
}

func (u ListPoliciesUseCase) Execute(ctx context.Context) ([]entities.PolicyEntry, error) {
	logger := application.ResolveLogger(u.Logger)

	policies, err := u.Catalog.ListPolicies(ctx)
	if err != nil {
		logger.Error("list policies failed",
			"event", "authz_list_policies_failed",
			"module", "identity-access/resource-authorization",
			"layer", "application",
			"error", err.Error(),
		)
		return nil, err
	}
	return policies, nil
}

package queries

import (
	"context"
	"log/slog"
	"strings"

	application "aegis/contexts/identity-access/resource-authorization/application"
	"aegis/contexts/identity-access/resource-authorization/domain/entities"
	domainerrors "aegis/contexts/identity-access/resource-authorization/domain/errors"
	"aegis/contexts/identity-access/resource-authorization/ports"
)

// ListGrantsQuery narrows the grant listing for one user. Resource fields
// are optional filters; revoked grants are included so history stays
// auditable.
type ListGrantsQuery struct {
	UserID       string
	ResourceType string
	ResourceName string
}

// ListGrantsUseCase returns grant history ordered newest first.
type ListGrantsUseCase struct {
	Grants ports.GrantStore
	Logger *slog.Logger
}

func (u ListGrantsUseCase) Execute(ctx context.Context, query ListGrantsQuery) ([]entities.GrantRecord, error) {
	if strings.TrimSpace(query.UserID) == "" {
		return nil, domainerrors.ErrInvalidUserID
	}

	logger := application.ResolveLogger(u.Logger)
	logger.Debug("list grants started",
		"event", "authz_list_grants_started",
		"module", "identity-access/resource-authorization",
		"layer", "application",
		"user_id", query.UserID,
	)

	grants, err := u.Grants.ListGrants(ctx, query.UserID, ports.GrantFilter{
		Resource: entities.Resource{
			ResourceType: query.ResourceType,
			ResourceName: query.ResourceName,
		},
		IncludeRevoked: true,
	})
	if err != nil {
		logger.Error("list grants failed",
			"event", "authz_list_grants_failed",
			"module", "identity-access/resource-authorization",
			"layer", "application",
			"user_id", query.UserID,
			"error", err.Error(),
		)
		return nil, err
	}
	return grants, nil
}

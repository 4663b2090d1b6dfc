package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "aegis/contexts/identity-access/resource-authorization/application"
	"aegis/contexts/identity-access/resource-authorization/domain/entities"
	domainerrors "aegis/contexts/identity-access/resource-authorization/domain/errors"
	"aegis/contexts/identity-access/resource-authorization/ports"
)

// RegisterPolicyCommand upserts the default access rule for a resource.
type RegisterPolicyCommand struct {
	Resource             entities.Resource
	RequiredSubscription entities.SubscriptionTier
	AccessLevel          entities.AccessLevel
	Description          string
}

// RegisterPolicyUseCase performs the idempotent catalog upsert. Calling it
// twice with identical input leaves lookup results unchanged; a later call
// with the same resource wins.
type RegisterPolicyUseCase struct {
	Catalog     ports.PolicyCatalog
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u RegisterPolicyUseCase) Execute(ctx context.Context, cmd RegisterPolicyCommand) (entities.PolicyEntry, error) {
	if strings.TrimSpace(cmd.Resource.ResourceType) == "" {
		return entities.PolicyEntry{}, domainerrors.ErrInvalidResourceType
	}
	if strings.TrimSpace(cmd.Resource.ResourceName) == "" {
		return entities.PolicyEntry{}, domainerrors.ErrInvalidResourceName
	}
	if !cmd.RequiredSubscription.IsValid() {
		return entities.PolicyEntry{}, domainerrors.ErrInvalidSubscription
	}
	if !cmd.AccessLevel.IsValid() {
		return entities.PolicyEntry{}, domainerrors.ErrInvalidAccessLevel
	}

	logger := application.ResolveLogger(u.Logger)
	now := u.now()

	outboxID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.PolicyEntry{}, err
	}

	entry, err := u.Catalog.Register(ctx, entities.PolicyEntry{
		Resource:             cmd.Resource,
		RequiredSubscription: cmd.RequiredSubscription,
		AccessLevel:          cmd.AccessLevel,
		Description:          cmd.Description,
		UpdatedAt:            now,
	}, outboxID)
	if err != nil {
		logger.Error("register policy failed",
			"event", "authz_register_policy_failed",
			"module", "identity-access/resource-authorization",
			"layer", "application",
			"resource", cmd.Resource.Key(),
			"error", err.Error(),
		)
		return entities.PolicyEntry{}, err
	}

	logger.Info("register policy completed",
		"event", "authz_register_policy_completed",
		"module", "identity-access/resource-authorization",
		"layer", "application",
		"resource", entry.Resource.Key(),
		"required_subscription", string(entry.RequiredSubscription),
		"access_level", string(entry.AccessLevel),
	)
	return entry, nil
}

func (u RegisterPolicyUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

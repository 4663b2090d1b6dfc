package queries

import (
	"context"
	"log/slog"

	application "aegis/contexts/identity-access/resource-authorization/application"
	"aegis/contexts/identity-access/resource-authorization/domain/entities"
)

// CheckAccessBatchQuery evaluates several requirements for one user.
type CheckAccessBatchQuery struct {
	UserID           string
	SubscriptionTier entities.SubscriptionTier
	Requirements     []AccessRequirement
}

// AccessRequirement is one resource/level pair inside a batch check.
type AccessRequirement struct {
	Resource      entities.Resource
	RequiredLevel entities.AccessLevel
}

// CheckAccessBatchUseCase fans a batch query out to single evaluations.
type CheckAccessBatchUseCase struct {
	CheckAccess CheckAccessUseCase
	Logger      *slog.Logger
}

// Execute evaluates each requirement independently; the first invalid
// input fails the whole batch before any decision is returned.
func (u CheckAccessBatchUseCase) Execute(ctx context.Context, query CheckAccessBatchQuery) ([]entities.AccessDecision, error) {
	logger := application.ResolveLogger(u.Logger)
	logger.Debug("check access batch started",
		"event", "authz_check_batch_started",
		"module", "identity-access/resource-authorization",
		"layer", "application",
		"user_id", query.UserID,
		"requirement_count", len(query.Requirements),
	)

	decisions := make([]entities.AccessDecision, 0, len(query.Requirements))
	for _, requirement := range query.Requirements {
		decision, err := u.CheckAccess.Execute(ctx, CheckAccessQuery{
			UserID:           query.UserID,
			Resource:         requirement.Resource,
			RequiredLevel:    requirement.RequiredLevel,
			SubscriptionTier: query.SubscriptionTier,
		})
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}
	return decisions, nil
}

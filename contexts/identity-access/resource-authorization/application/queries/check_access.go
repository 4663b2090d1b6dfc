package queries

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

// CheckAccessQuery is the request model for one access evaluation.
type CheckAccessQuery struct {
	UserID           string
	Resource         entities.Resource
	RequiredLevel    entities.AccessLevel
	SubscriptionTier entities.SubscriptionTier
}

// CheckAccessUseCase decides grant/deny by combining explicit grants,
// default policy, and subscription tier.
type CheckAccessUseCase struct {
	Grants  ports.GrantStore
	Catalog ports.PolicyCatalog
	Clock   ports.Clock
	Logger  *slog.Logger
}

// Execute evaluates the rules in priority order; the first matching rule
// wins. A denial is a valid decision, never an error. Grant state is read
// fresh from the store on every call.
func (u CheckAccessUseCase) Execute(ctx context.Context, query CheckAccessQuery) (entities.AccessDecision, error) {
	if strings.TrimSpace(query.UserID) == "" {
		return entities.AccessDecision{}, domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(query.Resource.ResourceType) == "" {
		return entities.AccessDecision{}, domainerrors.ErrInvalidResourceType
	}
	if strings.TrimSpace(query.Resource.ResourceName) == "" {
		return entities.AccessDecision{}, domainerrors.ErrInvalidResourceName
	}
	if !query.RequiredLevel.IsValid() {
		return entities.AccessDecision{}, domainerrors.ErrInvalidAccessLevel
	}
	if query.SubscriptionTier != "" && !query.SubscriptionTier.IsValid() {
		return entities.AccessDecision{}, domainerrors.ErrInvalidSubscription
	}

	logger := application.ResolveLogger(u.Logger)
	now := u.now()
	logger.Debug("check access started",
		"event", "authz_check_started",
		"module", "identity-access/resource-authorization",
		"layer", "application",
		"user_id", query.UserID,
		"resource", query.Resource.Key(),
		"required_access_level", string(query.RequiredLevel),
	)

	decision := entities.AccessDecision{
		UserID:        query.UserID,
		Resource:      query.Resource,
		RequiredLevel: query.RequiredLevel,
		CheckedAt:     now,
	}

	grants, err := u.Grants.ListGrants(ctx, query.UserID, ports.GrantFilter{Resource: query.Resource})
	if err != nil {
		logger.Error("grant lookup failed",
			"event", "authz_grant_lookup_failed",
			"module", "identity-access/resource-authorization",
			"layer", "application",
			"user_id", query.UserID,
			"resource", query.Resource.Key(),
			"error", err.Error(),
		)
		return entities.AccessDecision{}, err
	}
	for _, grant := range grants {
		if grant.IsRevoked() {
			continue
		}
		if grant.AccessLevel.Satisfies(query.RequiredLevel) {
			decision.HasAccess = true
			decision.Reason = entities.ReasonExplicitGrant
			logger.Debug("check access allowed by explicit grant",
				"event", "authz_check_allowed",
				"module", "identity-access/resource-authorization",
				"layer", "application",
				"user_id", query.UserID,
				"resource", query.Resource.Key(),
				"grant_id", grant.GrantID,
			)
			return decision, nil
		}
	}

	policy, found, err := u.Catalog.Lookup(ctx, query.Resource)
	if err != nil {
		logger.Error("policy lookup failed",
			"event", "authz_policy_lookup_failed",
			"module", "identity-access/resource-authorization",
			"layer", "application",
			"user_id", query.UserID,
			"resource", query.Resource.Key(),
			"error", err.Error(),
		)
		return entities.AccessDecision{}, err
	}
	if !found {
		decision.Reason = entities.ReasonNoPolicyDefined
		logger.Warn("check access denied, no policy defined",
			"event", "authz_check_denied",
			"module", "identity-access/resource-authorization",
			"layer", "application",
			"user_id", query.UserID,
			"resource", query.Resource.Key(),
			"reason", decision.Reason,
		)
		return decision, nil
	}

	if query.SubscriptionTier.Meets(policy.RequiredSubscription) &&
		policy.AccessLevel.Satisfies(query.RequiredLevel) {
		decision.HasAccess = true
		decision.Reason = entities.ReasonSubscriptionDefault
		logger.Debug("check access allowed by subscription default",
			"event", "authz_check_allowed",
			"module", "identity-access/resource-authorization",
			"layer", "application",
			"user_id", query.UserID,
			"resource", query.Resource.Key(),
			"subscription_tier", string(query.SubscriptionTier),
		)
		return decision, nil
	}

	decision.Reason = entities.ReasonInsufficientAccess
	logger.Warn("check access denied",
		"event", "authz_check_denied",
		"module", "identity-access/resource-authorization",
		"layer", "application",
		"user_id", query.UserID,
		"resource", query.Resource.Key(),
		"subscription_tier", string(query.SubscriptionTier),
		"reason", decision.Reason,
	)
	return decision, nil
}

func (u CheckAccessUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

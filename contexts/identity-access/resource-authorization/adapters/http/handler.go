package httpadapter

import (
	"context"
	"log/slog"

	application "aegis/contexts/identity-access/resource-authorization/application"
	"aegis/contexts/identity-access/resource-authorization/application/commands"
	"aegis/contexts/identity-access/resource-authorization/application/queries"
	"aegis/contexts/identity-access/resource-authorization/domain/entities"
	httptransport "aegis/contexts/identity-access/resource-authorization/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries. It carries no
// business logic beyond input shaping and serialization.
type Handler struct {
	CheckAccess      queries.CheckAccessUseCase
	CheckAccessBatch queries.CheckAccessBatchUseCase
	ListGrants       queries.ListGrantsUseCase
	ListPolicies     queries.ListPoliciesUseCase
	GrantAccess      commands.GrantAccessUseCase
	RevokeGrant      commands.RevokeGrantUseCase
	RegisterPolicy   commands.RegisterPolicyUseCase
	Logger           *slog.Logger
}

// CheckAccessHandler evaluates one access requirement for one user.
func (h Handler) CheckAccessHandler(
	ctx context.Context,
	request httptransport.CheckAccessRequest,
) (httptransport.CheckAccessResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http check access received",
		"event", "authz_http_check_received",
		"module", "identity-access/resource-authorization",
		"layer", "transport",
		"user_id", request.UserID,
		"resource_type", request.ResourceType,
		"resource_name", request.ResourceName,
	)

	decision, err := h.CheckAccess.Execute(ctx, queries.CheckAccessQuery{
		UserID: request.UserID,
		Resource: entities.Resource{
			ResourceType: request.ResourceType,
			ResourceName: request.ResourceName,
		},
		RequiredLevel:    entities.AccessLevel(request.RequiredAccessLevel),
		SubscriptionTier: entities.SubscriptionTier(request.SubscriptionTier),
	})
	if err != nil {
		logger.Error("http check access failed",
			"event", "authz_http_check_failed",
			"module", "identity-access/resource-authorization",
			"layer", "transport",
			"user_id", request.UserID,
			"resource_type", request.ResourceType,
			"resource_name", request.ResourceName,
			"error", err.Error(),
		)
		return httptransport.CheckAccessResponse{}, err
	}
	return decisionToDTO(decision), nil
}

// CheckAccessBatchHandler evaluates multiple requirements in one request.
func (h Handler) CheckAccessBatchHandler(
	ctx context.Context,
	request httptransport.CheckAccessBatchRequest,
) (httptransport.CheckAccessBatchResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http check access batch received",
		"event", "authz_http_check_batch_received",
		"module", "identity-access/resource-authorization",
		"layer", "transport",
		"user_id", request.UserID,
		"check_count", len(request.Checks),
	)

	requirements := make([]queries.AccessRequirement, 0, len(request.Checks))
	for _, check := range request.Checks {
		requirements = append(requirements, queries.AccessRequirement{
			Resource: entities.Resource{
				ResourceType: check.ResourceType,
				ResourceName: check.ResourceName,
			},
			RequiredLevel: entities.AccessLevel(check.RequiredAccessLevel),
		})
	}

	decisions, err := h.CheckAccessBatch.Execute(ctx, queries.CheckAccessBatchQuery{
		UserID:           request.UserID,
		SubscriptionTier: entities.SubscriptionTier(request.SubscriptionTier),
		Requirements:     requirements,
	})
	if err != nil {
		logger.Error("http check access batch failed",
			"event", "authz_http_check_batch_failed",
			"module", "identity-access/resource-authorization",
			"layer", "transport",
			"user_id", request.UserID,
			"check_count", len(request.Checks),
			"error", err.Error(),
		)
		return httptransport.CheckAccessBatchResponse{}, err
	}

	items := make([]httptransport.CheckAccessResponse, 0, len(decisions))
	for _, decision := range decisions {
		items = append(items, decisionToDTO(decision))
	}
	return httptransport.CheckAccessBatchResponse{Results: items}, nil
}

// GrantAccessHandler creates an explicit grant and returns the stored record.
func (h Handler) GrantAccessHandler(
	ctx context.Context,
	idempotencyKey string,
	request httptransport.GrantRequest,
) (httptransport.GrantResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http grant received",
		"event", "authz_http_grant_received",
		"module", "identity-access/resource-authorization",
		"layer", "transport",
		"user_id", request.UserID,
		"resource_type", request.ResourceType,
		"resource_name", request.ResourceName,
	)

	result, err := h.GrantAccess.Execute(ctx, commands.GrantAccessCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         request.UserID,
		Resource: entities.Resource{
			ResourceType: request.ResourceType,
			ResourceName: request.ResourceName,
		},
		AccessLevel:      entities.AccessLevel(request.AccessLevel),
		PermissionSource: request.PermissionSource,
		GrantedBy:        request.GrantedBy,
		Reason:           request.Reason,
	})
	if err != nil {
		logger.Error("http grant failed",
			"event", "authz_http_grant_failed",
			"module", "identity-access/resource-authorization",
			"layer", "transport",
			"user_id", request.UserID,
			"resource_type", request.ResourceType,
			"resource_name", request.ResourceName,
			"error", err.Error(),
		)
		return httptransport.GrantResponse{}, err
	}

	grant := result.Grant
	return httptransport.GrantResponse{
		GrantID:          grant.GrantID,
		UserID:           grant.UserID,
		ResourceType:     grant.Resource.ResourceType,
		ResourceName:     grant.Resource.ResourceName,
		AccessLevel:      string(grant.AccessLevel),
		PermissionSource: grant.PermissionSource,
		GrantedBy:        grant.GrantedBy,
		Reason:           grant.Reason,
		GrantedAt:        grant.GrantedAt,
		RevokedAt:        grant.RevokedAt,
		Replayed:         result.Replayed,
	}, nil
}

// RevokeGrantHandler tombstones one grant by id.
func (h Handler) RevokeGrantHandler(
	ctx context.Context,
	idempotencyKey string,
	request httptransport.RevokeRequest,
) (httptransport.RevokeResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http revoke received",
		"event", "authz_http_revoke_received",
		"module", "identity-access/resource-authorization",
		"layer", "transport",
		"grant_id", request.GrantID,
	)

	result, err := h.RevokeGrant.Execute(ctx, commands.RevokeGrantCommand{
		IdempotencyKey: idempotencyKey,
		GrantID:        request.GrantID,
		RevokedBy:      request.RevokedBy,
		Reason:         request.Reason,
	})
	if err != nil {
		logger.Error("http revoke failed",
			"event", "authz_http_revoke_failed",
			"module", "identity-access/resource-authorization",
			"layer", "transport",
			"grant_id", request.GrantID,
			"error", err.Error(),
		)
		return httptransport.RevokeResponse{}, err
	}
	return httptransport.RevokeResponse{
		GrantID:   result.Grant.GrantID,
		UserID:    result.Grant.UserID,
		RevokedAt: result.Grant.RevokedAt,
		Replayed:  result.Replayed,
	}, nil
}

// ListGrantsHandler returns grant history for a user, newest first.
func (h Handler) ListGrantsHandler(
	ctx context.Context,
	userID string,
	resourceType string,
	resourceName string,
) (httptransport.ListGrantsResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http list grants received",
		"event", "authz_http_list_grants_received",
		"module", "identity-access/resource-authorization",
		"layer", "transport",
		"user_id", userID,
	)

	grants, err := h.ListGrants.Execute(ctx, queries.ListGrantsQuery{
		UserID:       userID,
		ResourceType: resourceType,
		ResourceName: resourceName,
	})
	if err != nil {
		logger.Error("http list grants failed",
			"event", "authz_http_list_grants_failed",
			"module", "identity-access/resource-authorization",
			"layer", "transport",
			"user_id", userID,
			"error", err.Error(),
		)
		return httptransport.ListGrantsResponse{}, err
	}

	items := make([]httptransport.GrantDTO, 0, len(grants))
	for _, grant := range grants {
		items = append(items, httptransport.GrantDTO{
			GrantID:          grant.GrantID,
			UserID:           grant.UserID,
			ResourceType:     grant.Resource.ResourceType,
			ResourceName:     grant.Resource.ResourceName,
			AccessLevel:      string(grant.AccessLevel),
			PermissionSource: grant.PermissionSource,
			GrantedBy:        grant.GrantedBy,
			Reason:           grant.Reason,
			GrantedAt:        grant.GrantedAt,
			RevokedAt:        grant.RevokedAt,
		})
	}
	return httptransport.ListGrantsResponse{
		UserID: userID,
		Grants: items,
	}, nil
}

// RegisterPolicyHandler upserts a catalog entry for a resource.
func (h Handler) RegisterPolicyHandler(
	ctx context.Context,
	request httptransport.RegisterPolicyRequest,
) (httptransport.PolicyDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http register policy received",
		"event", "authz_http_register_policy_received",
		"module", "identity-access/resource-authorization",
		"layer", "transport",
		"resource_type", request.ResourceType,
		"resource_name", request.ResourceName,
	)

	entry, err := h.RegisterPolicy.Execute(ctx, commands.RegisterPolicyCommand{
		Resource: entities.Resource{
			ResourceType: request.ResourceType,
			ResourceName: request.ResourceName,
		},
		RequiredSubscription: entities.SubscriptionTier(request.RequiredSubscription),
		AccessLevel:          entities.AccessLevel(request.AccessLevel),
		Description:          request.Description,
	})
	if err != nil {
		logger.Error("http register policy failed",
			"event", "authz_http_register_policy_failed",
			"module", "identity-access/resource-authorization",
			"layer", "transport",
			"resource_type", request.ResourceType,
			"resource_name", request.ResourceName,
			"error", err.Error(),
		)
		return httptransport.PolicyDTO{}, err
	}
	return policyToDTO(entry), nil
}

// ListPoliciesHandler returns every registered catalog entry.
func (h Handler) ListPoliciesHandler(ctx context.Context) (httptransport.ListPoliciesResponse, error) {
	policies, err := h.ListPolicies.Execute(ctx)
	if err != nil {
		return httptransport.ListPoliciesResponse{}, err
	}
	items := make([]httptransport.PolicyDTO, 0, len(policies))
	for _, entry := range policies {
		items = append(items, policyToDTO(entry))
	}
	return httptransport.ListPoliciesResponse{Policies: items}, nil
}

func decisionToDTO(decision entities.AccessDecision) httptransport.CheckAccessResponse {
	return httptransport.CheckAccessResponse{
		UserID:              decision.UserID,
		ResourceType:        decision.Resource.ResourceType,
		ResourceName:        decision.Resource.ResourceName,
		RequiredAccessLevel: string(decision.RequiredLevel),
		HasAccess:           decision.HasAccess,
		Reason:              decision.Reason,
		CheckedAt:           decision.CheckedAt,
	}
}

func policyToDTO(entry entities.PolicyEntry) httptransport.PolicyDTO {
	return httptransport.PolicyDTO{
		ResourceType:         entry.Resource.ResourceType,
		ResourceName:         entry.Resource.ResourceName,
		RequiredSubscription: string(entry.RequiredSubscription),
		AccessLevel:          string(entry.AccessLevel),
		Description:          entry.Description,
		UpdatedAt:            entry.UpdatedAt,
	}
}

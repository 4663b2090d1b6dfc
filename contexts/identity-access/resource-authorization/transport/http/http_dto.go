package httptransport

import "time"

// GrantRequest is the body for POST /api/v1/authorization/grant.
type GrantRequest struct {
	UserID           string `json:"user_id"`
	ResourceType     string `json:"resource_type"`
	ResourceName     string `json:"resource_name"`
	AccessLevel      string `json:"access_level"`
	PermissionSource string `json:"permission_source,omitempty"`
	GrantedBy        string `json:"granted_by,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// GrantResponse echoes the created record.
type GrantResponse struct {
	GrantID          string     `json:"grant_id"`
	UserID           string     `json:"user_id"`
	ResourceType     string     `json:"resource_type"`
	ResourceName     string     `json:"resource_name"`
	AccessLevel      string     `json:"access_level"`
	PermissionSource string     `json:"permission_source"`
	GrantedBy        string     `json:"granted_by"`
	Reason           string     `json:"reason"`
	GrantedAt        time.Time  `json:"granted_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	Replayed         bool       `json:"replayed,omitempty"`
}

// RevokeRequest targets one grant id for tombstoning.
type RevokeRequest struct {
	GrantID   string `json:"grant_id"`
	RevokedBy string `json:"revoked_by,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// RevokeResponse echoes the tombstoned record.
type RevokeResponse struct {
	GrantID   string     `json:"grant_id"`
	UserID    string     `json:"user_id"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	Replayed  bool       `json:"replayed,omitempty"`
}

// CheckAccessRequest is the body for POST /api/v1/authorization/check-access.
type CheckAccessRequest struct {
	UserID              string `json:"user_id"`
	ResourceType        string `json:"resource_type"`
	ResourceName        string `json:"resource_name"`
	RequiredAccessLevel string `json:"required_access_level"`
	SubscriptionTier    string `json:"subscription_tier,omitempty"`
}

// CheckAccessResponse carries the boolean decision plus reason code.
type CheckAccessResponse struct {
	UserID              string    `json:"user_id"`
	ResourceType        string    `json:"resource_type"`
	ResourceName        string    `json:"resource_name"`
	RequiredAccessLevel string    `json:"required_access_level"`
	HasAccess           bool      `json:"has_access"`
	Reason              string    `json:"reason"`
	CheckedAt           time.Time `json:"checked_at"`
}

// CheckAccessBatchRequest evaluates several requirements for one user.
type CheckAccessBatchRequest struct {
	UserID           string                 `json:"user_id"`
	SubscriptionTier string                 `json:"subscription_tier,omitempty"`
	Checks           []AccessRequirementDTO `json:"checks"`
}

// AccessRequirementDTO is one resource/level pair inside a batch check.
type AccessRequirementDTO struct {
	ResourceType        string `json:"resource_type"`
	ResourceName        string `json:"resource_name"`
	RequiredAccessLevel string `json:"required_access_level"`
}

type CheckAccessBatchResponse struct {
	Results []CheckAccessResponse `json:"results"`
}

type GrantDTO struct {
	GrantID          string     `json:"grant_id"`
	UserID           string     `json:"user_id"`
	ResourceType     string     `json:"resource_type"`
	ResourceName     string     `json:"resource_name"`
	AccessLevel      string     `json:"access_level"`
	PermissionSource string     `json:"permission_source"`
	GrantedBy        string     `json:"granted_by"`
	Reason           string     `json:"reason"`
	GrantedAt        time.Time  `json:"granted_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
}

type ListGrantsResponse struct {
	UserID string     `json:"user_id"`
	Grants []GrantDTO `json:"grants"`
}

// RegisterPolicyRequest is the body for POST /api/v1/authorization/resource-configs.
type RegisterPolicyRequest struct {
	ResourceType         string `json:"resource_type"`
	ResourceName         string `json:"resource_name"`
	RequiredSubscription string `json:"required_subscription"`
	AccessLevel          string `json:"access_level"`
	Description          string `json:"description,omitempty"`
}

type PolicyDTO struct {
	ResourceType         string    `json:"resource_type"`
	ResourceName         string    `json:"resource_name"`
	RequiredSubscription string    `json:"required_subscription"`
	AccessLevel          string    `json:"access_level"`
	Description          string    `json:"description"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type ListPoliciesResponse struct {
	Policies []PolicyDTO `json:"policies"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

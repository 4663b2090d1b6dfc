package entities

import "time"

// Decision reasons surfaced on the check-access wire contract.
const (
	ReasonExplicitGrant       = "explicit_grant"
	ReasonNoPolicyDefined     = "no_policy_defined"
	ReasonSubscriptionDefault = "subscription_default"
	ReasonInsufficientAccess  = "insufficient_subscription_or_access_level"
)

// AccessDecision is returned by check-access evaluation. A denial is a
// valid result, not an error.
type AccessDecision struct {
	UserID        string      `json:"user_id"`
	Resource      Resource    `json:"resource"`
	RequiredLevel AccessLevel `json:"required_access_level"`
	HasAccess     bool        `json:"has_access"`
	Reason        string      `json:"reason"`
	CheckedAt     time.Time   `json:"checked_at"`
}

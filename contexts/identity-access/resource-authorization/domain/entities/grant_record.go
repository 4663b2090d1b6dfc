package entities

import "time"

// Permission sources recorded on grants.
const (
	SourceAdminGrant          = "admin_grant"
	SourceSubscriptionDefault = "subscription_default"
)

// GrantRecord is an explicit user-specific permission. Records are
// append-only; revocation marks a tombstone instead of deleting history.
type GrantRecord struct {
	GrantID          string      `json:"grant_id"`
	UserID           string      `json:"user_id"`
	Resource         Resource    `json:"resource"`
	AccessLevel      AccessLevel `json:"access_level"`
	PermissionSource string      `json:"permission_source"`
	GrantedBy        string      `json:"granted_by"`
	Reason           string      `json:"reason"`
	GrantedAt        time.Time   `json:"granted_at"`
	RevokedAt        *time.Time  `json:"revoked_at,omitempty"`
}

// IsRevoked reports whether the grant carries a revocation tombstone.
func (g GrantRecord) IsRevoked() bool {
	return g.RevokedAt != nil
}

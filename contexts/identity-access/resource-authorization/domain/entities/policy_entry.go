package entities

import "time"

// PolicyEntry is a default access rule for one resource, tied to the
// subscription tier required to use it. Exactly one entry is active per
// resource; re-registration is last-write-wins.
type PolicyEntry struct {
	Resource             Resource         `json:"resource"`
	RequiredSubscription SubscriptionTier `json:"required_subscription"`
	AccessLevel          AccessLevel      `json:"access_level"`
	Description          string           `json:"description"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

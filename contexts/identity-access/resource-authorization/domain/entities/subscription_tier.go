package entities

// SubscriptionTier is an ordered account class gating default policy
// eligibility. Ordering defines the meets-or-exceeds relation used by
// subscription defaults.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

var subscriptionTierRank = map[SubscriptionTier]int{
	TierFree:       1,
	TierPro:        2,
	TierEnterprise: 3,
}

// IsValid reports whether the tier is a known enum member.
func (t SubscriptionTier) IsValid() bool {
	_, ok := subscriptionTierRank[t]
	return ok
}

// Meets reports whether tier t meets or exceeds required.
func (t SubscriptionTier) Meets(required SubscriptionTier) bool {
	return subscriptionTierRank[t] >= subscriptionTierRank[required]
}

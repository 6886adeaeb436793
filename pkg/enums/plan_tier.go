package enums

import "fmt"

// PlanTier identifies a vendor subscription plan.
type PlanTier string

const (
	PlanTierFree         PlanTier = "free"
	PlanTierProfessional PlanTier = "professional"
	PlanTierPremium      PlanTier = "premium"
)

var validPlanTiers = []PlanTier{
	PlanTierFree,
	PlanTierProfessional,
	PlanTierPremium,
}

// String implements fmt.Stringer.
func (p PlanTier) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlanTier.
func (p PlanTier) IsValid() bool {
	for _, candidate := range validPlanTiers {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsPaid reports whether the tier is a paying plan.
func (p PlanTier) IsPaid() bool {
	return p == PlanTierProfessional || p == PlanTierPremium
}

// ParsePlanTier converts raw input into a PlanTier.
func ParsePlanTier(value string) (PlanTier, error) {
	for _, candidate := range validPlanTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan tier %q", value)
}

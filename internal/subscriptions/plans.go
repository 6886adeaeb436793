package subscriptions

import (
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	"github.com/sorbetero/sorbetero-backend/pkg/types"
)

// PlanLimits is the allowance set a tier grants.
type PlanLimits struct {
	Flavors types.Limit
	Drums   types.Limit
	Orders  types.Limit
}

// Free-plan constants. Hardcoded on purpose, not configuration.
const (
	FreeFlavorLimit = 5
	FreeDrumLimit   = 5
	FreeOrderLimit  = 30
)

// PaidPlanDurationDays is how long a paid subscription runs after confirmation.
const PaidPlanDurationDays = 30

var planCatalog = map[enums.PlanTier]PlanLimits{
	enums.PlanTierFree: {
		Flavors: types.LimitOf(FreeFlavorLimit),
		Drums:   types.LimitOf(FreeDrumLimit),
		Orders:  types.LimitOf(FreeOrderLimit),
	},
	enums.PlanTierProfessional: {
		Flavors: types.LimitOf(15),
		Drums:   types.LimitOf(15),
		Orders:  types.LimitOf(200),
	},
	enums.PlanTierPremium: {
		Flavors: types.Unlimited(),
		Drums:   types.Unlimited(),
		Orders:  types.Unlimited(),
	},
}

// LimitsForTier returns the allowances a tier grants. Unknown tiers get the
// free allowances so a bad row can never widen access.
func LimitsForTier(tier enums.PlanTier) PlanLimits {
	if limits, ok := planCatalog[tier]; ok {
		return limits
	}
	return planCatalog[enums.PlanTierFree]
}

package controllers

import (
	"net/http"
	"time"

	"github.com/sorbetero/sorbetero-backend/api/responses"
	"github.com/sorbetero/sorbetero-backend/api/validators"
	subsvc "github.com/sorbetero/sorbetero-backend/internal/subscriptions"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
)

type subscriptionUpgradeRequest struct {
	Tier string `json:"tier" validate:"required,oneof=professional premium"`
}

type subscriptionLimitsResponse struct {
	Flavors int `json:"flavors"`
	Drums   int `json:"drums"`
	Orders  int `json:"orders"`
}

type subscriptionUsageResponse struct {
	PublishedFlavors int `json:"published_flavors"`
	DrumStock        int `json:"drum_stock"`
	OrdersThisMonth  int `json:"orders_this_month"`
}

// subscriptionStatusResponse reports limits in their stored encoding, where
// -1 means unlimited.
type subscriptionStatusResponse struct {
	VendorID   uint                       `json:"vendor_id"`
	Plan       string                     `json:"plan"`
	StartDate  *time.Time                 `json:"start_date,omitempty"`
	EndDate    *time.Time                 `json:"end_date,omitempty"`
	Limits     subscriptionLimitsResponse `json:"limits"`
	Usage      subscriptionUsageResponse  `json:"usage"`
	Downgraded bool                       `json:"downgraded,omitempty"`
}

func newSubscriptionStatusResponse(status *subsvc.Status) subscriptionStatusResponse {
	return subscriptionStatusResponse{
		VendorID:  status.Context.VendorID,
		Plan:      string(status.Context.Plan),
		StartDate: status.Context.StartDate,
		EndDate:   status.Context.EndDate,
		Limits: subscriptionLimitsResponse{
			Flavors: status.Context.Flavors.Encode(),
			Drums:   status.Context.Drums.Encode(),
			Orders:  status.Context.Orders.Encode(),
		},
		Usage: subscriptionUsageResponse{
			PublishedFlavors: status.Usage.PublishedFlavors,
			DrumStock:        status.Usage.DrumStock,
			OrdersThisMonth:  status.Usage.OrdersThisMonth,
		},
		Downgraded: status.Context.Downgraded,
	}
}

func SubscriptionStatus(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		vendorID, err := requireVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Status(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSubscriptionStatusResponse(status))
	}
}

// SubscriptionUpgrade confirms a paid-tier purchase: it sets the new plan
// and limits and unlocks flavors a previous downgrade had locked.
func SubscriptionUpgrade(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		vendorID, err := requireVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload subscriptionUpgradeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := enums.ParsePlanTier(payload.Tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan tier").WithDetails(map[string]any{"field": "tier"}))
			return
		}

		vendor, err := svc.Upgrade(r.Context(), vendorID, tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"vendor_id":  vendor.ID,
			"plan":       string(vendor.SubscriptionPlan),
			"start_date": vendor.SubscriptionStartDate,
			"end_date":   vendor.SubscriptionEndDate,
			"limits": subscriptionLimitsResponse{
				Flavors: vendor.FlavorLimit,
				Drums:   vendor.DrumLimit,
				Orders:  vendor.OrderLimit,
			},
		})
	}
}

// AdminSweepExpired triggers the same downgrade pass the nightly job runs.
func AdminSweepExpired(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		summary, err := svc.SweepExpired(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"checked":    summary.Checked,
			"downgraded": summary.Downgraded,
		})
	}
}

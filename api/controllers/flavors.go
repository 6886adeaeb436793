package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sorbetero/sorbetero-backend/api/responses"
	"github.com/sorbetero/sorbetero-backend/api/validators"
	"github.com/sorbetero/sorbetero-backend/internal/flavors"
	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
)

type flavorCreateRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description *string         `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price" validate:"required"`
}

type flavorResponse struct {
	ID                   uint            `json:"id"`
	Name                 string          `json:"name"`
	Description          *string         `json:"description,omitempty"`
	BasePrice            decimal.Decimal `json:"base_price"`
	StoreStatus          string          `json:"store_status"`
	LockedBySubscription bool            `json:"locked_by_subscription"`
	CreatedAt            time.Time       `json:"created_at"`
}

func newFlavorResponse(flavor *models.Flavor) flavorResponse {
	return flavorResponse{
		ID:                   flavor.ID,
		Name:                 flavor.Name,
		Description:          flavor.Description,
		BasePrice:            flavor.BasePrice,
		StoreStatus:          string(flavor.StoreStatus),
		LockedBySubscription: flavor.LockedBySubscription,
		CreatedAt:            flavor.CreatedAt,
	}
}

func FlavorCreate(svc flavors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavor service unavailable"))
			return
		}

		vendorID, err := requireVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload flavorCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flavor, err := svc.CreateFlavor(r.Context(), vendorID, flavors.CreateFlavorInput{
			Name:        payload.Name,
			Description: payload.Description,
			BasePrice:   payload.BasePrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newFlavorResponse(flavor))
	}
}

func FlavorList(svc flavors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavor service unavailable"))
			return
		}

		vendorID, err := requireVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListFlavors(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]flavorResponse, 0, len(list))
		for i := range list {
			out = append(out, newFlavorResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func FlavorPublish(svc flavors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavor service unavailable"))
			return
		}

		vendorID, err := requireVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flavorID, err := validators.ParseURLParamUint(r, "flavorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flavor, err := svc.Publish(r.Context(), vendorID, flavorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newFlavorResponse(flavor))
	}
}

func FlavorUnpublish(svc flavors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flavor service unavailable"))
			return
		}

		vendorID, err := requireVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flavorID, err := validators.ParseURLParamUint(r, "flavorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flavor, err := svc.Unpublish(r.Context(), vendorID, flavorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newFlavorResponse(flavor))
	}
}

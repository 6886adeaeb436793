package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sorbetero/sorbetero-backend/api/responses"
	"github.com/sorbetero/sorbetero-backend/api/validators"
	"github.com/sorbetero/sorbetero-backend/internal/drums"
	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
)

type drumSizeStockInput struct {
	Price   decimal.Decimal `json:"price" validate:"required"`
	Stock   int             `json:"stock" validate:"gte=0"`
	Gallons float64         `json:"gallons" validate:"gte=0"`
}

// drumStockUpdateRequest carries one entry per size the vendor wants to
// replace. The drum limit gate sums the stock fields before this handler
// runs.
type drumStockUpdateRequest struct {
	Small  *drumSizeStockInput `json:"small,omitempty"`
	Medium *drumSizeStockInput `json:"medium,omitempty"`
	Large  *drumSizeStockInput `json:"large,omitempty"`
}

type drumPricingResponse struct {
	DrumSize string          `json:"drum_size"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Gallons  float64         `json:"gallons"`
}

func newDrumPricingResponse(row *models.VendorDrumPricing) drumPricingResponse {
	return drumPricingResponse{
		DrumSize: string(row.DrumSize),
		Price:    row.Price,
		Stock:    row.Stock,
		Gallons:  row.Gallons,
	}
}

func DrumPricingList(svc drums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drum service unavailable"))
			return
		}

		vendorID, err := requireVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListPricing(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]drumPricingResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newDrumPricingResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func DrumStockUpdate(svc drums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drum service unavailable"))
			return
		}

		vendorID, err := requireVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload drumStockUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sizes := []struct {
			size  enums.DrumSize
			input *drumSizeStockInput
		}{
			{enums.DrumSizeSmall, payload.Small},
			{enums.DrumSizeMedium, payload.Medium},
			{enums.DrumSizeLarge, payload.Large},
		}

		updated := make([]drumPricingResponse, 0, len(sizes))
		for _, entry := range sizes {
			if entry.input == nil {
				continue
			}
			row, err := svc.UpdateStock(r.Context(), vendorID, entry.size, drums.UpdateStockInput{
				Price:   entry.input.Price,
				Stock:   entry.input.Stock,
				Gallons: entry.input.Gallons,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			updated = append(updated, newDrumPricingResponse(row))
		}

		if len(updated) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one drum size required"))
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

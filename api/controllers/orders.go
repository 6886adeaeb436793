package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sorbetero/sorbetero-backend/api/middleware"
	"github.com/sorbetero/sorbetero-backend/api/responses"
	"github.com/sorbetero/sorbetero-backend/api/validators"
	"github.com/sorbetero/sorbetero-backend/internal/orders"
	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
)

const deliveryDateLayout = "2006-01-02"

type orderCreateRequest struct {
	VendorID      uint            `json:"vendor_id" validate:"required"`
	CustomerName  string          `json:"customer_name" validate:"required,max=120"`
	CustomerPhone string          `json:"customer_phone" validate:"required,max=32"`
	DrumSize      string          `json:"drum_size" validate:"required"`
	FlavorID      *uint           `json:"flavor_id,omitempty"`
	DeliveryDate  string          `json:"delivery_date" validate:"required"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type orderResponse struct {
	ID            uint            `json:"id"`
	VendorID      uint            `json:"vendor_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	DrumSize      string          `json:"drum_size"`
	FlavorID      *uint           `json:"flavor_id,omitempty"`
	DeliveryDate  string          `json:"delivery_date"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	return orderResponse{
		ID:            order.ID,
		VendorID:      order.VendorID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		DrumSize:      string(order.DrumSize),
		FlavorID:      order.FlavorID,
		DeliveryDate:  order.DeliveryDate.Format(deliveryDateLayout),
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount,
		CreatedAt:     order.CreatedAt,
	}
}

// OrderCreate books an order for a vendor. The monthly order gate has
// already resolved the vendor and checked the allowance.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload orderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		size, err := enums.ParseDrumSize(payload.DrumSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid drum size").WithDetails(map[string]any{"field": "drum_size"}))
			return
		}

		deliveryDate, err := time.Parse(deliveryDateLayout, payload.DeliveryDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "delivery date must be YYYY-MM-DD").WithDetails(map[string]any{"field": "delivery_date"}))
			return
		}

		vendorID := middleware.VendorIDFromContext(r.Context())
		if vendorID == 0 {
			vendorID = payload.VendorID
		}

		order, err := svc.CreateOrder(r.Context(), vendorID, orders.CreateOrderInput{
			CustomerName:  payload.CustomerName,
			CustomerPhone: payload.CustomerPhone,
			DrumSize:      size,
			FlavorID:      payload.FlavorID,
			DeliveryDate:  deliveryDate,
			TotalAmount:   payload.TotalAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		vendorID, err := requireVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(list))
		for i := range list {
			out = append(out, newOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

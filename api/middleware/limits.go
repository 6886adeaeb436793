package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sorbetero/sorbetero-backend/api/responses"
	"github.com/sorbetero/sorbetero-backend/internal/subscriptions"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"github.com/sorbetero/sorbetero-backend/pkg/logger"
	"github.com/sorbetero/sorbetero-backend/pkg/types"
)

type subscriptionStatuser interface {
	Status(ctx context.Context, vendorID uint) (*subscriptions.Status, error)
}

// LimitGateParams configure the plan-limit middlewares.
type LimitGateParams struct {
	Subscriptions subscriptionStatuser
	Logger        *logger.Logger
}

// LimitGate builds the three plan-limit middlewares. Every gated request
// resolves the vendor's subscription status first, so an expired plan is
// downgraded at the moment of use and the gate compares against the
// post-downgrade limits.
type LimitGate struct {
	subs subscriptionStatuser
	logg *logger.Logger
}

// NewLimitGate validates dependencies and builds the gate.
func NewLimitGate(params LimitGateParams) (*LimitGate, error) {
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions service required")
	}
	return &LimitGate{subs: params.Subscriptions, logg: params.Logger}, nil
}

// FlavorLimit rejects the request when the vendor already has as many
// published flavors as the plan allows.
func (g *LimitGate) FlavorLimit() func(http.Handler) http.Handler {
	return g.gate(func(r *http.Request, status *subscriptions.Status) error {
		limit := status.Context.Flavors
		if !limit.Allows(status.Usage.PublishedFlavors + 1) {
			return limitExceeded("flavor limit reached", status.Usage.PublishedFlavors, limit)
		}
		return nil
	})
}

// DrumLimit rejects the request when the requested total drum stock across
// the three sizes exceeds the plan allowance.
func (g *LimitGate) DrumLimit() func(http.Handler) http.Handler {
	return g.gate(func(r *http.Request, status *subscriptions.Status) error {
		limit := status.Context.Drums
		requested, err := requestedDrumTotal(r)
		if err != nil {
			return err
		}
		if !limit.Allows(requested) {
			return limitExceeded("drum stock limit exceeded", requested, limit)
		}
		return nil
	})
}

// OrderLimit rejects the request when the vendor has already received the
// plan's monthly order allowance.
func (g *LimitGate) OrderLimit() func(http.Handler) http.Handler {
	return g.gate(func(r *http.Request, status *subscriptions.Status) error {
		limit := status.Context.Orders
		if !limit.Allows(status.Usage.OrdersThisMonth + 1) {
			return limitExceeded("monthly order limit reached", status.Usage.OrdersThisMonth, limit)
		}
		return nil
	})
}

func (g *LimitGate) gate(check func(*http.Request, *subscriptions.Status) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			vendorID, err := resolveVendorID(r)
			if err != nil {
				responses.WriteError(r.Context(), g.logg, w, err)
				return
			}

			status, err := g.subs.Status(r.Context(), vendorID)
			if err != nil {
				responses.WriteError(r.Context(), g.logg, w, err)
				return
			}

			if err := check(r, status); err != nil {
				responses.WriteError(r.Context(), g.logg, w, err)
				return
			}

			ctx := WithVendorID(r.Context(), vendorID)
			ctx = WithSubscription(ctx, status)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func limitExceeded(message string, current int, limit types.Limit) error {
	return pkgerrors.New(pkgerrors.CodeLimitExceeded, message).WithDetails(map[string]any{
		"current_count":    current,
		"limit":            limit.Value(),
		"upgrade_required": true,
	})
}

// resolveVendorID finds the vendor the request concerns: the authenticated
// vendor claim first, then the vendorId route parameter, then a vendor_id
// field in the JSON body.
func resolveVendorID(r *http.Request) (uint, error) {
	if id := VendorIDFromContext(r.Context()); id != 0 {
		return id, nil
	}

	if raw := strings.TrimSpace(chi.URLParam(r, "vendorId")); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || value == 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "vendor id must be a positive integer").WithDetails(map[string]any{"field": "vendorId"})
		}
		return uint(value), nil
	}

	body, err := peekBody(r)
	if err != nil {
		return 0, err
	}
	if len(body) > 0 {
		var payload struct {
			VendorID json.Number `json:"vendor_id"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.VendorID != "" {
			value, err := strconv.ParseUint(payload.VendorID.String(), 10, 64)
			if err != nil || value == 0 {
				return 0, pkgerrors.New(pkgerrors.CodeValidation, "vendor id must be a positive integer").WithDetails(map[string]any{"field": "vendor_id"})
			}
			return uint(value), nil
		}
	}

	return 0, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
}

// requestedDrumTotal sums the small/medium/large stock counts in the body.
// Each size may be a bare number or an object carrying a stock field.
func requestedDrumTotal(r *http.Request) (int, error) {
	body, err := peekBody(r)
	if err != nil {
		return 0, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}

	total := 0
	for _, size := range []string{"small", "medium", "large"} {
		raw, ok := payload[size]
		if !ok {
			continue
		}
		count, err := drumSizeCount(raw)
		if err != nil {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "drum stock must be a non-negative integer").WithDetails(map[string]any{"field": size})
		}
		total += count
	}
	return total, nil
}

func drumSizeCount(raw json.RawMessage) (int, error) {
	var count int
	if err := json.Unmarshal(raw, &count); err == nil {
		if count < 0 {
			return 0, fmt.Errorf("negative stock")
		}
		return count, nil
	}

	var sized struct {
		Stock int `json:"stock"`
	}
	if err := json.Unmarshal(raw, &sized); err != nil {
		return 0, err
	}
	if sized.Stock < 0 {
		return 0, fmt.Errorf("negative stock")
	}
	return sized.Stock, nil
}

// peekBody reads the request body and puts it back for downstream handlers.
func peekBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

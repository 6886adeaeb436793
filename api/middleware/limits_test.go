package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sorbetero/sorbetero-backend/internal/subscriptions"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"github.com/sorbetero/sorbetero-backend/pkg/types"
)

type fakeStatuser struct {
	statuses map[uint]*subscriptions.Status
	calls    []uint
}

func (f *fakeStatuser) Status(_ context.Context, vendorID uint) (*subscriptions.Status, error) {
	f.calls = append(f.calls, vendorID)
	status, ok := f.statuses[vendorID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	return status, nil
}

func freeStatus(vendorID uint, published, stock, orders int) *subscriptions.Status {
	return &subscriptions.Status{
		Context: subscriptions.Context{
			VendorID: vendorID,
			Plan:     enums.PlanTierFree,
			Flavors:  types.LimitOf(5),
			Drums:    types.LimitOf(5),
			Orders:   types.LimitOf(30),
		},
		Usage: subscriptions.Usage{
			PublishedFlavors: published,
			DrumStock:        stock,
			OrdersThisMonth:  orders,
		},
	}
}

func newGate(t *testing.T, statuser *fakeStatuser) *LimitGate {
	t.Helper()
	gate, err := NewLimitGate(LimitGateParams{Subscriptions: statuser})
	if err != nil {
		t.Fatalf("failed to build gate: %v", err)
	}
	return gate
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return body
}

func TestFlavorLimitAllowsUnderLimit(t *testing.T) {
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{
		7: freeStatus(7, 4, 0, 0),
	}}
	gate := newGate(t, statuser)

	var attached *subscriptions.Status
	handler := gate.FlavorLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attached = SubscriptionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/flavors/1/publish", nil)
	r = r.WithContext(WithVendorID(r.Context(), 7))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if attached == nil || attached.Context.VendorID != 7 {
		t.Fatalf("expected subscription status attached to context, got %v", attached)
	}
}

func TestFlavorLimitRejectsAtLimit(t *testing.T) {
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{
		7: freeStatus(7, 5, 0, 0),
	}}
	gate := newGate(t, statuser)

	handler := gate.FlavorLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	r := httptest.NewRequest(http.MethodPost, "/flavors/1/publish", nil)
	r = r.WithContext(WithVendorID(r.Context(), 7))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	body := decodeError(t, w)
	if body.CurrentCount == nil || *body.CurrentCount != 5 {
		t.Fatalf("expected current_count=5, got %v", body.CurrentCount)
	}
	if body.Limit == nil || *body.Limit != 5 {
		t.Fatalf("expected limit=5, got %v", body.Limit)
	}
	if !body.UpgradeRequired {
		t.Fatalf("expected upgrade_required=true")
	}
}

// A vendor whose premium plan lapsed yesterday is evaluated against the free
// limits: the status builder downgrades before the gate compares.
func TestFlavorLimitExpiredPlanEvaluatedAgainstFreeLimits(t *testing.T) {
	downgraded := freeStatus(7, 8, 0, 0)
	downgraded.Context.Downgraded = true
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{7: downgraded}}
	gate := newGate(t, statuser)

	handler := gate.FlavorLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	r := httptest.NewRequest(http.MethodPost, "/flavors/1/publish", nil)
	r = r.WithContext(WithVendorID(r.Context(), 7))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 against free limits, got %d", w.Code)
	}
	if len(statuser.calls) != 1 || statuser.calls[0] != 7 {
		t.Fatalf("expected one status resolution for vendor 7, got %v", statuser.calls)
	}
}

func TestFlavorLimitUnlimitedAllows(t *testing.T) {
	status := freeStatus(7, 900, 0, 0)
	status.Context.Plan = enums.PlanTierPremium
	status.Context.Flavors = types.Unlimited()
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{7: status}}
	gate := newGate(t, statuser)

	handler := gate.FlavorLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/flavors/1/publish", nil)
	r = r.WithContext(WithVendorID(r.Context(), 7))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected unlimited plan to pass, got %d", w.Code)
	}
}

func TestLimitGateMissingVendorID(t *testing.T) {
	gate := newGate(t, &fakeStatuser{statuses: map[uint]*subscriptions.Status{}})
	handler := gate.FlavorLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	r := httptest.NewRequest(http.MethodPost, "/flavors/1/publish", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing vendor id, got %d", w.Code)
	}
}

func TestLimitGateUnknownVendor(t *testing.T) {
	gate := newGate(t, &fakeStatuser{statuses: map[uint]*subscriptions.Status{}})
	handler := gate.FlavorLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	r := httptest.NewRequest(http.MethodPost, "/flavors/1/publish", nil)
	r = r.WithContext(WithVendorID(r.Context(), 42))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown vendor, got %d", w.Code)
	}
}

func TestLimitGateVendorIDFromRouteParam(t *testing.T) {
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{
		9: freeStatus(9, 0, 0, 0),
	}}
	gate := newGate(t, statuser)

	router := chi.NewRouter()
	router.With(gate.FlavorLimit()).Post("/vendors/{vendorId}/flavors", func(w http.ResponseWriter, r *http.Request) {
		if got := VendorIDFromContext(r.Context()); got != 9 {
			t.Fatalf("expected vendor 9 in context, got %d", got)
		}
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodPost, "/vendors/9/flavors", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestLimitGateVendorIDFromBody(t *testing.T) {
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{
		11: freeStatus(11, 0, 0, 2),
	}}
	gate := newGate(t, statuser)

	var seenBody string
	handler := gate.OrderLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("body was not restored for the handler: %v", err)
		}
		seenBody = payload["customer_name"].(string)
		w.WriteHeader(http.StatusCreated)
	}))

	r := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(`{"vendor_id":11,"customer_name":"Ana"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if seenBody != "Ana" {
		t.Fatalf("expected handler to see full body, got %q", seenBody)
	}
}

func TestOrderLimitRejectsAtMonthlyAllowance(t *testing.T) {
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{
		11: freeStatus(11, 0, 0, 30),
	}}
	gate := newGate(t, statuser)

	handler := gate.OrderLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	r := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(`{"vendor_id":11}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	body := decodeError(t, w)
	if body.Limit == nil || *body.Limit != 30 {
		t.Fatalf("expected limit=30, got %v", body.Limit)
	}
}

func TestDrumLimitSumsRequestedSizes(t *testing.T) {
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{
		5: freeStatus(5, 0, 0, 0),
	}}
	gate := newGate(t, statuser)

	handler := gate.DrumLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name string
		body string
		want int
	}{
		{name: "numbers within limit", body: `{"vendor_id":5,"small":2,"medium":2,"large":1}`, want: http.StatusOK},
		{name: "numbers over limit", body: `{"vendor_id":5,"small":3,"medium":2,"large":1}`, want: http.StatusForbidden},
		{name: "objects with stock over limit", body: `{"vendor_id":5,"small":{"stock":4},"large":{"stock":3}}`, want: http.StatusForbidden},
		{name: "missing sizes allowed", body: `{"vendor_id":5,"small":5}`, want: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPut, "/drums/stock", bytes.NewBufferString(tc.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestDrumLimitRejectsNegativeStock(t *testing.T) {
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{
		5: freeStatus(5, 0, 0, 0),
	}}
	gate := newGate(t, statuser)

	handler := gate.DrumLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	r := httptest.NewRequest(http.MethodPut, "/drums/stock", bytes.NewBufferString(`{"vendor_id":5,"small":-1}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDrumLimitUnlimitedPlan(t *testing.T) {
	status := freeStatus(5, 0, 0, 0)
	status.Context.Plan = enums.PlanTierPremium
	status.Context.Drums = types.Unlimited()
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{5: status}}
	gate := newGate(t, statuser)

	handler := gate.DrumLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPut, "/drums/stock", bytes.NewBufferString(`{"vendor_id":5,"small":400,"medium":300,"large":200}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected any total to pass, got %d", w.Code)
	}

	// The body is still validated even when the plan has no cap.
	r = httptest.NewRequest(http.MethodPut, "/drums/stock", bytes.NewBufferString(`{"vendor_id":5,"small":-2}`))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative stock, got %d", w.Code)
	}
}

func TestOrderLimitAllowsOneBelowAllowance(t *testing.T) {
	statuser := &fakeStatuser{statuses: map[uint]*subscriptions.Status{
		5: freeStatus(5, 0, 0, 29),
	}}
	gate := newGate(t, statuser)

	handler := gate.OrderLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	r := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(`{"vendor_id":5}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected the 30th order to pass, got %d", w.Code)
	}
}

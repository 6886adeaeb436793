package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sorbetero/sorbetero-backend/api/middleware"
	"github.com/sorbetero/sorbetero-backend/internal/flavors"
	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"github.com/sorbetero/sorbetero-backend/pkg/types"
)

type fakeFlavorService struct {
	created   *models.Flavor
	published map[uint]*models.Flavor
	publishErr error
}

func (f *fakeFlavorService) CreateFlavor(_ context.Context, vendorID uint, input flavors.CreateFlavorInput) (*models.Flavor, error) {
	f.created = &models.Flavor{
		ID:          1,
		VendorID:    vendorID,
		Name:        input.Name,
		Description: input.Description,
		BasePrice:   input.BasePrice,
		StoreStatus: enums.StoreStatusDraft,
	}
	return f.created, nil
}

func (f *fakeFlavorService) ListFlavors(_ context.Context, vendorID uint) ([]models.Flavor, error) {
	if f.created == nil {
		return nil, nil
	}
	return []models.Flavor{*f.created}, nil
}

func (f *fakeFlavorService) Publish(_ context.Context, vendorID, flavorID uint) (*models.Flavor, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	flavor, ok := f.published[flavorID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "flavor not found")
	}
	flavor.StoreStatus = enums.StoreStatusPublished
	return flavor, nil
}

func (f *fakeFlavorService) Unpublish(_ context.Context, vendorID, flavorID uint) (*models.Flavor, error) {
	flavor, ok := f.published[flavorID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "flavor not found")
	}
	flavor.StoreStatus = enums.StoreStatusReady
	return flavor, nil
}

func vendorRequest(method, target string, body []byte) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	return r.WithContext(middleware.WithVendorID(r.Context(), 7))
}

func TestFlavorCreateReturnsDraft(t *testing.T) {
	svc := &fakeFlavorService{}
	handler := FlavorCreate(svc, nil)

	body := []byte(`{"name":"Ube","base_price":"120.00"}`)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, vendorRequest(http.MethodPost, "/api/v1/vendor/flavors", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["store_status"] != "draft" {
		t.Fatalf("expected draft status, got %v", data["store_status"])
	}
	if svc.created == nil || svc.created.VendorID != 7 {
		t.Fatalf("expected flavor created for vendor 7, got %+v", svc.created)
	}
	if !svc.created.BasePrice.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("unexpected base price %s", svc.created.BasePrice)
	}
}

func TestFlavorCreateRejectsUnknownFields(t *testing.T) {
	handler := FlavorCreate(&fakeFlavorService{}, nil)

	body := []byte(`{"name":"Ube","base_price":"120.00","extra":true}`)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, vendorRequest(http.MethodPost, "/api/v1/vendor/flavors", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", w.Code)
	}
}

func TestFlavorCreateRequiresVendorContext(t *testing.T) {
	handler := FlavorCreate(&fakeFlavorService{}, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/flavors", bytes.NewBufferString(`{"name":"Ube","base_price":"1"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without vendor claim, got %d", w.Code)
	}
}

func TestFlavorPublishLockedReturnsUpgradePayload(t *testing.T) {
	svc := &fakeFlavorService{
		publishErr: pkgerrors.New(pkgerrors.CodeLimitExceeded, "flavor is locked by your subscription").
			WithDetails(map[string]any{"upgrade_required": true}),
	}

	router := newTestRouter()
	router.Post("/flavors/{flavorId}/publish", FlavorPublish(svc, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, vendorRequest(http.MethodPost, "/flavors/3/publish", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for locked flavor, got %d", w.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !envelope.UpgradeRequired {
		t.Fatalf("expected upgrade_required=true, got %+v", envelope)
	}
}

func TestFlavorPublishInvalidIDParam(t *testing.T) {
	router := newTestRouter()
	router.Post("/flavors/{flavorId}/publish", FlavorPublish(&fakeFlavorService{}, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, vendorRequest(http.MethodPost, "/flavors/zero/publish", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad flavor id, got %d", w.Code)
	}
}

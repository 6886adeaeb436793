package controllers

import (
	"net/http"

	"github.com/sorbetero/sorbetero-backend/api/middleware"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
)

// requireVendor returns the authenticated vendor id or an error when the
// caller is not a vendor account.
func requireVendor(r *http.Request) (uint, error) {
	id := middleware.VendorIDFromContext(r.Context())
	if id == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "vendor account required")
	}
	return id, nil
}

package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/sorbetero/sorbetero-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uint
	VendorID *uint
	Role     enums.ActorRole
}

// AccessTokenClaims represents the typed JWT issued to clients. Vendor
// accounts carry their vendor id; customer and admin tokens leave it unset.
type AccessTokenClaims struct {
	UserID   uint            `json:"user_id"`
	VendorID *uint           `json:"vendor_id,omitempty"`
	Role     enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

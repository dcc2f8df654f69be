package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims represents the typed JWT issued upstream. This service
// never mints tokens; it only parses the pre-validated caller identity.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	VendorID *uuid.UUID `json:"vendor_id,omitempty"`
	Role     string     `json:"role,omitempty"`
	jwt.RegisteredClaims
}

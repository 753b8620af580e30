package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// AccessTokenPayload is what callers supply when minting a token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.Role
	ShopID *uuid.UUID
	Phone  string
	JTI    string
}

func (p AccessTokenPayload) validate() error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("user id is required")
	}
	if !p.Role.IsValid() {
		return fmt.Errorf("invalid role %q", p.Role)
	}
	if p.Role == enums.RoleShopOwner && p.ShopID == nil {
		return fmt.Errorf("shop owner tokens require a shop id")
	}
	return nil
}

// AccessTokenClaims is the JWT body. Phone is only present once the
// identity service has verified it.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	ShopID *uuid.UUID `json:"shop_id,omitempty"`
	Phone  string     `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

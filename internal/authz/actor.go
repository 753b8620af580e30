// Package authz carries the caller identity that every domain operation
// receives explicitly from the transport layer.
package authz

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox"
)

// Actor is the verified caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
	ShopID *uuid.UUID
	Phone  string
}

// Validate rejects actors that could not have come from a verified token.
func (a Actor) Validate() error {
	if a.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !a.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "role missing or invalid")
	}
	if a.Role == enums.RoleShopOwner && (a.ShopID == nil || *a.ShopID == uuid.Nil) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "shop context missing")
	}
	return nil
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

func (a Actor) IsCustomer() bool {
	return a.Role == enums.RoleCustomer
}

// IsOwner reports whether the actor is the given user.
func (a Actor) IsOwner(userID uuid.UUID) bool {
	return a.UserID != uuid.Nil && a.UserID == userID
}

// OwnsShop reports whether the actor is the shop owner of shopID.
func (a Actor) OwnsShop(shopID uuid.UUID) bool {
	return a.Role == enums.RoleShopOwner && a.ShopID != nil && *a.ShopID == shopID
}

// VerifiedPhone returns the phone bound to the token, trimmed.
func (a Actor) VerifiedPhone() string {
	return strings.TrimSpace(a.Phone)
}

// Ref converts the actor to the envelope reference stored with outbox events.
func (a Actor) Ref() *outbox.ActorRef {
	ref := &outbox.ActorRef{UserID: a.UserID, Role: a.Role.String()}
	if a.ShopID != nil {
		shop := *a.ShopID
		ref.ShopID = &shop
	}
	return ref
}

// RequireRole fails with Forbidden unless the actor holds one of roles.
func RequireRole(a Actor, roles ...enums.Role) error {
	if err := a.Validate(); err != nil {
		return err
	}
	for _, role := range roles {
		if a.Role == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
}

// CanActForShop allows the shop's owner and admins.
func CanActForShop(a Actor, shopID uuid.UUID) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.IsAdmin() || a.OwnsShop(shopID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "shop access denied")
}

// Package policy decides whether a caller may perform an operation on a
// resource. It knows nothing about HTTP or storage.
package policy

import (
	"github.com/google/uuid"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID
	Role   models.Role
}

// IsAdmin reports whether the caller holds the admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == models.RoleAdmin
}

// Owns reports whether ownerID is the caller.
func (id *Identity) Owns(ownerID uuid.UUID) bool {
	return id != nil && id.UserID == ownerID
}

type Resource string

const (
	Users         Resource = "user"
	Categories    Resource = "category"
	Products      Resource = "product"
	ProductImages Resource = "product image"
	Orders        Resource = "order"
	OrderItems    Resource = "order item"
	Payments      Resource = "payment"
	Addresses     Resource = "address"
)

type Operation string

const (
	List          Operation = "list"
	Retrieve      Operation = "retrieve"
	Create        Operation = "create"
	Update        Operation = "update"
	PartialUpdate Operation = "partial_update"
	Delete        Operation = "delete"
)

// ReadOnly reports whether op never mutates state.
func (op Operation) ReadOnly() bool {
	return op == List || op == Retrieve
}

func (op Operation) mutates() bool {
	return op == Update || op == PartialUpdate || op == Delete
}

func (r Resource) catalog() bool {
	return r == Categories || r == Products || r == ProductImages
}

func (r Resource) ownedByCaller() bool {
	return r == Orders || r == OrderItems || r == Payments || r == Addresses
}

// Authorize returns nil when the caller may perform op on res. owns tells
// whether the target record belongs to the caller and is ignored for List
// and Create. A nil id means the request carried no valid token.
//
// Records outside the caller's scope are reported as not found so their
// existence is never confirmed.
func Authorize(id *Identity, res Resource, op Operation, owns bool) error {
	if id == nil {
		if res == Users && op == Create {
			return nil
		}
		return apperr.New(apperr.ErrUnauthenticated, "authentication credentials were not provided or are invalid")
	}

	switch {
	case res == Payments && op.mutates():
		return apperr.New(apperr.ErrMethodNotAllowed, "payments cannot be updated or deleted")

	case res.catalog():
		if op.ReadOnly() || id.IsAdmin() {
			return nil
		}
		return apperr.Newf(apperr.ErrPermissionDenied, "only admins may %s a %s", verb(op), res)

	case res.ownedByCaller():
		if op == List || op == Create || owns {
			return nil
		}
		return apperr.Newf(apperr.ErrNotFound, "%s not found", res)

	case res == Users:
		if op == List || op == Create || owns || id.IsAdmin() {
			return nil
		}
		return apperr.Newf(apperr.ErrNotFound, "%s not found", res)
	}

	return apperr.Newf(apperr.ErrPermissionDenied, "%s on %s is not permitted", op, res)
}

// ScopeToOwner reports whether listings of res must be restricted to
// records owned by the caller before any other filter is applied.
func ScopeToOwner(id *Identity, res Resource) bool {
	if res.ownedByCaller() {
		return true
	}
	return res == Users && !id.IsAdmin()
}

func verb(op Operation) string {
	if op == PartialUpdate {
		return "update"
	}
	return string(op)
}

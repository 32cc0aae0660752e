// Package gate is the single authorization gate for every mutating
// operation in the system.  Handlers build an Identity from the
// authenticated JWT claims (never from request payload fields) and
// ask the gate whether the caller may act on a target record.  The
// gate distinguishes "forbidden" from "absent": a branch mismatch is
// ErrUnauthorizedBranch, not a not-found error, so callers can render
// differentiated messages.
package gate

import (
    "errors"

    "github.com/lilycrest/lilycrest-server/internal/model"
)

// ErrForbidden is returned when the caller's role does not permit the
// operation at all (e.g. a tenant deleting a reservation, or any
// caller acting on a record they do not own).
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorizedBranch is returned when an admin attempts to act on a
// record whose room belongs to a different branch.  It must never be
// collapsed into a not-found response.
var ErrUnauthorizedBranch = errors.New("unauthorized branch")

// Identity is the caller as resolved from the authenticated session.
// Branch is empty for super-admins and for accounts without a branch
// assignment.
type Identity struct {
    UserID uint64
    Role   string
    Branch string
}

// CanStartReservation reports whether the caller may create a new
// reservation.  Only tenants with a branch assignment may, and only
// for themselves; the owning user id is always the caller's own.
func CanStartReservation(id Identity) error {
    if id.Role != model.RoleTenant || id.Branch == "" {
        return ErrForbidden
    }
    return nil
}

// CanAccessOwnReservation reports whether the caller may read or patch
// a reservation owned by ownerID.  Tenants are restricted to their own
// records; admins and super-admins go through CanAdminAccess instead.
func CanAccessOwnReservation(id Identity, ownerID uint64) error {
    if id.Role != model.RoleTenant {
        return ErrForbidden
    }
    if id.UserID != ownerID {
        return ErrForbidden
    }
    return nil
}

// CanAdminAccess reports whether the caller may read, update or delete
// a record whose room belongs to roomBranch.  Admins are confined to
// their own branch; super-admins are unrestricted.  Every other role
// is rejected outright.
func CanAdminAccess(id Identity, roomBranch string) error {
    switch id.Role {
    case model.RoleSuperAdmin:
        return nil
    case model.RoleAdmin:
        if id.Branch != roomBranch {
            return ErrUnauthorizedBranch
        }
        return nil
    default:
        return ErrForbidden
    }
}

// CanSetReservationStatus reports whether the caller may change a
// reservation's status (confirm, cancel) or payment status.  Status
// changes are an admin action; tenants never confirm their own
// reservation.
func CanSetReservationStatus(id Identity, roomBranch string) error {
    return CanAdminAccess(id, roomBranch)
}

// CanDeleteReservation reports whether the caller may delete a
// reservation.  Tenants never hard-delete their records.
func CanDeleteReservation(id Identity, roomBranch string) error {
    return CanAdminAccess(id, roomBranch)
}

// BranchFilter returns the branch an admin's list queries must be
// restricted to, or "" when the caller may list across branches.
func BranchFilter(id Identity) string {
    if id.Role == model.RoleSuperAdmin {
        return ""
    }
    return id.Branch
}

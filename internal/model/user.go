package model

import "time"

// Role names stored in the users.role column.  The values mirror the
// JWT "role" claim so that middleware and the authorization gate can
// compare them without translation.
const (
    RoleUser       = "USER"        // registered, no branch assigned yet
    RoleTenant     = "TENANT"      // dormer bound to one branch
    RoleAdmin      = "ADMIN"       // branch staff, scoped to their branch
    RoleSuperAdmin = "SUPER_ADMIN" // system operator, unscoped
)

// Branch identifiers.  The set of physical dormitory locations is
// fixed; branch is the isolation boundary for all admin-scoped reads
// and writes.
const (
    BranchGilPuyat  = "gil-puyat"
    BranchGuadalupe = "guadalupe"
    BranchMalate    = "malate"
)

// ValidBranch reports whether s names one of the fixed branches.
func ValidBranch(s string) bool {
    switch s {
    case BranchGilPuyat, BranchGuadalupe, BranchMalate:
        return true
    }
    return false
}

// User represents an application user record as stored in the `users`
// table.  Branch is a pointer because only tenants and admins carry a
// branch assignment; it is NULL for super-admins and for accounts that
// have not yet selected a branch.  A tenant's branch is fixed at
// registration.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of the Role* constants above.
//  Branch       – branch assignment (nullable).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    Branch       *string   // users.branch (nullable)
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// BranchName returns the user's branch or "" when none is assigned.
func (u *User) BranchName() string {
    if u.Branch == nil {
        return ""
    }
    return *u.Branch
}

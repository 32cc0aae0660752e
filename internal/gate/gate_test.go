package gate

import (
    "testing"

    "github.com/stretchr/testify/assert"

    "github.com/lilycrest/lilycrest-server/internal/model"
)

func TestCanStartReservation(t *testing.T) {
    ok := Identity{UserID: 1, Role: model.RoleTenant, Branch: model.BranchGilPuyat}
    assert.NoError(t, CanStartReservation(ok))

    assert.ErrorIs(t, CanStartReservation(Identity{UserID: 1, Role: model.RoleTenant}), ErrForbidden)
    assert.ErrorIs(t, CanStartReservation(Identity{UserID: 1, Role: model.RoleUser, Branch: model.BranchGilPuyat}), ErrForbidden)
    assert.ErrorIs(t, CanStartReservation(Identity{UserID: 1, Role: model.RoleAdmin, Branch: model.BranchGilPuyat}), ErrForbidden)
}

func TestCanAccessOwnReservation(t *testing.T) {
    owner := Identity{UserID: 42, Role: model.RoleTenant, Branch: model.BranchGilPuyat}
    assert.NoError(t, CanAccessOwnReservation(owner, 42))
    assert.ErrorIs(t, CanAccessOwnReservation(owner, 7), ErrForbidden)

    admin := Identity{UserID: 42, Role: model.RoleAdmin, Branch: model.BranchGilPuyat}
    assert.ErrorIs(t, CanAccessOwnReservation(admin, 42), ErrForbidden)
}

// A gil-puyat admin touching a guadalupe record must see a branch
// error, not a forbidden and certainly not a not-found.
func TestCanAdminAccessBranchScope(t *testing.T) {
    admin := Identity{UserID: 5, Role: model.RoleAdmin, Branch: model.BranchGilPuyat}

    assert.NoError(t, CanAdminAccess(admin, model.BranchGilPuyat))
    assert.ErrorIs(t, CanAdminAccess(admin, model.BranchGuadalupe), ErrUnauthorizedBranch)
    assert.ErrorIs(t, CanAdminAccess(admin, model.BranchMalate), ErrUnauthorizedBranch)
}

func TestCanAdminAccessSuperAdminUnrestricted(t *testing.T) {
    sa := Identity{UserID: 1, Role: model.RoleSuperAdmin}
    assert.NoError(t, CanAdminAccess(sa, model.BranchGilPuyat))
    assert.NoError(t, CanAdminAccess(sa, model.BranchGuadalupe))
    assert.NoError(t, CanAdminAccess(sa, model.BranchMalate))
}

func TestCanAdminAccessRejectsOtherRoles(t *testing.T) {
    assert.ErrorIs(t, CanAdminAccess(Identity{Role: model.RoleTenant, Branch: model.BranchGilPuyat}, model.BranchGilPuyat), ErrForbidden)
    assert.ErrorIs(t, CanAdminAccess(Identity{Role: model.RoleUser}, model.BranchGilPuyat), ErrForbidden)
}

func TestBranchFilter(t *testing.T) {
    assert.Equal(t, "", BranchFilter(Identity{Role: model.RoleSuperAdmin, Branch: model.BranchMalate}))
    assert.Equal(t, model.BranchGilPuyat, BranchFilter(Identity{Role: model.RoleAdmin, Branch: model.BranchGilPuyat}))
}

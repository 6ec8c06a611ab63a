package policy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/models"
	"github.com/stretchr/testify/assert"
)

const ownerID uint = 10

func principal(role models.RoleID, owner bool) Principal {
	if owner {
		return Principal{UserID: ownerID, Role: role}
	}
	return Principal{UserID: ownerID + 1, Role: role}
}

func ptr(v uint) *uint { return &v }

func TestMutationMatrix(t *testing.T) {
	type want struct{ owner, other bool }
	// role -> resource -> allowed for (owner, non-owner)
	matrix := map[models.RoleID]map[Resource]want{
		models.RoleUser: {
			Product: {owner: true, other: false},
			Recipe:  {owner: true, other: false},
			Meal:    {owner: true, other: false},
			Diary:   {owner: true, other: false},
		},
		models.RoleModerator: {
			Product: {owner: true, other: true},
			Recipe:  {owner: true, other: true},
			Meal:    {owner: true, other: false},
			Diary:   {owner: true, other: false},
		},
		models.RoleAdmin: {
			Product: {owner: true, other: true},
			Recipe:  {owner: true, other: true},
			Meal:    {owner: true, other: false},
			Diary:   {owner: true, other: false},
		},
	}

	for role, byRes := range matrix {
		for res, w := range byRes {
			for _, op := range []Operation{Update, Delete} {
				for _, isOwner := range []bool{true, false} {
					allowed := w.other
					if isOwner {
						allowed = w.owner
					}
					name := fmt.Sprintf("%s/%s/op%d/owner=%v", role, res, op, isOwner)
					t.Run(name, func(t *testing.T) {
						err := AuthorizeObject(principal(role, isOwner), op, res, ptr(ownerID))
						if allowed {
							assert.NoError(t, err)
							return
						}
						var denied *apperr.PermissionDeniedError
						assert.True(t, errors.As(err, &denied), "want PermissionDenied, got %v", err)
					})
				}
			}
		}
	}
}

func TestDeniedMessageNamesResource(t *testing.T) {
	err := AuthorizeObject(principal(models.RoleUser, false), Update, Product, ptr(ownerID))
	assert.EqualError(t, err, "cannot change other users' products")

	err = AuthorizeObject(principal(models.RoleUser, false), Update, Recipe, ptr(ownerID))
	assert.EqualError(t, err, "cannot change other users' recipes")
}

func TestSafeCatalogReadsAllowAnyone(t *testing.T) {
	for _, res := range []Resource{Product, Recipe, ProductCategory, ProductBrand, RecipeCategory} {
		assert.NoError(t, Authorize(Principal{}, List, res), res)
		assert.NoError(t, AuthorizeObject(Principal{}, Retrieve, res, ptr(ownerID)), res)
		assert.NoError(t, AuthorizeObject(principal(models.RoleUser, false), Retrieve, res, ptr(ownerID)), res)
	}
}

func TestOwnerScopedReads(t *testing.T) {
	for _, res := range []Resource{Meal, Diary} {
		assert.ErrorIs(t, Authorize(Principal{}, List, res), apperr.ErrUnauthenticated)
		assert.NoError(t, Authorize(principal(models.RoleUser, true), List, res))
		assert.NoError(t, AuthorizeObject(principal(models.RoleUser, true), Retrieve, res, ptr(ownerID)))

		var denied *apperr.PermissionDeniedError
		err := AuthorizeObject(principal(models.RoleAdmin, false), Retrieve, res, ptr(ownerID))
		assert.True(t, errors.As(err, &denied))
	}
}

func TestAnonymousWritesNeedAuthentication(t *testing.T) {
	for _, res := range []Resource{Product, Recipe, Meal, Diary} {
		assert.ErrorIs(t, Authorize(Principal{}, Create, res), apperr.ErrUnauthenticated)
		assert.ErrorIs(t, AuthorizeObject(Principal{}, Update, res, ptr(ownerID)), apperr.ErrUnauthenticated)
	}
}

func TestTaxonomyWritesNeedStaff(t *testing.T) {
	for _, res := range []Resource{ProductCategory, ProductBrand, RecipeCategory} {
		var denied *apperr.PermissionDeniedError
		assert.True(t, errors.As(Authorize(principal(models.RoleUser, true), Create, res), &denied))
		assert.True(t, errors.As(AuthorizeObject(principal(models.RoleUser, true), Delete, res, nil), &denied))
		assert.ErrorIs(t, Authorize(Principal{}, Create, res), apperr.ErrUnauthenticated)

		assert.NoError(t, Authorize(principal(models.RoleModerator, false), Create, res))
		assert.NoError(t, AuthorizeObject(principal(models.RoleAdmin, false), Update, res, nil))
	}
}

func TestSystemOwnedFoodOnlyStaffMutates(t *testing.T) {
	var denied *apperr.PermissionDeniedError
	assert.True(t, errors.As(AuthorizeObject(principal(models.RoleUser, true), Update, Product, nil), &denied))
	assert.NoError(t, AuthorizeObject(principal(models.RoleModerator, false), Update, Product, nil))
}

func TestSelfRegistrationAlwaysAllowed(t *testing.T) {
	assert.NoError(t, Authorize(Principal{}, Create, User))
	assert.NoError(t, Authorize(principal(models.RoleUser, true), Create, User))
}

func TestUserUpdates(t *testing.T) {
	self := principal(models.RoleUser, true)
	assert.NoError(t, AuthorizeObject(self, Update, User, ptr(self.UserID)))
	assert.EqualError(t, AuthorizeObject(self, Update, User, ptr(99)), "cannot change other users")
	assert.NoError(t, AuthorizeObject(principal(models.RoleModerator, false), Update, User, ptr(99)))
}

func TestViewFor(t *testing.T) {
	user := principal(models.RoleUser, true)
	mod := principal(models.RoleModerator, true)
	admin := principal(models.RoleAdmin, true)

	cases := []struct {
		p    Principal
		res  Resource
		op   Operation
		want ViewKind
	}{
		{user, Product, List, ViewList},
		{admin, Product, List, ViewList},
		{user, Product, Update, ViewStandard},
		{mod, Product, Update, ViewStaff},
		{admin, Recipe, Retrieve, ViewStaff},
		{Principal{}, Recipe, Retrieve, ViewStandard},
		{user, User, Update, ViewStandard},
		{mod, User, Update, ViewStaff},
		{admin, User, Update, ViewAdmin},
		{admin, Diary, Update, ViewStandard},
		{mod, Meal, Create, ViewStandard},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ViewFor(tc.p, tc.res, tc.op), "%s %s op%d", tc.p.Role, tc.res, tc.op)
	}
}

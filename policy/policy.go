// Package policy decides who may perform which operation on which resource,
// and which field set (view) applies to a request. Both decisions are table
// lookups keyed by resource kind; nothing is cached between requests.
package policy

import (
	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/models"
)

// Principal is the authenticated caller of a request. The zero value is anonymous.
type Principal struct {
	UserID uint
	Role   models.RoleID
}

func (p Principal) Authenticated() bool { return p.UserID != 0 }

func (p Principal) IsStaff() bool { return p.Authenticated() && p.Role.IsStaff() }

type Resource string

const (
	Product         Resource = "products"
	Recipe          Resource = "recipes"
	Meal            Resource = "meals"
	Diary           Resource = "diary entries"
	ProductCategory Resource = "product categories"
	ProductBrand    Resource = "product brands"
	RecipeCategory  Resource = "recipe categories"
	User            Resource = "users"
)

type Operation int

const (
	List Operation = iota
	Retrieve
	Create
	Update
	Delete
)

func (o Operation) Safe() bool { return o == List || o == Retrieve }

type grant int

const (
	anyone grant = iota
	authenticated
	ownerOnly
	ownerOrStaff
	staffOnly
)

type rule struct {
	read   grant
	create grant
	mutate grant
	denied string
}

var rules = map[Resource]rule{
	Product:         {read: anyone, create: authenticated, mutate: ownerOrStaff, denied: "cannot change other users' products"},
	Recipe:          {read: anyone, create: authenticated, mutate: ownerOrStaff, denied: "cannot change other users' recipes"},
	Meal:            {read: ownerOnly, create: authenticated, mutate: ownerOnly, denied: "cannot change other users' meals"},
	Diary:           {read: ownerOnly, create: authenticated, mutate: ownerOnly, denied: "cannot change other users' diary entries"},
	ProductCategory: {read: anyone, create: staffOnly, mutate: staffOnly, denied: "only moderators can change product categories"},
	ProductBrand:    {read: anyone, create: staffOnly, mutate: staffOnly, denied: "only moderators can change product brands"},
	RecipeCategory:  {read: anyone, create: staffOnly, mutate: staffOnly, denied: "only moderators can change recipe categories"},
	User:            {read: authenticated, create: anyone, mutate: ownerOrStaff, denied: "cannot change other users"},
}

func (r rule) grantFor(op Operation) grant {
	switch op {
	case List, Retrieve:
		return r.read
	case Create:
		return r.create
	default:
		return r.mutate
	}
}

// Authorize checks a collection-level operation (list or create).
// Owner-scoped reads pass here; the caller filters results to the principal.
func Authorize(p Principal, op Operation, res Resource) error {
	r, ok := rules[res]
	if !ok {
		return apperr.PermissionDenied("unknown resource %q", res)
	}
	switch r.grantFor(op) {
	case anyone:
		return nil
	case staffOnly:
		if !p.Authenticated() {
			return apperr.ErrUnauthenticated
		}
		if !p.IsStaff() {
			return &apperr.PermissionDeniedError{Reason: r.denied}
		}
		return nil
	default:
		if !p.Authenticated() {
			return apperr.ErrUnauthenticated
		}
		return nil
	}
}

// AuthorizeObject checks an operation on a single record owned by ownerID.
// A nil ownerID marks a system-owned record.
func AuthorizeObject(p Principal, op Operation, res Resource, ownerID *uint) error {
	r, ok := rules[res]
	if !ok {
		return apperr.PermissionDenied("unknown resource %q", res)
	}
	g := r.grantFor(op)
	if g == anyone {
		return nil
	}
	if !p.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	owns := ownerID != nil && *ownerID == p.UserID
	switch g {
	case authenticated:
		return nil
	case ownerOnly:
		if owns {
			return nil
		}
	case ownerOrStaff:
		if owns || p.IsStaff() {
			return nil
		}
	case staffOnly:
		if p.IsStaff() {
			return nil
		}
	}
	return &apperr.PermissionDeniedError{Reason: r.denied}
}

// ViewKind names the field set used to read or write a resource.
type ViewKind int

const (
	// ViewStandard exposes the regular fields; system-assigned ones are read-only.
	ViewStandard ViewKind = iota
	// ViewList is the summary used by list operations.
	ViewList
	// ViewStaff additionally accepts moderation fields (is_verified, blocked_until, ...).
	ViewStaff
	// ViewAdmin additionally accepts the user role.
	ViewAdmin
)

func (v ViewKind) String() string {
	switch v {
	case ViewList:
		return "list"
	case ViewStaff:
		return "staff"
	case ViewAdmin:
		return "admin"
	default:
		return "standard"
	}
}

var views = map[Resource]map[models.RoleID]ViewKind{
	Product: {models.RoleModerator: ViewStaff, models.RoleAdmin: ViewStaff},
	Recipe:  {models.RoleModerator: ViewStaff, models.RoleAdmin: ViewStaff},
	User:    {models.RoleModerator: ViewStaff, models.RoleAdmin: ViewAdmin},
}

// ViewFor selects the view for a request.
func ViewFor(p Principal, res Resource, op Operation) ViewKind {
	if op == List {
		return ViewList
	}
	if !p.Authenticated() {
		return ViewStandard
	}
	if v, ok := views[res][p.Role]; ok {
		return v
	}
	return ViewStandard
}

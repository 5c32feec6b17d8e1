package model

import (
	"time"
)

// UserType is the coarse account classification carried on the user row and
// inside issued tokens. Values match the persisted integers.
type UserType int

const (
	UserTypeReader      UserType = 0
	UserTypeLibrarian   UserType = 1
	UserTypeSystemAdmin UserType = 2
)

func (t UserType) Valid() bool {
	return t >= UserTypeReader && t <= UserTypeSystemAdmin
}

func (t UserType) String() string {
	switch t {
	case UserTypeLibrarian:
		return "librarian"
	case UserTypeSystemAdmin:
		return "system_admin"
	default:
		return "reader"
	}
}

// Tier is the capability level the authorization engine derives once per
// request. Reader < Librarian < Admin.
type Tier int

const (
	TierReader Tier = iota
	TierLibrarian
	TierAdmin
)

// Role names that grant a tier independently of user_type.
const (
	RoleNameReader    = "reader"
	RoleNameLibrarian = "librarian"
	RoleNameAdmin     = "system_admin"
)

type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	HashedPassword string     `json:"-"` // Not exposed
	IsSuper        bool       `json:"is_super"`
	UserType       UserType   `json:"user_type"`
	IsActive       bool       `json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	RoleNames      []string   `json:"roles,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Permission labels one guarded operation. (Route, Method) pairs are not
// unique: several permissions may describe the same endpoint, so checks must
// match against the whole set for a user's roles.
type Permission struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Route  string `json:"route"`
	Method string `json:"method"`
}

// WhitelistEntry names one (route, method) action reachable without a
// credential. Entries are method-scoped because list/detail route names are
// shared by their mutating operations; exempting a bare name would open the
// writes too. Absence of an entry means authentication is required.
type WhitelistEntry struct {
	ID           string `json:"id"`
	RoutePattern string `json:"route_pattern"`
	Method       string `json:"method"`
	Description  string `json:"description,omitempty"`
}

// Identity is the request-scoped result of authentication: decoded claims
// merged with a fresh read of the user's current roles. It is never persisted.
type Identity struct {
	ID        string
	Username  string
	IsSuper   bool
	UserType  UserType
	RoleNames []string
	ExpiresAt time.Time
}

// Tier collapses every admin-ness heuristic into one place. All call sites
// must go through it; nothing else may inspect user_type or role names to
// decide capability.
func (id *Identity) Tier() Tier {
	if id == nil {
		return TierReader
	}
	if id.IsSuper || id.UserType == UserTypeSystemAdmin {
		return TierAdmin
	}
	if id.UserType == UserTypeLibrarian {
		return TierLibrarian
	}
	for _, name := range id.RoleNames {
		switch name {
		case RoleNameAdmin:
			return TierAdmin
		case RoleNameLibrarian:
			return TierLibrarian
		}
	}
	return TierReader
}

func (id *Identity) HasRole(name string) bool {
	for _, r := range id.RoleNames {
		if r == name {
			return true
		}
	}
	return false
}

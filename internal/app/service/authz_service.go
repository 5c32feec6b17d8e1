package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"shelfwise/internal/common"
	"shelfwise/internal/common/security"
	"shelfwise/internal/domain/model"
	"shelfwise/internal/domain/repository"
	"shelfwise/internal/platform/cache"
)

// RoleCache is the slice of the redis cache the engine needs. Nil disables
// caching; every request then reads the user row directly.
type RoleCache interface {
	Get(ctx context.Context, userID string) (*cache.RoleEntry, bool)
	Set(ctx context.Context, userID string, entry *cache.RoleEntry)
	Invalidate(ctx context.Context, userID string)
}

// AuthzService is the request-scoped authorization engine: it resolves a
// decoded credential into an Identity (with a fresh role read), and answers
// route-level and object-level authorization questions. It holds no mutable
// state of its own.
type AuthzService struct {
	userRepo    repository.UserRepository
	catalogRepo repository.CatalogRepository
	roleCache   RoleCache
}

func NewAuthzService(userRepo repository.UserRepository, catalogRepo repository.CatalogRepository, roleCache RoleCache) *AuthzService {
	return &AuthzService{userRepo: userRepo, catalogRepo: catalogRepo, roleCache: roleCache}
}

func (s *AuthzService) IsWhitelisted(ctx context.Context, route, method string) (bool, error) {
	return s.catalogRepo.IsWhitelisted(ctx, route, method)
}

// Authenticate turns verified claims into an Identity. Roles, user_type and
// is_super are re-read from storage on every request; claims are only
// trusted when the backing user row is gone (the token stays structurally
// valid, so degrade gracefully and log the anomaly).
func (s *AuthzService) Authenticate(ctx context.Context, claims security.Claims) (*model.Identity, error) {
	ident := &model.Identity{
		ID:        claims.UserID,
		Username:  claims.Username,
		IsSuper:   claims.IsSuper,
		UserType:  claims.UserType,
		ExpiresAt: claims.ExpiresAt,
	}

	if s.roleCache != nil {
		if entry, ok := s.roleCache.Get(ctx, claims.UserID); ok {
			ident.UserType = model.UserType(entry.UserType)
			ident.IsSuper = entry.IsSuper
			ident.RoleNames = entry.RoleNames
			return ident, nil
		}
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Printf("WARN: user %s does not exist but presented a valid token", claims.UserID)
		} else {
			log.Printf("WARN: failed to refresh roles for user %s: %v", claims.UserID, err)
		}
		return ident, nil
	}

	roleNames, err := s.userRepo.RoleNames(ctx, user.ID)
	if err != nil {
		log.Printf("WARN: failed to load role names for user %s: %v", user.ID, err)
		roleNames = nil
	}

	ident.UserType = user.UserType
	ident.IsSuper = user.IsSuper
	ident.RoleNames = roleNames

	if s.roleCache != nil {
		s.roleCache.Set(ctx, user.ID, &cache.RoleEntry{
			UserType:  int(user.UserType),
			IsSuper:   user.IsSuper,
			RoleNames: roleNames,
		})
	}
	return ident, nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// adminOnlyRoutes are the user-administration routes the blanket librarian
// grant must not cover. They fall through to the permission catalog, which
// seeds them for system_admin only.
var adminOnlyRoutes = map[string]bool{
	"user-list":         true,
	"user-detail":       true,
	"user-assign-roles": true,
	"role-list":         true,
}

// AuthorizeRoute gates one action for an authenticated identity. Order:
// safe methods pass, superusers pass, a blanket tier grant passes, then the
// explicit permission catalog is the fallback. The librarian blanket grant
// stops short of user administration; only the admin tier covers that.
func (s *AuthzService) AuthorizeRoute(ctx context.Context, ident *model.Identity, route, method string) error {
	if ident == nil {
		return common.Errorf("no identity for %s %s: %w", method, route, common.ErrUnauthorized)
	}
	if isSafeMethod(method) {
		return nil
	}
	if ident.IsSuper {
		return nil
	}
	tier := ident.Tier()
	if tier >= model.TierAdmin {
		return nil
	}
	if tier >= model.TierLibrarian && !adminOnlyRoutes[route] {
		return nil
	}

	allowed, err := s.catalogRepo.HasPermission(ctx, ident.ID, route, method)
	if err != nil {
		return fmt.Errorf("permission lookup for %s %s: %w", method, route, err)
	}
	if !allowed {
		return common.Errorf("no permission for %s %s: %w", method, route, common.ErrForbidden)
	}
	return nil
}

// AuthorizeOwner is the object-level check for user-owned resources (borrow
// records, ratings): librarian/admin tiers pass unconditionally, otherwise
// the acting identity must equal the owner.
func (s *AuthzService) AuthorizeOwner(ident *model.Identity, ownerID string) error {
	if ident == nil {
		return common.ErrUnauthorized
	}
	if ident.Tier() >= model.TierLibrarian {
		return nil
	}
	if ident.ID == ownerID {
		return nil
	}
	return common.Errorf("not the resource owner: %w", common.ErrForbidden)
}

// RequireTier enforces a minimum capability level for actor-gated operations.
func (s *AuthzService) RequireTier(ident *model.Identity, min model.Tier) error {
	if ident == nil {
		return common.ErrUnauthorized
	}
	if ident.Tier() < min {
		return common.Errorf("insufficient tier: %w", common.ErrForbidden)
	}
	return nil
}

// InvalidateUser must be called synchronously whenever a user's role
// assignment changes, so the cache can never grant beyond the freshest set.
func (s *AuthzService) InvalidateUser(ctx context.Context, userID string) {
	if s.roleCache != nil {
		s.roleCache.Invalidate(ctx, userID)
	}
}

package service

import (
	"context"
	"fmt"

	"shelfwise/internal/common"
	"shelfwise/internal/common/security"
	"shelfwise/internal/domain/model"
	"shelfwise/internal/domain/repository"

	"github.com/google/uuid"
)

// UserService covers admin user management, including the role assignment
// path that must invalidate the authorization engine's cache.
type UserService struct {
	userRepo    repository.UserRepository
	catalogRepo repository.CatalogRepository
	authz       *AuthzService
}

func NewUserService(userRepo repository.UserRepository, catalogRepo repository.CatalogRepository, authz *AuthzService) *UserService {
	return &UserService{userRepo: userRepo, catalogRepo: catalogRepo, authz: authz}
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserType int    `json:"user_type"`
	IsSuper  bool   `json:"is_super"`
}

func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.Errorf("username and password are required: %w", common.ErrValidation)
	}
	userType := model.UserType(req.UserType)
	if !userType.Valid() {
		return nil, common.Errorf("user_type must be 0, 1 or 2: %w", common.ErrValidation)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		HashedPassword: hashedPassword,
		UserType:       userType,
		IsSuper:        req.IsSuper,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Mirror the provisioning convention: user_type implies the matching role.
	roleName := model.RoleNameReader
	switch userType {
	case model.UserTypeLibrarian:
		roleName = model.RoleNameLibrarian
	case model.UserTypeSystemAdmin:
		roleName = model.RoleNameAdmin
	}
	if err := s.userRepo.AssignRoleByName(ctx, user.ID, roleName); err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}

	user.HashedPassword = ""
	return user, nil
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	UserType *int   `json:"user_type,omitempty"`
	IsSuper  *bool  `json:"is_super,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.UserType != nil {
		userType := model.UserType(*req.UserType)
		if !userType.Valid() {
			return nil, common.Errorf("user_type must be 0, 1 or 2: %w", common.ErrValidation)
		}
		user.UserType = userType
	}
	if req.IsSuper != nil {
		user.IsSuper = *req.IsSuper
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	// user_type and is_super feed the tier; drop the cached entry now.
	s.authz.InvalidateUser(ctx, id)

	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.authz.InvalidateUser(ctx, id)
	return nil
}

// Get allows self-lookup for readers and any lookup for admin tiers.
func (s *UserService) Get(ctx context.Context, ident *model.Identity, id string) (*model.User, error) {
	if err := s.authz.AuthorizeOwner(ident, id); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	roleNames, err := s.userRepo.RoleNames(ctx, id)
	if err == nil {
		user.RoleNames = roleNames
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	return s.userRepo.List(ctx, limit, offset)
}

type AssignRolesRequest struct {
	RoleIDs []string `json:"role_ids"`
}

// AssignRoles replaces a user's role set and synchronously invalidates the
// role cache so the new set takes effect on the next request.
func (s *UserService) AssignRoles(ctx context.Context, id string, req AssignRolesRequest) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.ReplaceRoles(ctx, id, req.RoleIDs); err != nil {
		return err
	}
	s.authz.InvalidateUser(ctx, id)
	return nil
}

func (s *UserService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.catalogRepo.ListRoles(ctx)
}

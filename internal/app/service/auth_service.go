package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"shelfwise/internal/common"
	"shelfwise/internal/common/security"
	"shelfwise/internal/domain/model"
	"shelfwise/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo    repository.UserRepository
	catalogRepo repository.CatalogRepository
}

func NewAuthService(userRepo repository.UserRepository, catalogRepo repository.CatalogRepository) *AuthService {
	return &AuthService{userRepo: userRepo, catalogRepo: catalogRepo}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the token plus the compiled route -> methods map the
// frontend uses to decide which controls to render.
type LoginResponse struct {
	UserID     string              `json:"user_id"`
	Username   string              `json:"username"`
	UserType   int                 `json:"user_type"`
	Token      string              `json:"token"`
	Permission map[string][]string `json:"permission"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.Errorf("username and password are required: %w", common.ErrValidation)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		HashedPassword: hashedPassword,
		UserType:       model.UserTypeReader, // Default: new accounts are readers
		IsActive:       true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo might return common.ErrConflict
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.userRepo.AssignRoleByName(ctx, user.ID, model.RoleNameReader); err != nil {
		log.Printf("WARN: failed to assign reader role to %s: %v", user.ID, err)
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.Errorf("username and password are required: %w", common.ErrValidation)
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, common.Errorf("account disabled: %w", common.ErrUnauthorized)
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		log.Printf("WARN: failed to record last login for %s: %v", user.ID, err)
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) issueSession(ctx context.Context, user *model.User) (*LoginResponse, error) {
	token, err := security.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	permission, err := s.catalogRepo.PermissionMap(ctx, user.ID, user.IsSuper)
	if err != nil {
		log.Printf("WARN: failed to compile permission map for %s: %v", user.ID, err)
		permission = map[string][]string{}
	}

	return &LoginResponse{
		UserID:     user.ID,
		Username:   user.Username,
		UserType:   int(user.UserType),
		Token:      token,
		Permission: permission,
	}, nil
}

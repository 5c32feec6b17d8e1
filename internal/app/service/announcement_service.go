package service

import (
	"context"
	"fmt"
	"time"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"
	"shelfwise/internal/domain/repository"

	"github.com/google/uuid"
)

type AnnouncementService struct {
	annRepo repository.AnnouncementRepository
}

func NewAnnouncementService(annRepo repository.AnnouncementRepository) *AnnouncementService {
	return &AnnouncementService{annRepo: annRepo}
}

type AnnouncementRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsVisible *bool  `json:"is_visible,omitempty"`
}

func (s *AnnouncementService) Create(ctx context.Context, req AnnouncementRequest) (*model.Announcement, error) {
	if req.Title == "" || req.Content == "" {
		return nil, common.Errorf("title and content are required: %w", common.ErrValidation)
	}
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}
	a := &model.Announcement{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Content:     req.Content,
		IsVisible:   visible,
		PublishedAt: time.Now(),
	}
	if err := s.annRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}
	return a, nil
}

func (s *AnnouncementService) Update(ctx context.Context, id string, req AnnouncementRequest) (*model.Announcement, error) {
	if req.Title == "" || req.Content == "" {
		return nil, common.Errorf("title and content are required: %w", common.ErrValidation)
	}
	a, err := s.annRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Title = req.Title
	a.Content = req.Content
	if req.IsVisible != nil {
		a.IsVisible = *req.IsVisible
	}
	if err := s.annRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	return s.annRepo.Delete(ctx, id)
}

// Get enforces the visibility rule: hidden announcements exist only for
// librarian/admin callers.
func (s *AnnouncementService) Get(ctx context.Context, ident *model.Identity, id string) (*model.Announcement, error) {
	a, err := s.annRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsVisible && ident.Tier() < model.TierLibrarian {
		return nil, common.Errorf("announcement is not published: %w", common.ErrForbidden)
	}
	return a, nil
}

func (s *AnnouncementService) List(ctx context.Context, ident *model.Identity, limit, offset int) ([]model.Announcement, int, error) {
	visibleOnly := ident.Tier() < model.TierLibrarian
	return s.annRepo.List(ctx, visibleOnly, limit, offset)
}

func (s *AnnouncementService) ToggleVisibility(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := s.annRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.annRepo.SetVisibility(ctx, id, !a.IsVisible); err != nil {
		return nil, err
	}
	a.IsVisible = !a.IsVisible
	return a, nil
}

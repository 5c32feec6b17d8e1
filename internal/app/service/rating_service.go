package service

import (
	"context"

	"shelfwise/internal/common"
	"shelfwise/internal/domain/model"
	"shelfwise/internal/domain/repository"

	"github.com/google/uuid"
)

type RatingService struct {
	ratingRepo repository.RatingRepository
	authz      *AuthzService
}

func NewRatingService(ratingRepo repository.RatingRepository, authz *AuthzService) *RatingService {
	return &RatingService{ratingRepo: ratingRepo, authz: authz}
}

type RatingRequest struct {
	BookID  string `json:"book_id"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (s *RatingService) Create(ctx context.Context, ident *model.Identity, req RatingRequest) (*model.Rating, error) {
	if req.BookID == "" {
		return nil, common.Errorf("book_id is required: %w", common.ErrValidation)
	}
	if req.Score < 1 || req.Score > 5 {
		return nil, common.Errorf("score must be between 1 and 5: %w", common.ErrValidation)
	}
	rating := &model.Rating{
		ID:      uuid.NewString(),
		UserID:  ident.ID,
		BookID:  req.BookID,
		Score:   req.Score,
		Comment: req.Comment,
	}
	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// Delete is owner-or-admin: ratings are user-owned resources.
func (s *RatingService) Delete(ctx context.Context, ident *model.Identity, id string) error {
	rating, err := s.ratingRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.AuthorizeOwner(ident, rating.UserID); err != nil {
		return err
	}
	return s.ratingRepo.Delete(ctx, id)
}

func (s *RatingService) ListByBook(ctx context.Context, bookID string) ([]model.Rating, error) {
	return s.ratingRepo.ListByBook(ctx, bookID)
}

package service

import (
	"context"
	"math"
	"sort"

	"shelfwise/internal/domain/model"
	"shelfwise/internal/domain/repository"
)

// RecommendService exposes the two analytics endpoints. The scoring function
// is a swappable black box that takes the interaction list and returns
// ranked scores; the current one is user-based collaborative filtering over
// ratings.
type RecommendService struct {
	ratingRepo repository.RatingRepository
	borrowRepo repository.BorrowRepository
	bookRepo   repository.BookRepository
}

func NewRecommendService(ratingRepo repository.RatingRepository, borrowRepo repository.BorrowRepository, bookRepo repository.BookRepository) *RecommendService {
	return &RecommendService{ratingRepo: ratingRepo, borrowRepo: borrowRepo, bookRepo: bookRepo}
}

func (s *RecommendService) PopularBooks(ctx context.Context, limit int) ([]model.PopularBook, error) {
	return s.borrowRepo.CountBorrowsPerBook(ctx, limit)
}

// Recommend ranks books the caller has not rated yet by predicted score.
func (s *RecommendService) Recommend(ctx context.Context, ident *model.Identity, limit int) ([]model.ScoredBook, error) {
	if limit <= 0 {
		limit = 10
	}
	ratings, err := s.ratingRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	books, _, err := s.bookRepo.List(ctx, repository.BookFilter{Limit: 500})
	if err != nil {
		return nil, err
	}

	behavior := make(map[string]map[string]float64)
	for _, r := range ratings {
		if behavior[r.UserID] == nil {
			behavior[r.UserID] = make(map[string]float64)
		}
		behavior[r.UserID][r.BookID] = float64(r.Score)
	}

	scores := collaborativeFilter(behavior, ident.ID)

	var result []model.ScoredBook
	for _, b := range books {
		score, ok := scores[b.ID]
		if !ok {
			continue
		}
		result = append(result, model.ScoredBook{BookID: b.ID, Title: b.Title, Score: score})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Title < result[j].Title
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// collaborativeFilter predicts scores for books the target user has not
// rated, as a similarity-weighted average over the other users' ratings.
// Similarity is the cosine between full rating vectors (unrated = 0).
func collaborativeFilter(behavior map[string]map[string]float64, targetUser string) map[string]float64 {
	target, ok := behavior[targetUser]
	if !ok || len(behavior) < 2 {
		return nil
	}

	bookSet := make(map[string]struct{})
	for _, ratings := range behavior {
		for bookID := range ratings {
			bookSet[bookID] = struct{}{}
		}
	}

	similarities := make(map[string]float64)
	for user, ratings := range behavior {
		if user == targetUser {
			continue
		}
		similarities[user] = cosineSimilarity(target, ratings)
	}

	predicted := make(map[string]float64)
	for bookID := range bookSet {
		if _, rated := target[bookID]; rated {
			continue
		}
		var weightedSum, simSum float64
		for user, ratings := range behavior {
			if user == targetUser {
				continue
			}
			score, ok := ratings[bookID]
			if !ok {
				continue
			}
			sim := similarities[user]
			weightedSum += sim * score
			simSum += sim
		}
		if simSum > 0 {
			predicted[bookID] = weightedSum / simSum
		}
	}
	return predicted
}

func cosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	for bookID, v := range a {
		if w, ok := b[bookID]; ok {
			dot += v * w
		}
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

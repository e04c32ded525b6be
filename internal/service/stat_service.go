package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medbank/internal/model"
	"medbank/internal/repository"
	"medbank/internal/trigger"
)

var ErrStatsNotFound = errors.New("stats not found")

// StatService records answers and bookmark toggles. Every write passes
// the old and new state to the trigger engine so the per-user counters
// track the collections.
type StatService struct {
	questions repository.QuestionRepo
	stats     repository.StatRepo
	bookmarks repository.BookmarkRepo
	counts    repository.StatsCountsRepo
	triggers  *trigger.Engine
}

// NewStatService creates a new stat service.
func NewStatService(
	questions repository.QuestionRepo,
	stats repository.StatRepo,
	bookmarks repository.BookmarkRepo,
	counts repository.StatsCountsRepo,
	triggers *trigger.Engine,
) *StatService {
	return &StatService{
		questions: questions,
		stats:     stats,
		bookmarks: bookmarks,
		counts:    counts,
		triggers:  triggers,
	}
}

// RecordAnswer upserts the user's stat for a question. A repeated
// answer overwrites the previous one; the taxonomy copy always comes
// from the question's current classification.
func (s *StatService) RecordAnswer(ctx context.Context, tenantID, userID, questionID string, correct bool) (*model.UserQuestionStat, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if q == nil {
		return nil, ErrQuestionNotFound
	}

	old, err := s.stats.GetByUserAndQuestion(ctx, tenantID, userID, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stat: %w", err)
	}

	stat := &model.UserQuestionStat{
		TenantID:    tenantID,
		UserID:      userID,
		QuestionID:  questionID,
		HasAnswered: true,
		IsIncorrect: !correct,
		ThemeID:     q.ThemeID,
		SubthemeID:  q.SubthemeID,
		GroupID:     q.GroupID,
		AnsweredAt:  time.Now(),
	}
	if err := s.stats.Upsert(ctx, stat); err != nil {
		return nil, fmt.Errorf("failed to upsert stat: %w", err)
	}

	s.triggers.StatChanged(ctx, old, stat)
	return stat, nil
}

// ToggleBookmark flips the user's bookmark on a question and reports
// the resulting state.
func (s *StatService) ToggleBookmark(ctx context.Context, tenantID, userID, questionID string) (bool, error) {
	existing, err := s.bookmarks.GetByUserAndQuestion(ctx, tenantID, userID, questionID)
	if err != nil {
		return false, fmt.Errorf("failed to get bookmark: %w", err)
	}

	if existing != nil {
		deleted, err := s.bookmarks.DeleteByUserAndQuestion(ctx, tenantID, userID, questionID)
		if err != nil {
			return false, fmt.Errorf("failed to delete bookmark: %w", err)
		}
		if deleted != nil {
			s.triggers.BookmarkChanged(ctx, deleted, nil)
		}
		return false, nil
	}

	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return false, fmt.Errorf("failed to get question: %w", err)
	}
	if q == nil {
		return false, ErrQuestionNotFound
	}

	bookmark := &model.UserBookmark{
		TenantID:   tenantID,
		UserID:     userID,
		QuestionID: questionID,
		ThemeID:    q.ThemeID,
		SubthemeID: q.SubthemeID,
		GroupID:    q.GroupID,
	}
	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		return false, fmt.Errorf("failed to create bookmark: %w", err)
	}
	s.triggers.BookmarkChanged(ctx, nil, bookmark)
	return true, nil
}

// GetCounts returns the user's counters, zeroed when the user has no
// record yet.
func (s *StatService) GetCounts(ctx context.Context, tenantID, userID string) (*model.UserStatsCounts, error) {
	counts, err := s.counts.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get counts: %w", err)
	}
	if counts == nil {
		return model.NewUserStatsCounts(tenantID, userID), nil
	}
	return counts, nil
}

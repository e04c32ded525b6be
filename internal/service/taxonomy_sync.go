package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"medbank/internal/model"
	"medbank/internal/repository"
)

// TaxonomySyncService propagates a question's taxonomy change into the
// denormalized copies on stats and bookmarks, and adjusts the affected
// users' counters. Best effort: users without a counts record are
// skipped, and counts clamp at zero.
type TaxonomySyncService struct {
	stats     repository.StatRepo
	bookmarks repository.BookmarkRepo
	counts    repository.StatsCountsRepo
	log       *logrus.Logger
}

// NewTaxonomySyncService creates a new taxonomy sync service.
func NewTaxonomySyncService(
	stats repository.StatRepo,
	bookmarks repository.BookmarkRepo,
	counts repository.StatsCountsRepo,
	log *logrus.Logger,
) *TaxonomySyncService {
	return &TaxonomySyncService{
		stats:     stats,
		bookmarks: bookmarks,
		counts:    counts,
		log:       log,
	}
}

// userImpact captures how one user is tied to the moved question.
type userImpact struct {
	answered   bool
	incorrect  bool
	bookmarked bool
}

// QuestionTaxonomyChanged runs the full denormalization sync for one
// question update. A no-op when no taxonomy field changed.
func (s *TaxonomySyncService) QuestionTaxonomyChanged(ctx context.Context, old, new *model.Question) error {
	if !model.TaxonomyChanged(old, new) {
		return nil
	}

	// Snapshot affected rows before patching; the per-user flags decide
	// which counter maps move.
	stats, err := s.stats.ListByQuestion(ctx, old.ID)
	if err != nil {
		return fmt.Errorf("failed to list stats for question: %w", err)
	}
	bookmarks, err := s.bookmarks.ListByQuestion(ctx, old.ID)
	if err != nil {
		return fmt.Errorf("failed to list bookmarks for question: %w", err)
	}

	if err := s.stats.PatchTaxonomyByQuestion(ctx, old.ID, new.ThemeID, new.SubthemeID, new.GroupID); err != nil {
		return fmt.Errorf("failed to patch stats taxonomy: %w", err)
	}
	if err := s.bookmarks.PatchTaxonomyByQuestion(ctx, old.ID, new.ThemeID, new.SubthemeID, new.GroupID); err != nil {
		return fmt.Errorf("failed to patch bookmarks taxonomy: %w", err)
	}

	impacts := make(map[string]*userImpact)
	impact := func(userID string) *userImpact {
		if im, ok := impacts[userID]; ok {
			return im
		}
		im := &userImpact{}
		impacts[userID] = im
		return im
	}
	for _, st := range stats {
		im := impact(st.UserID)
		im.answered = im.answered || st.HasAnswered
		im.incorrect = im.incorrect || st.IsIncorrect
	}
	for _, b := range bookmarks {
		impact(b.UserID).bookmarked = true
	}

	for userID, im := range impacts {
		s.adjustUserCounts(ctx, old, new, userID, im)
	}
	return nil
}

func (s *TaxonomySyncService) adjustUserCounts(ctx context.Context, old, new *model.Question, userID string, im *userImpact) {
	counts, err := s.counts.Get(ctx, new.TenantID, userID)
	if err != nil {
		s.log.WithError(err).WithField("userId", userID).Warn("counts lookup failed during taxonomy sync")
		return
	}
	if counts == nil {
		// Counts are created lazily elsewhere; nothing to adjust yet.
		return
	}

	if old.ThemeID != new.ThemeID {
		moveCount(counts.AnsweredByTheme, old.ThemeID, new.ThemeID, im.answered)
		moveCount(counts.IncorrectByTheme, old.ThemeID, new.ThemeID, im.incorrect)
		moveCount(counts.BookmarkedByTheme, old.ThemeID, new.ThemeID, im.bookmarked)
	}
	if old.SubthemeID != new.SubthemeID {
		moveCount(counts.AnsweredBySubtheme, old.SubthemeID, new.SubthemeID, im.answered)
		moveCount(counts.IncorrectBySubtheme, old.SubthemeID, new.SubthemeID, im.incorrect)
		moveCount(counts.BookmarkedBySubtheme, old.SubthemeID, new.SubthemeID, im.bookmarked)
	}
	if old.GroupID != new.GroupID {
		moveCount(counts.AnsweredByGroup, old.GroupID, new.GroupID, im.answered)
		moveCount(counts.IncorrectByGroup, old.GroupID, new.GroupID, im.incorrect)
		moveCount(counts.BookmarkedByGroup, old.GroupID, new.GroupID, im.bookmarked)
	}

	if err := s.counts.Save(ctx, counts); err != nil {
		s.log.WithError(err).WithField("userId", userID).Warn("counts save failed during taxonomy sync")
	}
}

// moveCount shifts one unit from oldNode to newNode when the user is
// affected for this stat type. BumpCount handles empty nodes and the
// zero floor.
func moveCount(m map[string]int, oldNode, newNode string, affected bool) {
	if !affected {
		return
	}
	model.BumpCount(m, oldNode, -1)
	model.BumpCount(m, newNode, 1)
}

package service

import (
	"context"
	"errors"
	"fmt"

	"medbank/internal/model"
	"medbank/internal/repository"
	"medbank/internal/trigger"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrInvalidTaxonomy  = errors.New("invalid taxonomy reference")
)

// QuestionService handles question CRUD. Every write goes through the
// trigger engine so the aggregates stay in step with the collection,
// and taxonomy moves run the denormalization sync.
type QuestionService struct {
	questions repository.QuestionRepo
	taxonomy  repository.TaxonomyRepo
	quizzes   repository.QuizRepo
	stats     repository.StatRepo
	bookmarks repository.BookmarkRepo
	triggers  *trigger.Engine
	sync      *TaxonomySyncService
}

// NewQuestionService creates a new question service.
func NewQuestionService(
	questions repository.QuestionRepo,
	taxonomy repository.TaxonomyRepo,
	quizzes repository.QuizRepo,
	stats repository.StatRepo,
	bookmarks repository.BookmarkRepo,
	triggers *trigger.Engine,
	sync *TaxonomySyncService,
) *QuestionService {
	return &QuestionService{
		questions: questions,
		taxonomy:  taxonomy,
		quizzes:   quizzes,
		stats:     stats,
		bookmarks: bookmarks,
		triggers:  triggers,
		sync:      sync,
	}
}

// Create validates the taxonomy references, stores the question and
// registers it in the aggregates.
func (s *QuestionService) Create(ctx context.Context, q *model.Question) (*model.Question, error) {
	if err := s.validateTaxonomy(ctx, q); err != nil {
		return nil, err
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	s.triggers.QuestionChanged(ctx, nil, q)
	return q, nil
}

// ListThemes returns the tenant's top-level taxonomy, which is what
// clients start from when building a filter selection.
func (s *QuestionService) ListThemes(ctx context.Context, tenantID string) ([]*model.Theme, error) {
	themes, err := s.taxonomy.ListThemes(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	return themes, nil
}

// Get returns a question by ID.
func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if q == nil {
		return nil, ErrQuestionNotFound
	}
	return q, nil
}

// Update replaces a question. When the update moves the question in the
// taxonomy, the denormalized stat and bookmark copies are patched and
// counters shifted.
func (s *QuestionService) Update(ctx context.Context, q *model.Question) (*model.Question, error) {
	old, err := s.questions.GetByID(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if old == nil {
		return nil, ErrQuestionNotFound
	}
	q.TenantID = old.TenantID
	q.CreatedAt = old.CreatedAt

	if err := s.validateTaxonomy(ctx, q); err != nil {
		return nil, err
	}
	if err := s.questions.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.triggers.QuestionChanged(ctx, old, q)
	if err := s.sync.QuestionTaxonomyChanged(ctx, old, q); err != nil {
		return nil, fmt.Errorf("failed to sync taxonomy change: %w", err)
	}
	return q, nil
}

// Delete removes a question along with its per-user stats and
// bookmarks, pulls it out of every quiz that contains it, and
// unregisters it from the aggregates.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	old, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get question: %w", err)
	}
	if old == nil {
		return ErrQuestionNotFound
	}

	// Counter decrements need the rows that are about to disappear.
	stats, err := s.stats.ListByQuestion(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list stats for question: %w", err)
	}
	bookmarks, err := s.bookmarks.ListByQuestion(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list bookmarks for question: %w", err)
	}

	if err := s.questions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if err := s.stats.DeleteByQuestion(ctx, id); err != nil {
		return fmt.Errorf("failed to delete stats for question: %w", err)
	}
	if err := s.bookmarks.DeleteByQuestion(ctx, id); err != nil {
		return fmt.Errorf("failed to delete bookmarks for question: %w", err)
	}
	if err := s.quizzes.PullQuestion(ctx, id); err != nil {
		return fmt.Errorf("failed to pull question from quizzes: %w", err)
	}

	s.triggers.QuestionChanged(ctx, old, nil)
	for _, st := range stats {
		s.triggers.StatChanged(ctx, st, nil)
	}
	for _, b := range bookmarks {
		s.triggers.BookmarkChanged(ctx, b, nil)
	}
	return nil
}

// validateTaxonomy checks that the referenced nodes exist in the
// question's tenant and that the narrower references are consistent
// with the broader ones (group under subtheme under theme).
func (s *QuestionService) validateTaxonomy(ctx context.Context, q *model.Question) error {
	if q.ThemeID == "" {
		return fmt.Errorf("%w: themeId is required", ErrInvalidTaxonomy)
	}
	theme, err := s.taxonomy.GetTheme(ctx, q.ThemeID)
	if err != nil {
		return fmt.Errorf("failed to get theme: %w", err)
	}
	if theme == nil || theme.TenantID != q.TenantID {
		return fmt.Errorf("%w: unknown theme %s", ErrInvalidTaxonomy, q.ThemeID)
	}

	if q.GroupID != "" && q.SubthemeID == "" {
		return fmt.Errorf("%w: groupId requires subthemeId", ErrInvalidTaxonomy)
	}
	if q.SubthemeID != "" {
		sub, err := s.taxonomy.GetSubtheme(ctx, q.SubthemeID)
		if err != nil {
			return fmt.Errorf("failed to get subtheme: %w", err)
		}
		if sub == nil || sub.TenantID != q.TenantID || sub.ThemeID != q.ThemeID {
			return fmt.Errorf("%w: subtheme %s does not belong to theme %s", ErrInvalidTaxonomy, q.SubthemeID, q.ThemeID)
		}
	}
	if q.GroupID != "" {
		grp, err := s.taxonomy.GetGroup(ctx, q.GroupID)
		if err != nil {
			return fmt.Errorf("failed to get group: %w", err)
		}
		if grp == nil || grp.TenantID != q.TenantID || grp.SubthemeID != q.SubthemeID {
			return fmt.Errorf("%w: group %s does not belong to subtheme %s", ErrInvalidTaxonomy, q.GroupID, q.SubthemeID)
		}
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"medbank/internal/model"
	"medbank/internal/repository"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrSessionNotFound = errors.New("session not found")
)

// QuizService serves materialized quizzes and their sessions to the
// owner. Quizzes are created only by the workflow; this layer is
// read + progress.
type QuizService struct {
	quizzes  repository.QuizRepo
	sessions repository.SessionRepo
}

// NewQuizService creates a new quiz service.
func NewQuizService(quizzes repository.QuizRepo, sessions repository.SessionRepo) *QuizService {
	return &QuizService{quizzes: quizzes, sessions: sessions}
}

// Get returns a quiz together with its session. Only the owner sees it;
// anyone else gets the same not-found as a missing quiz.
func (s *QuizService) Get(ctx context.Context, tenantID, userID, quizID string) (*model.CustomQuiz, *model.QuizSession, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil || quiz.TenantID != tenantID || quiz.OwnerID != userID {
		return nil, nil, ErrQuizNotFound
	}

	session, err := s.sessions.GetByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	return quiz, session, nil
}

// SaveProgress overwrites the mutable part of a session: position,
// answers, feedback and the completion flag. Clients send the whole
// state each time, so a stale save is simply overwritten by the next.
func (s *QuizService) SaveProgress(ctx context.Context, tenantID, userID, sessionID string, currentIndex int, answers []int, feedback []string, isComplete bool) (*model.QuizSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.TenantID != tenantID || session.UserID != userID {
		return nil, ErrSessionNotFound
	}

	if currentIndex < 0 {
		currentIndex = 0
	}
	session.CurrentIndex = currentIndex
	session.Answers = answers
	session.Feedback = feedback
	session.IsComplete = isComplete

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return session, nil
}

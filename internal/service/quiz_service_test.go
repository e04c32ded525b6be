package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbank/internal/model"
)

type fakeSessionRepo struct {
	sessions map[string]*model.QuizSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*model.QuizSession{}}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *model.QuizSession) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id string) (*model.QuizSession, error) {
	return f.sessions[id], nil
}

func (f *fakeSessionRepo) GetByQuiz(_ context.Context, quizID string) (*model.QuizSession, error) {
	for _, s := range f.sessions {
		if s.QuizID == quizID {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) Update(_ context.Context, s *model.QuizSession) error {
	f.sessions[s.ID] = s
	return nil
}

func newQuizEnv(t *testing.T) (*QuizService, *fakeQuizRepo, *fakeSessionRepo) {
	t.Helper()
	quizzes := newFakeQuizRepo()
	sessions := newFakeSessionRepo()
	require.NoError(t, quizzes.Create(context.Background(), &model.CustomQuiz{
		ID: "quiz-1", TenantID: "t1", OwnerID: "u1",
		Name: "Trauma review", QuestionIDs: []string{"q1", "q2", "q3"},
	}))
	require.NoError(t, sessions.Create(context.Background(), &model.QuizSession{
		ID: "sess-1", TenantID: "t1", QuizID: "quiz-1", UserID: "u1",
		Answers: []int{}, Feedback: []string{},
	}))
	return NewQuizService(quizzes, sessions), quizzes, sessions
}

func TestQuizGet(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newQuizEnv(t)

	t.Run("owner sees quiz and session", func(t *testing.T) {
		quiz, session, err := svc.Get(ctx, "t1", "u1", "quiz-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"q1", "q2", "q3"}, quiz.QuestionIDs)
		require.NotNil(t, session)
		assert.Equal(t, "sess-1", session.ID)
	})

	t.Run("unknown quiz", func(t *testing.T) {
		_, _, err := svc.Get(ctx, "t1", "u1", "missing")
		assert.ErrorIs(t, err, ErrQuizNotFound)
	})

	t.Run("another user gets not found", func(t *testing.T) {
		_, _, err := svc.Get(ctx, "t1", "u2", "quiz-1")
		assert.ErrorIs(t, err, ErrQuizNotFound)
	})

	t.Run("another tenant gets not found", func(t *testing.T) {
		_, _, err := svc.Get(ctx, "t2", "u1", "quiz-1")
		assert.ErrorIs(t, err, ErrQuizNotFound)
	})
}

func TestQuizSaveProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites session state", func(t *testing.T) {
		svc, _, sessions := newQuizEnv(t)

		got, err := svc.SaveProgress(ctx, "t1", "u1", "sess-1", 2, []int{1, 0}, []string{"easy", ""}, false)
		require.NoError(t, err)
		assert.Equal(t, 2, got.CurrentIndex)
		assert.Equal(t, []int{1, 0}, got.Answers)
		assert.False(t, got.IsComplete)
		assert.Equal(t, got, sessions.sessions["sess-1"])
	})

	t.Run("marks completion", func(t *testing.T) {
		svc, _, sessions := newQuizEnv(t)

		_, err := svc.SaveProgress(ctx, "t1", "u1", "sess-1", 3, []int{1, 0, 2}, nil, true)
		require.NoError(t, err)
		assert.True(t, sessions.sessions["sess-1"].IsComplete)
	})

	t.Run("clamps a negative index", func(t *testing.T) {
		svc, _, sessions := newQuizEnv(t)

		_, err := svc.SaveProgress(ctx, "t1", "u1", "sess-1", -4, nil, nil, false)
		require.NoError(t, err)
		assert.Zero(t, sessions.sessions["sess-1"].CurrentIndex)
	})

	t.Run("foreign session is not found", func(t *testing.T) {
		svc, _, _ := newQuizEnv(t)

		_, err := svc.SaveProgress(ctx, "t1", "u2", "sess-1", 1, nil, nil, false)
		assert.ErrorIs(t, err, ErrSessionNotFound)

		_, err = svc.SaveProgress(ctx, "t1", "u1", "missing", 1, nil, nil, false)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

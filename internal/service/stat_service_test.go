package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbank/internal/aggregate"
	"medbank/internal/model"
	"medbank/internal/trigger"
)

type statEnv struct {
	svc       *StatService
	questions *fakeQuestionRepo
	stats     *fakeStatRepo
	bookmarks *fakeBookmarkRepo
	counts    *fakeCountsRepo
}

func newStatEnv(t *testing.T) (*statEnv, string) {
	t.Helper()
	e := &statEnv{
		questions: newFakeQuestionRepo(),
		stats:     &fakeStatRepo{},
		bookmarks: &fakeBookmarkRepo{},
		counts:    newFakeCountsRepo(),
	}
	triggers := trigger.NewEngine(aggregate.NewMemoryStore(), e.counts, quietLogger())
	e.svc = NewStatService(e.questions, e.stats, e.bookmarks, e.counts, triggers)

	q := &model.Question{
		TenantID: "t1", ThemeID: "t-trauma", SubthemeID: "s-fractures", GroupID: "g-open",
	}
	require.NoError(t, e.questions.Create(context.Background(), q))
	return e, q.ID
}

func TestRecordAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("first wrong answer bumps answered and incorrect counters", func(t *testing.T) {
		e, qid := newStatEnv(t)

		stat, err := e.svc.RecordAnswer(ctx, "t1", "u1", qid, false)
		require.NoError(t, err)
		assert.True(t, stat.HasAnswered)
		assert.True(t, stat.IsIncorrect)
		assert.Equal(t, "g-open", stat.GroupID)

		rec := e.counts.records["t1/u1"]
		require.NotNil(t, rec)
		assert.Equal(t, 1, rec.AnsweredByTheme["t-trauma"])
		assert.Equal(t, 1, rec.IncorrectByGroup["g-open"])
	})

	t.Run("repeated answer keeps one row and the last result", func(t *testing.T) {
		e, qid := newStatEnv(t)

		_, err := e.svc.RecordAnswer(ctx, "t1", "u1", qid, false)
		require.NoError(t, err)
		_, err = e.svc.RecordAnswer(ctx, "t1", "u1", qid, true)
		require.NoError(t, err)

		require.Len(t, e.stats.rows, 1)
		assert.False(t, e.stats.rows[0].IsIncorrect)

		rec := e.counts.records["t1/u1"]
		assert.Equal(t, 1, rec.AnsweredByTheme["t-trauma"])
		assert.Empty(t, rec.IncorrectByGroup)
	})

	t.Run("unknown question is rejected", func(t *testing.T) {
		e, _ := newStatEnv(t)
		_, err := e.svc.RecordAnswer(ctx, "t1", "u1", "q-ghost", true)
		assert.ErrorIs(t, err, ErrQuestionNotFound)
	})
}

func TestToggleBookmark(t *testing.T) {
	ctx := context.Background()
	e, qid := newStatEnv(t)

	on, err := e.svc.ToggleBookmark(ctx, "t1", "u1", qid)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 1, e.counts.records["t1/u1"].BookmarkedByGroup["g-open"])

	off, err := e.svc.ToggleBookmark(ctx, "t1", "u1", qid)
	require.NoError(t, err)
	assert.False(t, off)
	assert.Empty(t, e.bookmarks.rows)
	assert.Empty(t, e.counts.records["t1/u1"].BookmarkedByGroup)
}

func TestGetCounts(t *testing.T) {
	e, _ := newStatEnv(t)
	counts, err := e.svc.GetCounts(context.Background(), "t1", "nobody")
	require.NoError(t, err)
	assert.Empty(t, counts.AnsweredByTheme)
	assert.Equal(t, "nobody", counts.UserID)
}

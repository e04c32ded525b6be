package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbank/internal/model"
)

type fakeJobRepo struct {
	jobs map[string]*model.QuizCreationJob
	seq  int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*model.QuizCreationJob)}
}

func (f *fakeJobRepo) Create(_ context.Context, job *model.QuizCreationJob) error {
	f.seq++
	job.ID = "job-1"
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) Get(_ context.Context, id string) (*model.QuizCreationJob, error) {
	return f.jobs[id], nil
}

func (f *fakeJobRepo) Update(_ context.Context, job *model.QuizCreationJob) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) LatestByUser(_ context.Context, tenantID, userID string) (*model.QuizCreationJob, error) {
	for _, j := range f.jobs {
		if j.TenantID == tenantID && j.UserID == userID {
			return j, nil
		}
	}
	return nil, nil
}

func (f *fakeJobRepo) ListUnfinished(context.Context) ([]string, error) { return nil, nil }

type recordingQueue struct {
	enqueued []string
}

func (q *recordingQueue) Enqueue(jobID string) { q.enqueued = append(q.enqueued, jobID) }

func validRequest() model.QuizRequest {
	return model.QuizRequest{Name: "Review", Mode: model.ModeAll, NumQuestions: 20}
}

func TestCreateWithWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a pending job and enqueues it", func(t *testing.T) {
		jobs := newFakeJobRepo()
		queue := &recordingQueue{}
		svc := NewJobService(jobs, newFakeTaxonomyRepo(), queue, "default")

		jobID, workflowID, err := svc.CreateWithWorkflow(ctx, "t1", "u1", validRequest())
		require.NoError(t, err)
		assert.NotEmpty(t, workflowID)
		assert.Equal(t, []string{jobID}, queue.enqueued)

		job := jobs.jobs[jobID]
		require.NotNil(t, job)
		assert.Equal(t, model.JobPending, job.Status)
		assert.Equal(t, "t1", job.TenantID)
		assert.Equal(t, "u1", job.UserID)
	})

	t.Run("falls back to the default tenant", func(t *testing.T) {
		jobs := newFakeJobRepo()
		svc := NewJobService(jobs, newFakeTaxonomyRepo(), &recordingQueue{}, "default")

		jobID, _, err := svc.CreateWithWorkflow(ctx, "", "u1", validRequest())
		require.NoError(t, err)
		assert.Equal(t, "default", jobs.jobs[jobID].TenantID)
	})

	t.Run("accepts an omitted question count", func(t *testing.T) {
		jobs := newFakeJobRepo()
		queue := &recordingQueue{}
		svc := NewJobService(jobs, newFakeTaxonomyRepo(), queue, "default")

		jobID, _, err := svc.CreateWithWorkflow(ctx, "t1", "u1",
			model.QuizRequest{Name: "Quick quiz", Mode: model.ModeAll})
		require.NoError(t, err)
		assert.Equal(t, []string{jobID}, queue.enqueued)
		assert.Zero(t, jobs.jobs[jobID].Request.NumQuestions)
	})

	t.Run("resolves ancestry maps when the client omits them", func(t *testing.T) {
		jobs := newFakeJobRepo()
		taxonomy := newFakeTaxonomyRepo()
		require.NoError(t, taxonomy.CreateSubtheme(ctx, &model.Subtheme{ID: "s1", ThemeID: "t-1"}))
		require.NoError(t, taxonomy.CreateGroup(ctx, &model.Group{ID: "g1", SubthemeID: "s1"}))
		svc := NewJobService(jobs, taxonomy, &recordingQueue{}, "default")

		req := validRequest()
		req.Filters.ThemeIDs = []string{"t-1"}
		jobID, _, err := svc.CreateWithWorkflow(ctx, "t1", "u1", req)
		require.NoError(t, err)

		stored := jobs.jobs[jobID]
		assert.Equal(t, map[string]string{"g1": "s1"}, stored.Request.GroupToSubtheme)
		assert.Equal(t, map[string]string{"s1": "t-1"}, stored.Request.SubthemeToTheme)
	})

	t.Run("rejects bad shapes", func(t *testing.T) {
		svc := NewJobService(newFakeJobRepo(), newFakeTaxonomyRepo(), &recordingQueue{}, "default")

		bad := map[string]model.QuizRequest{
			"missing name":       {Mode: model.ModeAll, NumQuestions: 10},
			"unknown mode":       {Name: "x", Mode: "speedrun", NumQuestions: 10},
			"negative questions": {Name: "x", Mode: model.ModeAll, NumQuestions: -1},
			"over the cap":       {Name: "x", Mode: model.ModeAll, NumQuestions: model.MaxQuizQuestions + 1},
		}
		for name, req := range bad {
			_, _, err := svc.CreateWithWorkflow(ctx, "t1", "u1", req)
			assert.ErrorIs(t, err, ErrInvalidRequest, name)
		}
	})
}

func TestGetJobStatus(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	svc := NewJobService(jobs, newFakeTaxonomyRepo(), &recordingQueue{}, "default")

	jobID, _, err := svc.CreateWithWorkflow(ctx, "t1", "u1", validRequest())
	require.NoError(t, err)

	t.Run("projects the job", func(t *testing.T) {
		view, err := svc.GetJobStatus(ctx, "t1", jobID)
		require.NoError(t, err)
		assert.Equal(t, jobID, view.JobID)
		assert.Equal(t, model.JobPending, view.Status)
	})

	t.Run("another tenant cannot see it", func(t *testing.T) {
		_, err := svc.GetJobStatus(ctx, "t2", jobID)
		assert.ErrorIs(t, err, ErrJobNotFound)
	})

	t.Run("latest finds the caller's job", func(t *testing.T) {
		view, err := svc.GetLatestJob(ctx, "t1", "u1")
		require.NoError(t, err)
		assert.Equal(t, jobID, view.JobID)

		_, err = svc.GetLatestJob(ctx, "t1", "nobody")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

package workflow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medbank/internal/aggregate"
	"medbank/internal/model"
)

func waitTerminal(t *testing.T, jobs *fakeJobs, jobID string) *model.QuizCreationJob {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if job := jobs.get(jobID); job != nil && job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal state", jobID)
	return nil
}

func TestWorkerRunsEnqueuedJobs(t *testing.T) {
	e := newEnv()
	ns := aggregate.Namespace{Name: aggregate.QuestionSampleTotal, Tenant: "t1"}
	for i := 1; i <= 5; i++ {
		require.NoError(t, e.store.Insert(context.Background(), ns, fmt.Sprintf("q%d", i)))
	}
	job := e.newJob(model.QuizRequest{Name: "Pooled", Mode: model.ModeAll, NumQuestions: 3})

	w := NewWorker(e.runner, e.jobs, 2, quiet())
	w.Enqueue(job.ID)

	got := waitTerminal(t, e.jobs, job.ID)
	assert.Equal(t, model.JobCompleted, got.Status)
	assert.Equal(t, 3, got.QuestionCount)

	w.Stop()
}

func TestWorkerRecoversUnfinishedJobs(t *testing.T) {
	e := newEnv()
	e.seedTrauma()

	// A job a previous process left mid-collection.
	job := e.newJob(traumaRequest(model.ModeAll, 50))
	_, err := e.runner.Advance(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobCollecting, e.jobs.get(job.ID).Status)

	w := NewWorker(e.runner, e.jobs, 1, quiet())
	require.NoError(t, w.Start(context.Background()))

	got := waitTerminal(t, e.jobs, job.ID)
	assert.Equal(t, model.JobCompleted, got.Status)
	assert.ElementsMatch(t, []string{"q1", "q2", "q3", "q6", "q7"}, e.quizzes.quizzes[0].QuestionIDs)

	w.Stop()
}

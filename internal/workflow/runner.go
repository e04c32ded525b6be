// Package workflow drives quiz creation jobs through their persisted
// state machine. Every Advance call does one bounded unit of work and
// writes the updated checkpoint back to the job document, so a crashed
// or restarted worker resumes exactly where the last step left off.
package workflow

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"medbank/internal/aggregate"
	"medbank/internal/collection"
	"medbank/internal/config"
	"medbank/internal/model"
	"medbank/internal/repository"
)

// Runner executes quiz creation jobs step by step.
type Runner struct {
	jobs      repository.JobRepo
	questions repository.QuestionRepo
	stats     repository.StatRepo
	bookmarks repository.BookmarkRepo
	quizzes   repository.QuizRepo
	sessions  repository.SessionRepo
	store     aggregate.Store
	cfg       *config.Config
	log       *logrus.Logger
}

// NewRunner creates a workflow runner.
func NewRunner(
	jobs repository.JobRepo,
	questions repository.QuestionRepo,
	stats repository.StatRepo,
	bookmarks repository.BookmarkRepo,
	quizzes repository.QuizRepo,
	sessions repository.SessionRepo,
	store aggregate.Store,
	cfg *config.Config,
	log *logrus.Logger,
) *Runner {
	return &Runner{
		jobs:      jobs,
		questions: questions,
		stats:     stats,
		bookmarks: bookmarks,
		quizzes:   quizzes,
		sessions:  sessions,
		store:     store,
		cfg:       cfg,
		log:       log,
	}
}

// Run advances the job until it reaches a terminal state. Any error
// escaping a step marks the job failed with WORKFLOW_ERROR; a job never
// stays stuck in a non-terminal state because of an exception.
func (r *Runner) Run(ctx context.Context, jobID string) {
	for {
		done, err := r.Advance(ctx, jobID)
		if err != nil {
			r.log.WithError(err).WithField("jobId", jobID).Error("workflow step failed")
			r.abort(ctx, jobID, err)
			return
		}
		if done {
			return
		}
	}
}

// Advance executes exactly one step of the job and reports whether the
// job is now terminal. Steps are idempotent: re-running a step with the
// same persisted checkpoint produces the same persisted result.
func (r *Runner) Advance(ctx context.Context, jobID string) (bool, error) {
	job, err := r.jobs.Get(ctx, jobID)
	if err != nil {
		return true, fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return true, fmt.Errorf("job %s does not exist", jobID)
	}
	if job.Status.Terminal() {
		return true, nil
	}

	switch job.Status {
	case model.JobPending:
		return r.stepPlan(ctx, job)
	case model.JobCollecting:
		return r.stepCollect(ctx, job)
	case model.JobSelecting:
		return r.stepSelect(ctx, job)
	case model.JobCreating:
		return r.stepCreate(ctx, job)
	default:
		return true, fmt.Errorf("job %s in unknown status %q", job.ID, job.Status)
	}
}

// stepPlan validates the request and lays out the collection plan: the
// surviving taxonomy nodes to enumerate, narrowest level first.
func (r *Runner) stepPlan(ctx context.Context, job *model.QuizCreationJob) (bool, error) {
	req := job.Request
	if !req.Mode.Valid() {
		return true, r.fail(ctx, job, model.ErrCodeWorkflow, fmt.Sprintf("unknown question mode %q", req.Mode))
	}

	sel := selectionOf(req)
	if !sel.Empty() {
		plan := collection.BuildPlan(sel, ancestryOf(req))
		job.Checkpoint.Plan = make([]model.PlanNode, 0, len(plan))
		for _, e := range plan {
			job.Checkpoint.Plan = append(job.Checkpoint.Plan, model.PlanNode{Level: e.Level, ID: e.ID})
		}
	}

	job.Status = model.JobCollecting
	job.Progress = 5
	job.ProgressMessage = "Collecting questions"
	return false, r.save(ctx, job)
}

// stepCreate materializes the quiz and session. The quiz carries the
// job ID, and the step looks it up first, so a retry after a crash
// mid-step never creates a second quiz.
func (r *Runner) stepCreate(ctx context.Context, job *model.QuizCreationJob) (bool, error) {
	tenantID := job.TenantID
	if tenantID == "" {
		tenantID = r.cfg.DefaultTenantID
	}

	quiz, err := r.quizzes.GetByJobID(ctx, job.ID)
	if err != nil {
		return true, fmt.Errorf("failed to look up quiz by job: %w", err)
	}
	if quiz == nil {
		quiz = &model.CustomQuiz{
			TenantID:    tenantID,
			OwnerID:     job.UserID,
			JobID:       job.ID,
			Name:        job.Request.Name,
			Description: job.Request.Description,
			TestMode:    job.Request.TestMode,
			Mode:        job.Request.Mode,
			Filters:     job.Request.Filters,
			QuestionIDs: job.Checkpoint.Accepted,
		}
		if err := r.quizzes.Create(ctx, quiz); err != nil {
			return true, fmt.Errorf("failed to create quiz: %w", err)
		}
	}

	session, err := r.sessions.GetByQuiz(ctx, quiz.ID)
	if err != nil {
		return true, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		session = &model.QuizSession{
			TenantID:     tenantID,
			QuizID:       quiz.ID,
			UserID:       job.UserID,
			CurrentIndex: 0,
			Answers:      []int{},
			Feedback:     []string{},
		}
		if err := r.sessions.Create(ctx, session); err != nil {
			return true, fmt.Errorf("failed to create session: %w", err)
		}
	}

	job.Status = model.JobCompleted
	job.Progress = 100
	job.ProgressMessage = "Quiz created"
	job.QuizID = quiz.ID
	job.QuestionCount = len(quiz.QuestionIDs)
	if err := r.save(ctx, job); err != nil {
		return true, err
	}

	r.log.WithFields(logrus.Fields{
		"jobId": job.ID, "quizId": quiz.ID, "questions": job.QuestionCount,
	}).Info("quiz creation job completed")
	return true, nil
}

// fail marks the job failed with the given error code. Used for the
// expected business failures; unexpected errors go through abort.
func (r *Runner) fail(ctx context.Context, job *model.QuizCreationJob, code, message string) error {
	job.Status = model.JobFailed
	job.ErrorCode = code
	job.ErrorMessage = message
	job.ProgressMessage = ""
	if err := r.save(ctx, job); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"jobId": job.ID, "code": code, "message": message,
	}).Warn("quiz creation job failed")
	return nil
}

// abort is the top-level catch: it maps an escaped step error onto the
// job so no exception leaves a job non-terminal.
func (r *Runner) abort(ctx context.Context, jobID string, cause error) {
	job, err := r.jobs.Get(ctx, jobID)
	if err != nil || job == nil || job.Status.Terminal() {
		return
	}
	if err := r.fail(ctx, job, model.ErrCodeWorkflow, cause.Error()); err != nil {
		r.log.WithError(err).WithField("jobId", jobID).Error("could not mark job failed")
	}
}

func (r *Runner) save(ctx context.Context, job *model.QuizCreationJob) error {
	if err := r.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to persist job: %w", err)
	}
	return nil
}

// targetCount clamps the requested size to the quiz cap.
func targetCount(job *model.QuizCreationJob) int {
	n := job.Request.NumQuestions
	if n <= 0 || n > model.MaxQuizQuestions {
		n = model.MaxQuizQuestions
	}
	return n
}

func selectionOf(req model.QuizRequest) collection.Selection {
	return collection.Selection{
		Themes:    req.Filters.ThemeIDs,
		Subthemes: req.Filters.SubthemeIDs,
		Groups:    req.Filters.GroupIDs,
	}
}

func ancestryOf(req model.QuizRequest) collection.AncestryMaps {
	return collection.AncestryMaps{
		GroupToSubtheme: req.GroupToSubtheme,
		SubthemeToTheme: req.SubthemeToTheme,
	}
}

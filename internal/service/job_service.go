package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"medbank/internal/model"
	"medbank/internal/repository"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrInvalidRequest = errors.New("invalid quiz request")
)

// Enqueuer schedules a job for background execution.
type Enqueuer interface {
	Enqueue(jobID string)
}

// JobService creates quiz creation jobs and serves their status. Only
// shape validation happens here; business validation (empty result
// sets, exhausted samples) belongs to the workflow so its outcome lands
// on the job record the client polls.
type JobService struct {
	jobs            repository.JobRepo
	taxonomy        repository.TaxonomyRepo
	queue           Enqueuer
	defaultTenantID string
}

// NewJobService creates a new job service.
func NewJobService(jobs repository.JobRepo, taxonomy repository.TaxonomyRepo, queue Enqueuer, defaultTenantID string) *JobService {
	return &JobService{jobs: jobs, taxonomy: taxonomy, queue: queue, defaultTenantID: defaultTenantID}
}

// CreateWithWorkflow persists a pending job for the request and hands
// it to the worker pool. The response carries only the identifiers the
// client needs to start polling.
func (s *JobService) CreateWithWorkflow(ctx context.Context, tenantID, userID string, req model.QuizRequest) (jobID, workflowID string, err error) {
	if err := validateRequest(req); err != nil {
		return "", "", err
	}
	if tenantID == "" {
		tenantID = s.defaultTenantID
	}

	// Clients usually send the ancestry maps alongside their selections;
	// when they do not, resolve them here so the workflow never touches
	// the taxonomy collections mid-run.
	if !req.Filters.Empty() && len(req.GroupToSubtheme) == 0 && len(req.SubthemeToTheme) == 0 {
		g2s, s2t, err := s.taxonomy.AncestryMaps(ctx, tenantID)
		if err != nil {
			return "", "", fmt.Errorf("failed to resolve taxonomy ancestry: %w", err)
		}
		req.GroupToSubtheme = g2s
		req.SubthemeToTheme = s2t
	}

	job := &model.QuizCreationJob{
		WorkflowID: uuid.NewString(),
		TenantID:   tenantID,
		UserID:     userID,
		Status:     model.JobPending,
		Request:    req,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return "", "", fmt.Errorf("failed to create job: %w", err)
	}

	s.queue.Enqueue(job.ID)
	return job.ID, job.WorkflowID, nil
}

// GetJobStatus returns the client-visible projection of a job.
func (s *JobService) GetJobStatus(ctx context.Context, tenantID, jobID string) (*model.JobStatusView, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil || job.TenantID != tenantID {
		return nil, ErrJobNotFound
	}
	return job.StatusView(), nil
}

// GetLatestJob returns the status of the caller's most recent job.
func (s *JobService) GetLatestJob(ctx context.Context, tenantID, userID string) (*model.JobStatusView, error) {
	job, err := s.jobs.LatestByUser(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest job: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job.StatusView(), nil
}

func validateRequest(req model.QuizRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if !req.Mode.Valid() {
		return fmt.Errorf("%w: unknown question mode %q", ErrInvalidRequest, req.Mode)
	}
	// numQuestions is optional; omitted (zero) means "up to the cap",
	// which the workflow resolves when it sizes the final draw.
	if req.NumQuestions < 0 || req.NumQuestions > model.MaxQuizQuestions {
		return fmt.Errorf("%w: numQuestions must be between 0 and %d", ErrInvalidRequest, model.MaxQuizQuestions)
	}
	return nil
}

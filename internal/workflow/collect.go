package workflow

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"medbank/internal/aggregate"
	"medbank/internal/collection"
	"medbank/internal/model"
	"medbank/internal/repository"
)

// stepCollect does one bounded unit of the collecting_questions phase.
// Which unit depends on (mode, hasFilters); each branch persists its
// cursor state so the next call picks up where this one stopped.
func (r *Runner) stepCollect(ctx context.Context, job *model.QuizCreationJob) (bool, error) {
	switch {
	case !job.Request.Filters.Empty():
		return r.collectHierarchy(ctx, job)
	case job.Request.Mode == model.ModeAll:
		return r.collectGlobalSample(ctx, job)
	case job.Request.Mode == model.ModeUnanswered:
		return r.collectUnanswered(ctx, job)
	default:
		return r.collectModal(ctx, job)
	}
}

// collectGlobalSample handles mode=all with no filters: one uniform
// draw from the tenant-wide sampling aggregate is the whole collection.
func (r *Runner) collectGlobalSample(ctx context.Context, job *model.QuizCreationJob) (bool, error) {
	ns := aggregate.Namespace{Name: aggregate.QuestionSampleTotal, Tenant: r.tenantOf(job)}
	ids, err := r.store.RandomDraw(ctx, ns, targetCount(job))
	if err != nil {
		return true, fmt.Errorf("failed to draw random questions: %w", err)
	}
	job.Checkpoint.Collected = ids
	return r.toSelecting(ctx, job)
}

// collectHierarchy walks the plan one page (or, in the sampled variant,
// one node) at a time, accumulating matching question IDs.
func (r *Runner) collectHierarchy(ctx context.Context, job *model.QuizCreationJob) (bool, error) {
	cp := &job.Checkpoint
	if cp.NodeIndex >= len(cp.Plan) {
		return r.toSelecting(ctx, job)
	}

	node := cp.Plan[cp.NodeIndex]
	set := collection.NewSet(cp.Collected...)

	if r.cfg.SampledCollection && job.Request.Mode == model.ModeAll {
		if err := r.sampleNode(ctx, job, node, set); err != nil {
			return true, err
		}
		cp.NodeIndex++
	} else {
		page, err := r.questions.PageIDsByNode(ctx, r.tenantOf(job), node.Level, node.ID, cp.Cursor, r.pageSize())
		if err != nil {
			return true, fmt.Errorf("failed to page questions for %s %s: %w", node.Level, node.ID, err)
		}
		set.Add(page.IDs...)
		if page.IsDone {
			cp.NodeIndex++
			cp.Cursor = ""
		} else {
			cp.Cursor = page.ContinueCursor
		}
	}

	cp.Collected = set.IDs()
	if cp.NodeIndex >= len(cp.Plan) {
		return r.toSelecting(ctx, job)
	}
	job.Progress = 10 + (55*cp.NodeIndex)/len(cp.Plan)
	job.ProgressMessage = fmt.Sprintf("Collecting questions (%d/%d nodes)", cp.NodeIndex, len(cp.Plan))
	return false, r.save(ctx, job)
}

// sampleNode draws from one node's sampling aggregate instead of
// enumerating it. Subtheme and theme draws must exclude questions
// belonging to overriding selected groups; the sampling aggregate
// cannot express that negative filter, so the complement comes from a
// direct indexed query.
func (r *Runner) sampleNode(ctx context.Context, job *model.QuizCreationJob, node model.PlanNode, set *collection.Set) error {
	tenant := r.tenantOf(job)
	ns := aggregate.Namespace{Name: sampleAggregate(node.Level), Tenant: tenant, Node: node.ID}
	ids, err := r.store.RandomDraw(ctx, ns, targetCount(job))
	if err != nil {
		return fmt.Errorf("failed to sample %s %s: %w", node.Level, node.ID, err)
	}

	if node.Level != collection.LevelGroup {
		groups := collection.OverridingGroups(node.Level, node.ID, selectionOf(job.Request), ancestryOf(job.Request))
		if len(groups) > 0 {
			excluded, err := r.questions.IDsByGroups(ctx, tenant, groups)
			if err != nil {
				return fmt.Errorf("failed to resolve override complement: %w", err)
			}
			ids = collection.Subtract(ids, collection.NewSet(excluded...))
		}
	}

	set.Add(ids...)
	return nil
}

// collectModal handles incorrect/bookmarked with no filters: the modal
// tables are indexed by user and carry denormalized taxonomy, so one
// paginated read per step is the entire collection.
func (r *Runner) collectModal(ctx context.Context, job *model.QuizCreationJob) (bool, error) {
	cp := &job.Checkpoint
	page, err := r.modalPage(ctx, job, cp.Cursor)
	if err != nil {
		return true, err
	}

	set := collection.NewSet(cp.Collected...)
	set.Add(page.IDs...)
	cp.Collected = set.IDs()

	if page.IsDone {
		cp.Cursor = ""
		return r.toSelecting(ctx, job)
	}
	cp.Cursor = page.ContinueCursor
	job.Progress = 30
	job.ProgressMessage = "Collecting questions"
	return false, r.save(ctx, job)
}

// collectUnanswered handles unanswered with no filters. Phase one pages
// the user's answered set; phase two runs bounded rounds of global
// random draws, rejecting answered IDs, until the target is reached,
// a draw comes back short, or the round cap trips.
func (r *Runner) collectUnanswered(ctx context.Context, job *model.QuizCreationJob) (bool, error) {
	cp := &job.Checkpoint
	tenant := r.tenantOf(job)

	if !cp.AnsweredDone {
		page, err := r.stats.PageQuestionIDsByUser(ctx, tenant, job.UserID, cp.Cursor, r.pageSize(), false)
		if err != nil {
			return true, fmt.Errorf("failed to page answered questions: %w", err)
		}
		ans := collection.NewSet(cp.Answered...)
		ans.Add(page.IDs...)
		cp.Answered = ans.IDs()
		if page.IsDone {
			cp.AnsweredDone = true
			cp.Cursor = ""
		} else {
			cp.Cursor = page.ContinueCursor
		}
		job.Progress = 20
		job.ProgressMessage = "Collecting answered questions"
		return false, r.save(ctx, job)
	}

	target := targetCount(job)
	batch := r.sampleBatch()
	ns := aggregate.Namespace{Name: aggregate.QuestionSampleTotal, Tenant: tenant}
	ids, err := r.store.RandomDraw(ctx, ns, batch)
	if err != nil {
		return true, fmt.Errorf("failed to draw sampling round: %w", err)
	}

	answered := collection.NewSet(cp.Answered...)
	accepted := collection.NewSet(cp.Accepted...)
	for _, id := range ids {
		if !answered.Contains(id) {
			accepted.Add(id)
		}
	}
	cp.Accepted = accepted.IDs()
	cp.Rounds++

	// A short draw means the aggregate population is exhausted; more
	// rounds cannot surface new candidates.
	exhausted := len(ids) < batch
	if accepted.Len() >= target || exhausted || cp.Rounds >= r.maxSampleRounds() {
		return r.toSelecting(ctx, job)
	}
	job.Progress = 20 + (50*accepted.Len())/target
	job.ProgressMessage = fmt.Sprintf("Sampling unanswered questions (round %d)", cp.Rounds)
	return false, r.save(ctx, job)
}

// stepSelect narrows the collected candidates to the final ID list:
// modal intersection or answered-set subtraction where a modal filter
// applies, then the empty check and the shuffle-trim to the cap.
func (r *Runner) stepSelect(ctx context.Context, job *model.QuizCreationJob) (bool, error) {
	cp := &job.Checkpoint
	hasFilters := !job.Request.Filters.Empty()

	switch {
	case job.Request.Mode == model.ModeAll:
		return r.finishSelection(ctx, job, cp.Collected)

	case !hasFilters:
		if job.Request.Mode == model.ModeUnanswered {
			return r.finishSelection(ctx, job, cp.Accepted)
		}
		return r.finishSelection(ctx, job, cp.Collected)

	case job.Request.Mode == model.ModeUnanswered:
		// Hierarchy result minus the user's answered set, paged.
		page, err := r.stats.PageQuestionIDsByUser(ctx, r.tenantOf(job), job.UserID, cp.ModalCursor, r.pageSize(), false)
		if err != nil {
			return true, fmt.Errorf("failed to page answered questions: %w", err)
		}
		ans := collection.NewSet(cp.Answered...)
		ans.Add(page.IDs...)
		cp.Answered = ans.IDs()
		if !page.IsDone {
			cp.ModalCursor = page.ContinueCursor
			job.Progress = 75
			job.ProgressMessage = "Filtering answered questions"
			return false, r.save(ctx, job)
		}
		return r.finishSelection(ctx, job, collection.Subtract(cp.Collected, ans))

	default:
		// Hierarchy result intersected with the modal table, paged.
		page, err := r.modalPage(ctx, job, cp.ModalCursor)
		if err != nil {
			return true, err
		}
		collected := collection.NewSet(cp.Collected...)
		accepted := collection.NewSet(cp.Accepted...)
		for _, id := range page.IDs {
			if collected.Contains(id) {
				accepted.Add(id)
			}
		}
		cp.Accepted = accepted.IDs()
		if !page.IsDone {
			cp.ModalCursor = page.ContinueCursor
			job.Progress = 75
			job.ProgressMessage = "Filtering questions"
			return false, r.save(ctx, job)
		}
		return r.finishSelection(ctx, job, cp.Accepted)
	}
}

// finishSelection applies the empty check and the uniform down-sample,
// then hands off to the creating phase.
func (r *Runner) finishSelection(ctx context.Context, job *model.QuizCreationJob, candidates []string) (bool, error) {
	if len(candidates) == 0 {
		code := model.ErrCodeNoQuestionsAfterFilter
		if job.Request.Mode == model.ModeAll && job.Request.Filters.Empty() {
			code = model.ErrCodeNoQuestions
		}
		return true, r.fail(ctx, job, code, "no questions matched the request")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	job.Checkpoint.Accepted = collection.ShuffleTrim(candidates, targetCount(job), rng)
	job.Status = model.JobCreating
	job.Progress = 90
	job.ProgressMessage = "Creating quiz"
	return false, r.save(ctx, job)
}

func (r *Runner) toSelecting(ctx context.Context, job *model.QuizCreationJob) (bool, error) {
	job.Status = model.JobSelecting
	job.Progress = 70
	job.ProgressMessage = "Selecting questions"
	return false, r.save(ctx, job)
}

// modalPage reads one page of the user's modal table for the job's mode.
func (r *Runner) modalPage(ctx context.Context, job *model.QuizCreationJob, cursor string) (*repository.Page, error) {
	tenant := r.tenantOf(job)
	switch job.Request.Mode {
	case model.ModeIncorrect:
		page, err := r.stats.PageQuestionIDsByUser(ctx, tenant, job.UserID, cursor, r.pageSize(), true)
		if err != nil {
			return nil, fmt.Errorf("failed to page incorrect questions: %w", err)
		}
		return page, nil
	case model.ModeBookmarked:
		page, err := r.bookmarks.PageQuestionIDsByUser(ctx, tenant, job.UserID, cursor, r.pageSize())
		if err != nil {
			return nil, fmt.Errorf("failed to page bookmarked questions: %w", err)
		}
		return page, nil
	default:
		return nil, fmt.Errorf("mode %q has no modal table", job.Request.Mode)
	}
}

func (r *Runner) tenantOf(job *model.QuizCreationJob) string {
	if job.TenantID != "" {
		return job.TenantID
	}
	return r.cfg.DefaultTenantID
}

func (r *Runner) pageSize() int {
	if r.cfg.PageSize > 0 {
		return r.cfg.PageSize
	}
	return 200
}

func (r *Runner) sampleBatch() int {
	if r.cfg.SampleBatch > 0 {
		return r.cfg.SampleBatch
	}
	return 50
}

func (r *Runner) maxSampleRounds() int {
	if r.cfg.MaxSampleRounds > 0 {
		return r.cfg.MaxSampleRounds
	}
	return 20
}

func sampleAggregate(level string) string {
	switch level {
	case collection.LevelGroup:
		return aggregate.QuestionSampleByGroup
	case collection.LevelSubtheme:
		return aggregate.QuestionSampleBySubtheme
	default:
		return aggregate.QuestionSampleByTheme
	}
}

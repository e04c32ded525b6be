package model

import "time"

// JobStatus is the workflow state of a quiz creation job. Transitions
// are one-directional; completed and failed are terminal.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobCollecting JobStatus = "collecting_questions"
	JobSelecting  JobStatus = "selecting_questions"
	JobCreating   JobStatus = "creating_quiz"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further steps may run for this status.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Workflow error codes surfaced on failed jobs.
const (
	ErrCodeNoQuestions            = "NO_QUESTIONS_FOUND"
	ErrCodeNoQuestionsAfterFilter = "NO_QUESTIONS_FOUND_AFTER_FILTER"
	ErrCodeWorkflow               = "WORKFLOW_ERROR"
)

// QuizRequest is the original creation request, persisted verbatim on
// the job so every step can re-read its input.
type QuizRequest struct {
	Name            string            `json:"name" bson:"name"`
	Description     string            `json:"description,omitempty" bson:"description,omitempty"`
	TestMode        bool              `json:"testMode" bson:"testMode"`
	Mode            QuestionMode      `json:"questionMode" bson:"questionMode"`
	NumQuestions    int               `json:"numQuestions" bson:"numQuestions"`
	Filters         QuizFilters       `json:"filters" bson:"filters"`
	GroupToSubtheme map[string]string `json:"groupToSubtheme,omitempty" bson:"groupToSubtheme,omitempty"`
	SubthemeToTheme map[string]string `json:"subthemeToTheme,omitempty" bson:"subthemeToTheme,omitempty"`
}

// PlanNode is one taxonomy node scheduled for collection.
type PlanNode struct {
	Level string `json:"level" bson:"level"` // "group" | "subtheme" | "theme"
	ID    string `json:"id" bson:"id"`
}

// JobCheckpoint is the cross-step state of a running job. Steps re-read
// it, do one bounded unit of work, and write it back; nothing survives
// in memory between steps.
type JobCheckpoint struct {
	Plan      []PlanNode `json:"plan,omitempty" bson:"plan,omitempty"`
	NodeIndex int        `json:"nodeIndex" bson:"nodeIndex"`
	Cursor    string     `json:"cursor,omitempty" bson:"cursor,omitempty"`
	Collected []string   `json:"collected,omitempty" bson:"collected,omitempty"`

	// selecting_questions phase
	ModalCursor  string   `json:"modalCursor,omitempty" bson:"modalCursor,omitempty"`
	Accepted     []string `json:"accepted,omitempty" bson:"accepted,omitempty"`
	Answered     []string `json:"answered,omitempty" bson:"answered,omitempty"`
	AnsweredDone bool     `json:"answeredDone" bson:"answeredDone"`

	// iterative sampling (unanswered, no filters)
	Rounds int `json:"rounds" bson:"rounds"`
}

// QuizCreationJob is the durable record of one quiz creation workflow,
// polled by clients and mutated exclusively by workflow steps. Never
// deleted by the system.
type QuizCreationJob struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	WorkflowID string    `json:"workflowId" bson:"workflowId"`
	TenantID   string    `json:"tenantId" bson:"tenantId"`
	UserID     string    `json:"userId" bson:"userId"`
	Status     JobStatus `json:"status" bson:"status"`

	Progress        int    `json:"progress" bson:"progress"`
	ProgressMessage string `json:"progressMessage,omitempty" bson:"progressMessage,omitempty"`

	Request    QuizRequest   `json:"request" bson:"request"`
	Checkpoint JobCheckpoint `json:"checkpoint" bson:"checkpoint"`

	QuizID        string `json:"quizId,omitempty" bson:"quizId,omitempty"`
	QuestionCount int    `json:"questionCount,omitempty" bson:"questionCount,omitempty"`

	ErrorCode    string `json:"error,omitempty" bson:"error,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// JobStatusView is the read-only projection exposed by the status API.
type JobStatusView struct {
	JobID           string    `json:"jobId"`
	Status          JobStatus `json:"status"`
	Progress        int       `json:"progress"`
	ProgressMessage string    `json:"progressMessage,omitempty"`
	QuizID          string    `json:"quizId,omitempty"`
	QuestionCount   int       `json:"questionCount,omitempty"`
	Error           string    `json:"error,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
}

// StatusView projects the job into its client-visible shape.
func (j *QuizCreationJob) StatusView() *JobStatusView {
	return &JobStatusView{
		JobID:           j.ID,
		Status:          j.Status,
		Progress:        j.Progress,
		ProgressMessage: j.ProgressMessage,
		QuizID:          j.QuizID,
		QuestionCount:   j.QuestionCount,
		Error:           j.ErrorCode,
		ErrorMessage:    j.ErrorMessage,
	}
}

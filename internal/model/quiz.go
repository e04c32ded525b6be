package model

import "time"

// MaxQuizQuestions caps the question list of any custom quiz.
const MaxQuizQuestions = 120

// QuizFilters is the taxonomy selection a quiz was built from. Empty
// slices mean "no filter at that level".
type QuizFilters struct {
	ThemeIDs    []string `json:"themeIds,omitempty" bson:"themeIds,omitempty"`
	SubthemeIDs []string `json:"subthemeIds,omitempty" bson:"subthemeIds,omitempty"`
	GroupIDs    []string `json:"groupIds,omitempty" bson:"groupIds,omitempty"`
}

// Empty reports whether no taxonomy filter is set at any level.
func (f QuizFilters) Empty() bool {
	return len(f.ThemeIDs) == 0 && len(f.SubthemeIDs) == 0 && len(f.GroupIDs) == 0
}

// CustomQuiz is a materialized quiz built by the creation workflow.
// JobID ties it back to the job that built it, which is what makes the
// final workflow step idempotent.
type CustomQuiz struct {
	ID          string       `json:"id" bson:"_id,omitempty"`
	TenantID    string       `json:"tenantId" bson:"tenantId"`
	OwnerID     string       `json:"ownerId" bson:"ownerId"`
	JobID       string       `json:"jobId,omitempty" bson:"jobId,omitempty"`
	Name        string       `json:"name" bson:"name"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	TestMode    bool         `json:"testMode" bson:"testMode"`
	Mode        QuestionMode `json:"mode" bson:"mode"`
	Filters     QuizFilters  `json:"filters" bson:"filters"`
	QuestionIDs []string     `json:"questionIds" bson:"questionIds"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
}

// QuizSession tracks a user's progress through one quiz. Created in the
// same workflow step as the quiz itself.
type QuizSession struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	TenantID     string    `json:"tenantId" bson:"tenantId"`
	QuizID       string    `json:"quizId" bson:"quizId"`
	UserID       string    `json:"userId" bson:"userId"`
	CurrentIndex int       `json:"currentIndex" bson:"currentIndex"`
	Answers      []int     `json:"answers" bson:"answers"`
	Feedback     []string  `json:"feedback" bson:"feedback"`
	IsComplete   bool      `json:"isComplete" bson:"isComplete"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

package model

import "time"

// UserQuestionStat records one user's answer state for one question,
// with a denormalized copy of the question's taxonomy at answer time.
// Uniqueness per (user, question) is not enforced by the store; writes
// go through an upsert so the last answer wins.
type UserQuestionStat struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	TenantID    string    `json:"tenantId" bson:"tenantId"`
	UserID      string    `json:"userId" bson:"userId"`
	QuestionID  string    `json:"questionId" bson:"questionId"`
	HasAnswered bool      `json:"hasAnswered" bson:"hasAnswered"`
	IsIncorrect bool      `json:"isIncorrect" bson:"isIncorrect"`
	ThemeID     string    `json:"themeId" bson:"themeId"`
	SubthemeID  string    `json:"subthemeId,omitempty" bson:"subthemeId,omitempty"`
	GroupID     string    `json:"groupId,omitempty" bson:"groupId,omitempty"`
	AnsweredAt  time.Time `json:"answeredAt" bson:"answeredAt"`
}

// UserBookmark marks a question saved by a user, carrying the same
// denormalized taxonomy copy as the stats table.
type UserBookmark struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	TenantID   string    `json:"tenantId" bson:"tenantId"`
	UserID     string    `json:"userId" bson:"userId"`
	QuestionID string    `json:"questionId" bson:"questionId"`
	ThemeID    string    `json:"themeId" bson:"themeId"`
	SubthemeID string    `json:"subthemeId,omitempty" bson:"subthemeId,omitempty"`
	GroupID    string    `json:"groupId,omitempty" bson:"groupId,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// UserStatsCounts holds one user's per-node counters, one record per
// (tenant, user). Maps are node ID -> count. Adjusted incrementally by
// the trigger engine and the taxonomy sync; never rebuilt wholesale.
type UserStatsCounts struct {
	ID       string `json:"id" bson:"_id,omitempty"`
	TenantID string `json:"tenantId" bson:"tenantId"`
	UserID   string `json:"userId" bson:"userId"`

	AnsweredByTheme    map[string]int `json:"answeredByTheme" bson:"answeredByTheme"`
	AnsweredBySubtheme map[string]int `json:"answeredBySubtheme" bson:"answeredBySubtheme"`
	AnsweredByGroup    map[string]int `json:"answeredByGroup" bson:"answeredByGroup"`

	IncorrectByTheme    map[string]int `json:"incorrectByTheme" bson:"incorrectByTheme"`
	IncorrectBySubtheme map[string]int `json:"incorrectBySubtheme" bson:"incorrectBySubtheme"`
	IncorrectByGroup    map[string]int `json:"incorrectByGroup" bson:"incorrectByGroup"`

	BookmarkedByTheme    map[string]int `json:"bookmarkedByTheme" bson:"bookmarkedByTheme"`
	BookmarkedBySubtheme map[string]int `json:"bookmarkedBySubtheme" bson:"bookmarkedBySubtheme"`
	BookmarkedByGroup    map[string]int `json:"bookmarkedByGroup" bson:"bookmarkedByGroup"`

	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewUserStatsCounts returns a zeroed counts record with all maps allocated.
func NewUserStatsCounts(tenantID, userID string) *UserStatsCounts {
	return &UserStatsCounts{
		TenantID:             tenantID,
		UserID:               userID,
		AnsweredByTheme:      map[string]int{},
		AnsweredBySubtheme:   map[string]int{},
		AnsweredByGroup:      map[string]int{},
		IncorrectByTheme:     map[string]int{},
		IncorrectBySubtheme:  map[string]int{},
		IncorrectByGroup:     map[string]int{},
		BookmarkedByTheme:    map[string]int{},
		BookmarkedBySubtheme: map[string]int{},
		BookmarkedByGroup:    map[string]int{},
	}
}

// BumpCount adjusts m[node] by delta, clamping at zero to tolerate
// drift, and drops zeroed entries. A nil map or empty node is a no-op.
func BumpCount(m map[string]int, node string, delta int) {
	if m == nil || node == "" {
		return
	}
	n := m[node] + delta
	if n <= 0 {
		delete(m, node)
		return
	}
	m[node] = n
}

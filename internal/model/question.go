package model

import "time"

// QuestionMode selects which slice of the bank a custom quiz draws from.
type QuestionMode string

const (
	ModeAll        QuestionMode = "all"
	ModeUnanswered QuestionMode = "unanswered"
	ModeIncorrect  QuestionMode = "incorrect"
	ModeBookmarked QuestionMode = "bookmarked"
)

// Valid reports whether m is one of the known modes.
func (m QuestionMode) Valid() bool {
	switch m {
	case ModeAll, ModeUnanswered, ModeIncorrect, ModeBookmarked:
		return true
	}
	return false
}

// Question is a bank question classified under the three-level taxonomy.
// GroupID implies SubthemeID, SubthemeID implies ThemeID; the narrower
// reference must be consistent with the broader ones.
type Question struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	TenantID   string    `json:"tenantId" bson:"tenantId"`
	ThemeID    string    `json:"themeId" bson:"themeId"`
	SubthemeID string    `json:"subthemeId,omitempty" bson:"subthemeId,omitempty"`
	GroupID    string    `json:"groupId,omitempty" bson:"groupId,omitempty"`
	Title      string    `json:"title" bson:"title"`
	Text       string    `json:"text" bson:"text"`
	Options    []string  `json:"options,omitempty" bson:"options,omitempty"`
	CorrectIdx int       `json:"correctIdx" bson:"correctIdx"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// TaxonomyChanged reports whether any theme/subtheme/group reference
// differs between the two versions of a question.
func TaxonomyChanged(old, new *Question) bool {
	return old.ThemeID != new.ThemeID ||
		old.SubthemeID != new.SubthemeID ||
		old.GroupID != new.GroupID
}

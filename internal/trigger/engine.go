package trigger

import (
	"context"

	"github.com/sirupsen/logrus"

	"medbank/internal/aggregate"
	"medbank/internal/model"
	"medbank/internal/repository"
)

// questionBinding ties one taxonomy dimension to its count and sample
// aggregates. node returns the namespace node for a question, or false
// when the question does not participate in this dimension (e.g. no
// group assigned).
type questionBinding struct {
	countName  string
	sampleName string
	node       func(q *model.Question) (string, bool)
}

var questionBindings = []questionBinding{
	{
		countName:  aggregate.QuestionCountTotal,
		sampleName: aggregate.QuestionSampleTotal,
		node: func(q *model.Question) (string, bool) {
			return "", true
		},
	},
	{
		countName:  aggregate.QuestionCountByTheme,
		sampleName: aggregate.QuestionSampleByTheme,
		node: func(q *model.Question) (string, bool) {
			return q.ThemeID, q.ThemeID != ""
		},
	},
	{
		countName:  aggregate.QuestionCountBySubtheme,
		sampleName: aggregate.QuestionSampleBySubtheme,
		node: func(q *model.Question) (string, bool) {
			return q.SubthemeID, q.SubthemeID != ""
		},
	},
	{
		countName:  aggregate.QuestionCountByGroup,
		sampleName: aggregate.QuestionSampleByGroup,
		node: func(q *model.Question) (string, bool) {
			return q.GroupID, q.GroupID != ""
		},
	},
}

// Engine reacts to document writes on the watched collections and keeps
// the aggregate store and per-user counters in sync. Every handler
// takes {old, new} with exactly one nil on insert/delete and both set
// on update. Handlers never fail the surrounding mutation: store errors
// are logged and swallowed.
type Engine struct {
	store  aggregate.Store
	counts repository.StatsCountsRepo
	log    *logrus.Logger
}

// NewEngine creates a trigger engine over the given store and counts repo.
func NewEngine(store aggregate.Store, counts repository.StatsCountsRepo, log *logrus.Logger) *Engine {
	return &Engine{store: store, counts: counts, log: log}
}

// QuestionChanged updates all question aggregates for one question
// write. Updates that touch none of a binding's namespace fields skip
// that binding entirely, so unrelated edits (title, text) cost zero
// store calls.
func (e *Engine) QuestionChanged(ctx context.Context, old, new *model.Question) {
	for _, b := range questionBindings {
		e.applyQuestionBinding(ctx, b, old, new)
	}
}

func (e *Engine) applyQuestionBinding(ctx context.Context, b questionBinding, old, new *model.Question) {
	var (
		oldNode, newNode string
		oldOK, newOK     bool
	)
	if old != nil {
		oldNode, oldOK = b.node(old)
	}
	if new != nil {
		newNode, newOK = b.node(new)
	}

	// Update with unchanged namespace key: nothing to do for this
	// binding. This is the short-circuit that keeps unrelated edits
	// from touching every aggregate.
	if old != nil && new != nil && oldOK == newOK && oldNode == newNode {
		return
	}

	if oldOK {
		tenant := old.TenantID
		e.remove(ctx, aggregate.Namespace{Name: b.countName, Tenant: tenant, Node: oldNode}, old.ID)
		e.remove(ctx, aggregate.Namespace{Name: b.sampleName, Tenant: tenant, Node: oldNode}, old.ID)
	}
	if newOK {
		tenant := new.TenantID
		e.add(ctx, aggregate.Namespace{Name: b.countName, Tenant: tenant, Node: newNode}, new.ID)
		e.add(ctx, aggregate.Namespace{Name: b.sampleName, Tenant: tenant, Node: newNode}, new.ID)
	}
}

func (e *Engine) add(ctx context.Context, ns aggregate.Namespace, member string) {
	if err := e.store.Insert(ctx, ns, member); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"aggregate": ns.Name, "tenant": ns.Tenant, "node": ns.Node,
		}).Warn("aggregate insert failed")
	}
}

func (e *Engine) remove(ctx context.Context, ns aggregate.Namespace, member string) {
	// The store already treats absent members as a no-op; only real
	// errors surface here.
	if err := e.store.Delete(ctx, ns, member); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"aggregate": ns.Name, "tenant": ns.Tenant, "node": ns.Node,
		}).Warn("aggregate delete failed")
	}
}

// StatChanged adjusts the owning user's answered/incorrect counters for
// one UserQuestionStat write.
func (e *Engine) StatChanged(ctx context.Context, old, new *model.UserQuestionStat) {
	if old != nil && new != nil &&
		old.HasAnswered == new.HasAnswered && old.IsIncorrect == new.IsIncorrect &&
		old.ThemeID == new.ThemeID && old.SubthemeID == new.SubthemeID && old.GroupID == new.GroupID {
		return
	}

	tenantID, userID := statOwner(old, new)
	counts := e.loadCounts(ctx, tenantID, userID, new != nil)
	if counts == nil {
		return
	}

	if old != nil {
		if old.HasAnswered {
			bumpLevels(counts.AnsweredByTheme, counts.AnsweredBySubtheme, counts.AnsweredByGroup,
				old.ThemeID, old.SubthemeID, old.GroupID, -1)
		}
		if old.IsIncorrect {
			bumpLevels(counts.IncorrectByTheme, counts.IncorrectBySubtheme, counts.IncorrectByGroup,
				old.ThemeID, old.SubthemeID, old.GroupID, -1)
		}
	}
	if new != nil {
		if new.HasAnswered {
			bumpLevels(counts.AnsweredByTheme, counts.AnsweredBySubtheme, counts.AnsweredByGroup,
				new.ThemeID, new.SubthemeID, new.GroupID, 1)
		}
		if new.IsIncorrect {
			bumpLevels(counts.IncorrectByTheme, counts.IncorrectBySubtheme, counts.IncorrectByGroup,
				new.ThemeID, new.SubthemeID, new.GroupID, 1)
		}
	}

	e.saveCounts(ctx, counts)
}

// BookmarkChanged adjusts the owning user's bookmark counters for one
// UserBookmark write.
func (e *Engine) BookmarkChanged(ctx context.Context, old, new *model.UserBookmark) {
	if old != nil && new != nil &&
		old.ThemeID == new.ThemeID && old.SubthemeID == new.SubthemeID && old.GroupID == new.GroupID {
		return
	}

	tenantID, userID := bookmarkOwner(old, new)
	counts := e.loadCounts(ctx, tenantID, userID, new != nil)
	if counts == nil {
		return
	}

	if old != nil {
		bumpLevels(counts.BookmarkedByTheme, counts.BookmarkedBySubtheme, counts.BookmarkedByGroup,
			old.ThemeID, old.SubthemeID, old.GroupID, -1)
	}
	if new != nil {
		bumpLevels(counts.BookmarkedByTheme, counts.BookmarkedBySubtheme, counts.BookmarkedByGroup,
			new.ThemeID, new.SubthemeID, new.GroupID, 1)
	}

	e.saveCounts(ctx, counts)
}

// loadCounts fetches the user's counts record. When it is missing it is
// created only for inserts (createIfMissing); a decrement against a
// missing record is a skip, never an error.
func (e *Engine) loadCounts(ctx context.Context, tenantID, userID string, createIfMissing bool) *model.UserStatsCounts {
	counts, err := e.counts.Get(ctx, tenantID, userID)
	if err != nil {
		e.log.WithError(err).WithField("userId", userID).Warn("stats counts lookup failed")
		return nil
	}
	if counts == nil {
		if !createIfMissing {
			return nil
		}
		return model.NewUserStatsCounts(tenantID, userID)
	}
	return counts
}

func (e *Engine) saveCounts(ctx context.Context, counts *model.UserStatsCounts) {
	if err := e.counts.Save(ctx, counts); err != nil {
		e.log.WithError(err).WithField("userId", counts.UserID).Warn("stats counts save failed")
	}
}

func bumpLevels(byTheme, bySubtheme, byGroup map[string]int, themeID, subthemeID, groupID string, delta int) {
	model.BumpCount(byTheme, themeID, delta)
	model.BumpCount(bySubtheme, subthemeID, delta)
	model.BumpCount(byGroup, groupID, delta)
}

func statOwner(old, new *model.UserQuestionStat) (string, string) {
	if new != nil {
		return new.TenantID, new.UserID
	}
	return old.TenantID, old.UserID
}

func bookmarkOwner(old, new *model.UserBookmark) (string, string) {
	if new != nil {
		return new.TenantID, new.UserID
	}
	return old.TenantID, old.UserID
}

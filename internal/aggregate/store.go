package aggregate

import "context"

// Aggregate names. Count and sample aggregates are registered per
// taxonomy dimension; the trigger engine keeps all of them in sync.
const (
	QuestionCountTotal      = "qcount"
	QuestionCountByTheme    = "qcount:theme"
	QuestionCountBySubtheme = "qcount:subtheme"
	QuestionCountByGroup    = "qcount:group"

	QuestionSampleTotal      = "qsample"
	QuestionSampleByTheme    = "qsample:theme"
	QuestionSampleBySubtheme = "qsample:subtheme"
	QuestionSampleByGroup    = "qsample:group"
)

// Namespace identifies one bucket of one aggregate. Node is empty for
// tenant-wide aggregates.
type Namespace struct {
	Name   string
	Tenant string
	Node   string
}

// Store is a namespaced count + order-statistics structure. It is a
// best-effort cache over the document collections, never the source of
// truth: Delete of an absent member is a benign no-op, and callers must
// tolerate staleness.
type Store interface {
	// Insert adds member to the namespace. Re-inserting an existing
	// member is a no-op.
	Insert(ctx context.Context, ns Namespace, member string) error
	// Delete removes member from the namespace. Absent members are
	// ignored.
	Delete(ctx context.Context, ns Namespace, member string) error
	// Count returns the namespace population.
	Count(ctx context.Context, ns Namespace) (int64, error)
	// RandomDraw returns up to n distinct members drawn uniformly at
	// random by rank. Fewer than n are returned when the population is
	// smaller.
	RandomDraw(ctx context.Context, ns Namespace, n int) ([]string, error)
}

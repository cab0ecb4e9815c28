// Package planner splits a parsed query into store-pushdown constraints
// and in-memory post-processing, respecting the backing store's limited
// composite-query capability.
package planner

import (
	"time"

	"github.com/kailas-cloud/spendex/internal/daterange"
	"github.com/kailas-cloud/spendex/internal/domain"
)

// Store field names for pushdown constraints. These are receipt-level
// fields: line-item filters can never be pushed down because the store
// queries whole receipts.
const (
	FieldUserID = "userId"
	FieldDate   = "date"
)

const isoDate = "2006-01-02"

// Planner builds constraint plans. The clock is injectable so date
// keywords resolve deterministically in tests.
type Planner struct {
	now func() time.Time
}

// New creates a planner using the wall clock.
func New() *Planner {
	return &Planner{now: time.Now}
}

// WithClock overrides the reference clock.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

// Plan converts a dynamic query into pushdown constraints plus retained
// post-processing. The user-identity equality constraint is always
// present and always first: it is the ownership isolation invariant,
// not an optimization.
func (p *Planner) Plan(userID string, q domain.DynamicQuery) ([]domain.Constraint, domain.PostProcessing) {
	constraints := []domain.Constraint{
		domain.Where(FieldUserID, domain.OpEq, userID),
	}

	post := domain.PostProcessing{
		Operations: q.Operations,
	}

	// Date constraints compare ISO calendar-date strings, matching how
	// dates are stored. A keyword that fails to resolve adds nothing.
	switch {
	case q.Filters.DateKeyword != "":
		if r, ok := daterange.Resolve(q.Filters.DateKeyword, p.now()); ok {
			constraints = append(constraints,
				domain.Where(FieldDate, domain.OpGte, r.Start.Format(isoDate)),
				domain.Where(FieldDate, domain.OpLte, r.End.Format(isoDate)),
			)
		}
	case q.Filters.DateRange != nil:
		if q.Filters.DateRange.Start != "" {
			constraints = append(constraints,
				domain.Where(FieldDate, domain.OpGte, q.Filters.DateRange.Start))
		}
		if q.Filters.DateRange.End != "" {
			constraints = append(constraints,
				domain.Where(FieldDate, domain.OpLte, q.Filters.DateRange.End))
		}
	}

	// The store supports at most one sort key alongside where clauses:
	// push the first spec down, retain the rest for in-memory ordering.
	if len(q.Operations.OrderBy) > 0 {
		primary := q.Operations.OrderBy[0]
		constraints = append(constraints, domain.OrderBy(primary.Field, primary.Direction))
		if len(q.Operations.OrderBy) > 1 {
			post.AdditionalOrderBy = q.Operations.OrderBy[1:]
		}
	}

	if q.Operations.Limit > 0 {
		constraints = append(constraints, domain.Limit(q.Operations.Limit))
	}

	// Item-level filters operate on flattened rows, never on receipt
	// documents, so they are always retained.
	post.Filters = domain.Filters{
		Category:    q.Filters.Category,
		Merchants:   q.Filters.Merchants,
		AmountRange: q.Filters.AmountRange,
		PaymentMode: q.Filters.PaymentMode,
	}

	return constraints, post
}

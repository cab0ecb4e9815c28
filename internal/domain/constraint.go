package domain

// ConstraintType discriminates planned store operations.
type ConstraintType string

// Constraint types.
const (
	ConstraintWhere   ConstraintType = "where"
	ConstraintOrderBy ConstraintType = "orderBy"
	ConstraintLimit   ConstraintType = "limit"
)

// Comparison operators supported by the backing store.
const (
	OpEq  = "=="
	OpGte = ">="
	OpLte = "<="
)

// Constraint is one planned operation against the store, carrying
// everything needed to reproduce it in memory if the store rejects it.
type Constraint struct {
	Type      ConstraintType `json:"type"`
	Field     string         `json:"field,omitempty"`
	Op        string         `json:"operator,omitempty"`
	Value     any            `json:"value,omitempty"`
	Direction string         `json:"direction,omitempty"`
	Count     int            `json:"count,omitempty"`
}

// Where builds a field comparison constraint.
func Where(field, op string, value any) Constraint {
	return Constraint{Type: ConstraintWhere, Field: field, Op: op, Value: value}
}

// OrderBy builds a single-field sort constraint.
func OrderBy(field, direction string) Constraint {
	return Constraint{Type: ConstraintOrderBy, Field: field, Direction: direction}
}

// Limit builds a result-count constraint.
func Limit(n int) Constraint {
	return Constraint{Type: ConstraintLimit, Count: n}
}

// PostProcessing carries the constraints retained for in-memory
// application after fetch. The pushdown/post-processing partition is a
// durable planning artifact: the fetch fallback ladder inspects it.
type PostProcessing struct {
	Filters           Filters
	Operations        Operations
	AdditionalOrderBy []OrderSpec
}

// FetchOutcome pairs fetched receipts with any constraints the store
// could not honor, returned explicitly rather than tagged onto rows.
type FetchOutcome struct {
	Receipts []Receipt

	// DeferredSort is set when the store dropped the pushdown sort
	// (tier-1 fallback); the projector reapplies it.
	DeferredSort *OrderSpec

	// DeferredConstraints is the entire original constraint list when
	// the fetch degraded to the bare user-identity query (tier 2).
	DeferredConstraints []Constraint
}

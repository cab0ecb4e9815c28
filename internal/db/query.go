package db

// Where is one field comparison evaluated by the store.
type Where struct {
	Field string
	Op    string // "==", ">=", "<="
	Value any
}

// Query is the store-native query shape: conjunctive where clauses,
// at most one sort field, and an optional result limit.
type Query struct {
	Wheres  []Where
	OrderBy string
	Desc    bool
	Limit   int
}

// IndexSpec declares a composite index permitting one where-field plus
// order-field combination. Mirrors the document-store behavior of
// rejecting unindexed composite queries.
type IndexSpec struct {
	WhereFields []string `yaml:"where_fields"`
	OrderField  string   `yaml:"order_field"`
}

// Covers reports whether the index serves the given combination.
func (s IndexSpec) Covers(whereFields []string, orderField string) bool {
	if s.OrderField != orderField {
		return false
	}
	declared := make(map[string]struct{}, len(s.WhereFields))
	for _, f := range s.WhereFields {
		declared[f] = struct{}{}
	}
	for _, f := range whereFields {
		if _, ok := declared[f]; !ok {
			return false
		}
	}
	return true
}

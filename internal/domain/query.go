package domain

import "encoding/json"

// DynamicQuery is the parsed representation of user intent for one
// request. Absence of a field always means "no constraint", never
// "constraint with empty match".
type DynamicQuery struct {
	Filters     Filters    `json:"filters"`
	Operations  Operations `json:"operations"`
	QueryIntent string     `json:"queryIntent,omitempty"`
}

// DefaultResultLimit bounds results when the parsed query carries none.
const DefaultResultLimit = 10

// DefaultQuery is the designated recovery value when intent parsing
// fails: no filters, a small limit, and the raw question kept as intent.
func DefaultQuery(question string) DynamicQuery {
	return DynamicQuery{
		Operations:  Operations{Limit: DefaultResultLimit},
		QueryIntent: question,
	}
}

// Filters holds the known filter vocabulary plus an open-ended extension
// map for keys the model invents. Planners pattern-match on the known
// keys and ignore the rest.
type Filters struct {
	DateKeyword string       `json:"dateKeyword,omitempty"`
	DateRange   *DateRange   `json:"dateRange,omitempty"`
	Category    string       `json:"category,omitempty"`
	Merchants   []string     `json:"merchants,omitempty"`
	PaymentMode string       `json:"paymentMode,omitempty"`
	AmountRange *AmountRange `json:"amountRange,omitempty"`

	// Extra captures unrecognized filter keys verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

var knownFilterKeys = map[string]struct{}{
	"dateKeyword": {},
	"dateRange":   {},
	"category":    {},
	"merchants":   {},
	"paymentMode": {},
	"amountRange": {},
}

// UnmarshalJSON decodes the typed filter keys and diverts everything
// else into Extra.
func (f *Filters) UnmarshalJSON(data []byte) error {
	type alias Filters
	var typed alias
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range knownFilterKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		typed.Extra = raw
	}

	*f = Filters(typed)
	return nil
}

// DateRange is an explicit calendar-date window in YYYY-MM-DD form.
// Either bound may be empty.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// AmountRange bounds the item price. Nil bounds are unconstrained.
type AmountRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Operations describes how matched rows are shaped: aggregation kind,
// group-by fields, ordered sort specs, result limit, field selection.
type Operations struct {
	Aggregation string      `json:"aggregation,omitempty"` // sum, avg, count, max, min
	GroupBy     []string    `json:"groupBy,omitempty"`
	OrderBy     []OrderSpec `json:"orderBy,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	Select      []string    `json:"select,omitempty"`
}

// OrderSpec is one sort instruction.
type OrderSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // asc or desc
}

// Desc reports whether the sort direction is descending.
func (o OrderSpec) Desc() bool { return o.Direction == "desc" }

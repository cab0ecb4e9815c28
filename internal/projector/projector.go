// Package projector flattens receipt documents into line-item rows and
// applies the post-processing half of the query plan: deferred filters,
// sorting, limits, and group-by aggregation.
package projector

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/spendex/internal/domain"
	"github.com/kailas-cloud/spendex/internal/planner"
)

const missingGroupValue = "unknown"

// Process turns a fetch outcome into the final evidence set. The stages
// run in a fixed order: deferred date filters, conjunctive row filters,
// sort (primary plus tie-breakers), limit, group-by. Running it twice
// over the same inputs yields identical output.
func Process(outcome domain.FetchOutcome, post domain.PostProcessing) domain.ProcessResult {
	rows := Flatten(outcome.Receipts)

	rows = applyDeferredDateFilters(rows, outcome.DeferredConstraints)
	rows = applyFilters(rows, post.Filters)
	rows = applySort(rows, primarySort(outcome, post), post.AdditionalOrderBy)

	if limit := post.Operations.Limit; limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	if len(post.Operations.GroupBy) > 0 {
		return domain.ProcessResult{
			Items:     rows,
			Grouped:   groupRows(rows, post.Operations.GroupBy),
			IsGrouped: true,
		}
	}
	return domain.ProcessResult{Items: rows}
}

// Flatten expands each receipt into one row per line item, copying the
// receipt-level fields onto every row.
func Flatten(receipts []domain.Receipt) []domain.Row {
	var rows []domain.Row
	for _, rec := range receipts {
		for _, item := range rec.Items {
			qty := item.Quantity
			if qty == 0 {
				qty = 1
			}
			createdAt := ""
			if !rec.CreatedAt.IsZero() {
				createdAt = rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
			}
			category := item.Category
			if category == "" {
				category = rec.Category
			}
			rows = append(rows, domain.Row{
				Name:         item.Name,
				Price:        item.Price,
				Quantity:     qty,
				Total:        item.Price * qty,
				Category:     category,
				Vendor:       rec.Vendor,
				Date:         rec.Date,
				CreatedAt:    createdAt,
				ReceiptID:    rec.ID,
				ReceiptTotal: rec.Amount,
				UserID:       rec.UserID,
				PaymentMode:  rec.PaymentMode,
			})
		}
	}
	return rows
}

// applyDeferredDateFilters re-applies date range constraints the store
// never saw (tier-2 fallback). Rows without a date cannot satisfy a
// date constraint and are dropped.
func applyDeferredDateFilters(rows []domain.Row, deferred []domain.Constraint) []domain.Row {
	for _, c := range deferred {
		if c.Type != domain.ConstraintWhere || c.Field != planner.FieldDate {
			continue
		}
		bound, ok := c.Value.(string)
		if !ok {
			continue
		}
		kept := rows[:0]
		for _, r := range rows {
			if r.Date == "" {
				continue
			}
			switch c.Op {
			case domain.OpGte:
				if r.Date >= bound {
					kept = append(kept, r)
				}
			case domain.OpLte:
				if r.Date <= bound {
					kept = append(kept, r)
				}
			default:
				kept = append(kept, r)
			}
		}
		rows = kept
	}
	return rows
}

// applyFilters applies the retained row-level filters; all are ANDed.
func applyFilters(rows []domain.Row, f domain.Filters) []domain.Row {
	kept := rows[:0]
	for _, r := range rows {
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if len(f.Merchants) > 0 && !vendorMatches(r.Vendor, f.Merchants) {
			continue
		}
		if f.AmountRange != nil {
			if f.AmountRange.Min != nil && r.Price < *f.AmountRange.Min {
				continue
			}
			if f.AmountRange.Max != nil && r.Price > *f.AmountRange.Max {
				continue
			}
		}
		if f.PaymentMode != "" && r.PaymentMode != f.PaymentMode {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func vendorMatches(vendor string, merchants []string) bool {
	v := strings.ToLower(vendor)
	for _, m := range merchants {
		if strings.Contains(v, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// primarySort prefers the sort the fetcher had to drop over the one in
// the original operations; they are the same spec when no fallback ran.
func primarySort(outcome domain.FetchOutcome, post domain.PostProcessing) *domain.OrderSpec {
	if outcome.DeferredSort != nil {
		return outcome.DeferredSort
	}
	if len(post.Operations.OrderBy) > 0 {
		return &post.Operations.OrderBy[0]
	}
	return nil
}

// applySort orders rows by the primary spec with any additional specs
// as tie-breakers. String fields compare case-sensitively, numeric
// fields numerically. The sort is stable so equal rows keep their
// fetch order.
func applySort(rows []domain.Row, primary *domain.OrderSpec, additional []domain.OrderSpec) []domain.Row {
	var specs []domain.OrderSpec
	if primary != nil {
		specs = append(specs, *primary)
	}
	specs = append(specs, additional...)
	if len(specs) == 0 {
		return rows
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, s := range specs {
			cmp := compareField(rows[i].Field(s.Field), rows[j].Field(s.Field))
			if cmp == 0 {
				continue
			}
			if s.Desc() {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return rows
}

func compareField(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return strings.Compare(as, bs)
}

// groupRows partitions rows by the concatenation of the group fields and
// computes per-group price aggregates. Missing values substitute the
// literal "unknown".
func groupRows(rows []domain.Row, fields []string) domain.GroupMap {
	grouped := domain.GroupMap{}
	for _, r := range rows {
		parts := make([]string, len(fields))
		values := make(map[string]string, len(fields))
		for i, f := range fields {
			v := fieldString(r.Field(f))
			if v == "" {
				v = missingGroupValue
			}
			parts[i] = v
			values[f] = v
		}
		key := strings.Join(parts, "_")

		g, ok := grouped[key]
		if !ok {
			g = &domain.Group{Key: key, Values: values}
			grouped[key] = g
		}
		g.Items = append(g.Items, r)
		g.Metrics.Count++
		g.Metrics.Total += r.Price
		if g.Metrics.Count == 1 || r.Price < g.Metrics.Min {
			g.Metrics.Min = r.Price
		}
		if g.Metrics.Count == 1 || r.Price > g.Metrics.Max {
			g.Metrics.Max = r.Price
		}
	}

	for _, g := range grouped {
		g.Metrics.Avg = g.Metrics.Total / float64(g.Metrics.Count)
	}
	return grouped
}

func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

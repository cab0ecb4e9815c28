package planner

import (
	"testing"
	"time"

	"github.com/kailas-cloud/spendex/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2025, time.June, 18, 12, 0, 0, 0, time.UTC)
}

func TestPlan_UserIdentityAlwaysFirst(t *testing.T) {
	queries := []domain.DynamicQuery{
		{},
		{Filters: domain.Filters{DateKeyword: "this_month", Category: "food"}},
		{Operations: domain.Operations{
			OrderBy: []domain.OrderSpec{{Field: "price", Direction: "desc"}},
			Limit:   5,
		}},
	}
	p := New().WithClock(fixedClock)

	for i, q := range queries {
		constraints, _ := p.Plan("user-1", q)

		var userWheres int
		for _, c := range constraints {
			if c.Type == domain.ConstraintWhere && c.Field == FieldUserID {
				userWheres++
			}
		}
		if userWheres != 1 {
			t.Errorf("query %d: %d userId constraints, want exactly 1", i, userWheres)
		}
		first := constraints[0]
		if first.Type != domain.ConstraintWhere || first.Field != FieldUserID ||
			first.Op != domain.OpEq || first.Value != "user-1" {
			t.Errorf("query %d: first constraint = %+v, want userId equality", i, first)
		}
	}
}

func TestPlan_DateKeywordBecomesIsoRange(t *testing.T) {
	p := New().WithClock(fixedClock)
	constraints, _ := p.Plan("u", domain.DynamicQuery{
		Filters: domain.Filters{DateKeyword: "this_month"},
	})

	if len(constraints) != 3 {
		t.Fatalf("got %d constraints, want 3", len(constraints))
	}
	gte, lte := constraints[1], constraints[2]
	if gte.Field != FieldDate || gte.Op != domain.OpGte || gte.Value != "2025-06-01" {
		t.Errorf("gte = %+v", gte)
	}
	if lte.Field != FieldDate || lte.Op != domain.OpLte || lte.Value != "2025-06-18" {
		t.Errorf("lte = %+v", lte)
	}
}

func TestPlan_UnknownKeywordAddsNothing(t *testing.T) {
	p := New().WithClock(fixedClock)
	constraints, _ := p.Plan("u", domain.DynamicQuery{
		Filters: domain.Filters{DateKeyword: "someday"},
	})
	if len(constraints) != 1 {
		t.Errorf("got %d constraints, want only userId", len(constraints))
	}
}

func TestPlan_ExplicitDateRangeVerbatim(t *testing.T) {
	p := New().WithClock(fixedClock)
	constraints, _ := p.Plan("u", domain.DynamicQuery{
		Filters: domain.Filters{DateRange: &domain.DateRange{Start: "2025-01-01"}},
	})
	if len(constraints) != 2 {
		t.Fatalf("got %d constraints, want 2", len(constraints))
	}
	if constraints[1].Value != "2025-01-01" || constraints[1].Op != domain.OpGte {
		t.Errorf("range constraint = %+v", constraints[1])
	}
}

func TestPlan_OnlyFirstSortPushedDown(t *testing.T) {
	p := New().WithClock(fixedClock)
	constraints, post := p.Plan("u", domain.DynamicQuery{
		Operations: domain.Operations{
			OrderBy: []domain.OrderSpec{
				{Field: "date", Direction: "desc"},
				{Field: "price", Direction: "asc"},
				{Field: "name", Direction: "asc"},
			},
		},
	})

	var orderBys []domain.Constraint
	for _, c := range constraints {
		if c.Type == domain.ConstraintOrderBy {
			orderBys = append(orderBys, c)
		}
	}
	if len(orderBys) != 1 {
		t.Fatalf("%d orderBy constraints pushed down, want 1", len(orderBys))
	}
	if orderBys[0].Field != "date" || orderBys[0].Direction != "desc" {
		t.Errorf("pushed sort = %+v", orderBys[0])
	}
	if len(post.AdditionalOrderBy) != 2 {
		t.Fatalf("%d retained sorts, want 2", len(post.AdditionalOrderBy))
	}
	if post.AdditionalOrderBy[0].Field != "price" || post.AdditionalOrderBy[1].Field != "name" {
		t.Errorf("retained sorts = %+v", post.AdditionalOrderBy)
	}
}

func TestPlan_LimitPushedOnlyWhenPresent(t *testing.T) {
	p := New().WithClock(fixedClock)

	constraints, _ := p.Plan("u", domain.DynamicQuery{})
	for _, c := range constraints {
		if c.Type == domain.ConstraintLimit {
			t.Error("no limit requested, none should be pushed")
		}
	}

	constraints, _ = p.Plan("u", domain.DynamicQuery{
		Operations: domain.Operations{Limit: 7},
	})
	found := false
	for _, c := range constraints {
		if c.Type == domain.ConstraintLimit && c.Count == 7 {
			found = true
		}
	}
	if !found {
		t.Error("limit 7 not pushed down")
	}
}

func TestPlan_ItemFiltersNeverPushedDown(t *testing.T) {
	minAmt := 100.0
	p := New().WithClock(fixedClock)
	constraints, post := p.Plan("u", domain.DynamicQuery{
		Filters: domain.Filters{
			Category:    "Groceries",
			Merchants:   []string{"BigBasket"},
			PaymentMode: "upi",
			AmountRange: &domain.AmountRange{Min: &minAmt},
		},
	})

	for _, c := range constraints {
		if c.Type == domain.ConstraintWhere && c.Field != FieldUserID {
			t.Errorf("item-level filter leaked into pushdown: %+v", c)
		}
	}
	if post.Filters.Category != "Groceries" || len(post.Filters.Merchants) != 1 ||
		post.Filters.PaymentMode != "upi" || post.Filters.AmountRange == nil {
		t.Errorf("post filters = %+v", post.Filters)
	}
}

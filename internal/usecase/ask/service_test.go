package ask

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spendex/internal/domain"
	"github.com/kailas-cloud/spendex/internal/planner"
)

type mockParser struct {
	query domain.DynamicQuery
}

func (m *mockParser) Parse(_ context.Context, _ string) domain.DynamicQuery {
	return m.query
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type searchCall struct {
	threshold float64
	limit     int
}

type mockSearcher struct {
	results [][]domain.SearchHit
	errs    []error
	calls   []searchCall
}

func (m *mockSearcher) Search(
	_ context.Context, _ string, _ []float32, threshold float64, limit int,
) ([]domain.SearchHit, error) {
	i := len(m.calls)
	m.calls = append(m.calls, searchCall{threshold: threshold, limit: limit})
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	var hits []domain.SearchHit
	if i < len(m.results) {
		hits = m.results[i]
	}
	return hits, err
}

type mockFetcher struct {
	outcome domain.FetchOutcome
	err     error
	calls   int
}

func (m *mockFetcher) Fetch(
	_ context.Context, _ []domain.Constraint, _ string,
) (domain.FetchOutcome, error) {
	m.calls++
	return m.outcome, m.err
}

type mockLLM struct {
	text string
	err  error
}

func (m *mockLLM) Generate(_ context.Context, _ ...string) (string, error) {
	return m.text, m.err
}

func testPlanner() *planner.Planner {
	ref := time.Date(2025, time.June, 18, 12, 0, 0, 0, time.UTC)
	return planner.New().WithClock(func() time.Time { return ref })
}

func newService(
	p intentParser, e queryEmbedder, s vectorSearcher, f receiptFetcher, llm domain.Generator,
) *Service {
	return New(p, e, s, testPlanner(), f, llm, zap.NewNop())
}

func TestAsk_VectorAccepted(t *testing.T) {
	searcher := &mockSearcher{results: [][]domain.SearchHit{{
		{ID: "e1", Name: "oat milk", Price: 120, Quantity: 1, Category: "Groceries", Similarity: 0.91, Distance: 0.09},
	}}}
	fetcher := &mockFetcher{}
	svc := newService(
		&mockParser{query: domain.DefaultQuery("which brand of milk did I buy")},
		&mockEmbedder{vec: []float32{1, 0}},
		searcher,
		fetcher,
		&mockLLM{text: "You bought oat milk."},
	)

	res := svc.Ask(context.Background(), "u1", "which brand of milk did I buy")
	if !res.Success || res.Source != domain.SourceVector {
		t.Fatalf("result = %+v", res)
	}
	if res.TotalItems != 1 || res.Items[0].Name != "oat milk" {
		t.Errorf("items = %+v", res.Items)
	}
	if res.Summary != "You bought oat milk." {
		t.Errorf("summary = %q", res.Summary)
	}
	if fetcher.calls != 0 {
		t.Error("structured path must not run when retrieval accepts")
	}
	// "brand" cues the tight product threshold.
	if searcher.calls[0].threshold != 0.8 {
		t.Errorf("threshold = %v, want 0.8", searcher.calls[0].threshold)
	}
}

func TestAsk_ThresholdExpandsToFloor(t *testing.T) {
	searcher := &mockSearcher{results: [][]domain.SearchHit{
		nil,
		{{ID: "e1", Name: "soy milk", Price: 80, Similarity: 0.55}},
	}}
	svc := newService(
		&mockParser{query: domain.DefaultQuery("milk")},
		&mockEmbedder{vec: []float32{1, 0}},
		searcher,
		&mockFetcher{},
		&mockLLM{text: "Soy milk."},
	)

	res := svc.Ask(context.Background(), "u1", "milk")
	if !res.Success || res.Source != domain.SourceVector || res.TotalItems != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(searcher.calls) != 2 {
		t.Fatalf("search calls = %d, want 2", len(searcher.calls))
	}
	if searcher.calls[1].threshold != 0.5 {
		t.Errorf("retry threshold = %v, want the floor", searcher.calls[1].threshold)
	}
}

func TestAsk_EmbeddingFailureFallsBackToStructured(t *testing.T) {
	fetcher := &mockFetcher{outcome: domain.FetchOutcome{Receipts: []domain.Receipt{
		{ID: "r1", UserID: "u1", Vendor: "Zudio", Date: "2025-06-05", Items: []domain.LineItem{
			{Name: "t-shirt", Price: 499, Quantity: 1},
		}},
	}}}
	searcher := &mockSearcher{}
	svc := newService(
		&mockParser{query: domain.DefaultQuery("what did I buy")},
		&mockEmbedder{err: errors.New("embedding provider down")},
		searcher,
		fetcher,
		&mockLLM{text: "You bought a t-shirt."},
	)

	res := svc.Ask(context.Background(), "u1", "what did I buy")
	if !res.Success || res.Source != domain.SourceStructured {
		t.Fatalf("result = %+v", res)
	}
	if len(searcher.calls) != 0 {
		t.Error("search must be skipped when embedding fails")
	}
	if fetcher.calls != 1 || res.TotalItems != 1 {
		t.Errorf("fetcher calls = %d, items = %d", fetcher.calls, res.TotalItems)
	}
}

func TestAsk_EmptyFloorFallsBackToStructured(t *testing.T) {
	fetcher := &mockFetcher{outcome: domain.FetchOutcome{}}
	svc := newService(
		&mockParser{query: domain.DefaultQuery("unicorn purchases")},
		&mockEmbedder{vec: []float32{1, 0}},
		&mockSearcher{results: [][]domain.SearchHit{nil, nil}},
		fetcher,
		&mockLLM{text: "irrelevant"},
	)

	res := svc.Ask(context.Background(), "u1", "unicorn purchases")
	if !res.Success || res.Source != domain.SourceStructured {
		t.Fatalf("result = %+v", res)
	}
	if res.Summary != "No expenses found matching your query." {
		t.Errorf("summary = %q", res.Summary)
	}
}

func TestAsk_FetchFailureIsTheOnlyUnsuccessfulResult(t *testing.T) {
	svc := newService(
		&mockParser{query: domain.DefaultQuery("groceries")},
		&mockEmbedder{err: errors.New("down")},
		&mockSearcher{},
		&mockFetcher{err: errors.New("identity fetch: connection refused")},
		&mockLLM{},
	)

	res := svc.Ask(context.Background(), "u1", "groceries")
	if res.Success {
		t.Fatal("fatal fetch must produce an unsuccessful result")
	}
	if res.Err == "" || res.Summary == "" {
		t.Errorf("result = %+v, want error detail and an apology summary", res)
	}
}

// Two receipts, one inside this_month with the asked category; the sum
// aggregation must cover only that receipt's line items.
func TestAsk_StructuredMonthCategorySum(t *testing.T) {
	receipts := []domain.Receipt{
		{
			ID: "r1", UserID: "u1", Vendor: "BigBasket", Category: "Groceries",
			Date: "2025-06-10", Amount: 250,
			Items: []domain.LineItem{
				{Name: "Milk", Price: 60, Quantity: 2},
				{Name: "Bread", Price: 40, Quantity: 1},
			},
		},
		{
			ID: "r2", UserID: "u1", Vendor: "Croma", Category: "Electronics",
			Date: "2025-05-02", Amount: 900,
			Items: []domain.LineItem{{Name: "Earphones", Price: 900, Quantity: 1}},
		},
	}
	query := domain.DynamicQuery{
		Filters: domain.Filters{
			DateKeyword: "this_month",
			Category:    "Groceries",
		},
		Operations:  domain.Operations{Aggregation: "sum"},
		QueryIntent: "total grocery spend this month",
	}

	// Tier-2 shape: the store returned everything for the user and the
	// whole plan is re-applied in memory.
	fetcher := &mockFetcher{}
	planr := testPlanner()
	constraints, _ := planr.Plan("u1", query)
	fetcher.outcome = domain.FetchOutcome{
		Receipts:            receipts,
		DeferredConstraints: constraints,
	}

	svc := newService(
		&mockParser{query: query},
		&mockEmbedder{err: errors.New("down")},
		&mockSearcher{},
		fetcher,
		&mockLLM{err: errors.New("model down")},
	)

	res := svc.Ask(context.Background(), "u1", "total grocery spend this month")
	if !res.Success || res.Source != domain.SourceStructured {
		t.Fatalf("result = %+v", res)
	}
	if res.TotalItems != 2 {
		t.Fatalf("items = %+v, want the two grocery line items", res.Items)
	}
	if !strings.Contains(res.Summary, "₹100") || !strings.Contains(res.Summary, "2 items") {
		t.Errorf("summary = %q, want the sum over the matching receipt only", res.Summary)
	}
}

package receipts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spendex/internal/db"
	"github.com/kailas-cloud/spendex/internal/domain"
)

// mockStore scripts per-call outcomes so each ladder tier can be driven
// independently.
type mockStore struct {
	queries   []db.Query
	deadlines []bool
	results   [][]json.RawMessage
	errs      []error
}

func (m *mockStore) PutDoc(_ context.Context, _, _ string, _ []byte) error { return nil }

func (m *mockStore) Query(ctx context.Context, _ string, q db.Query) ([]json.RawMessage, error) {
	i := len(m.queries)
	m.queries = append(m.queries, q)
	_, hasDeadline := ctx.Deadline()
	m.deadlines = append(m.deadlines, hasDeadline)
	if i >= len(m.errs) {
		return nil, errors.New("unexpected query")
	}
	return m.results[i], m.errs[i]
}

func receiptJSON(t *testing.T, id, date string) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(domain.Receipt{
		ID: id, UserID: "u1", Vendor: "ACME", Date: date,
		Items: []domain.LineItem{{Name: "thing", Price: 10, Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func planFor(t *testing.T) []domain.Constraint {
	t.Helper()
	return []domain.Constraint{
		domain.Where("userId", domain.OpEq, "u1"),
		domain.Where("date", domain.OpGte, "2025-06-01"),
		domain.OrderBy("date", "desc"),
		domain.Limit(5),
	}
}

var indexErr = &db.Error{Op: db.OpQuery, Err: db.ErrIndexMissing}

func TestFetch_FullQuerySucceeds(t *testing.T) {
	store := &mockStore{
		results: [][]json.RawMessage{{receiptJSON(t, "r1", "2025-06-10")}},
		errs:    []error{nil},
	}
	repo := New(store, "spendex:", time.Second, zap.NewNop())

	out, err := repo.Fetch(context.Background(), planFor(t), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Receipts) != 1 || out.DeferredSort != nil || out.DeferredConstraints != nil {
		t.Errorf("outcome = %+v, want clean single receipt", out)
	}
	if len(store.queries) != 1 {
		t.Errorf("store queried %d times, want 1", len(store.queries))
	}
}

func TestFetch_Tier1DropsSortAndDefersIt(t *testing.T) {
	store := &mockStore{
		results: [][]json.RawMessage{nil, {receiptJSON(t, "r1", "2025-06-10"), receiptJSON(t, "r2", "2025-06-12")}},
		errs:    []error{indexErr, nil},
	}
	repo := New(store, "spendex:", time.Second, zap.NewNop())

	out, err := repo.Fetch(context.Background(), planFor(t), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Receipts) != 2 {
		t.Fatalf("got %d receipts, want 2", len(out.Receipts))
	}
	if out.DeferredSort == nil || out.DeferredSort.Field != "date" || !out.DeferredSort.Desc() {
		t.Errorf("deferred sort = %+v, want date desc", out.DeferredSort)
	}
	if out.DeferredConstraints != nil {
		t.Error("tier 1 must not defer the whole constraint list")
	}

	retry := store.queries[1]
	if retry.OrderBy != "" || retry.Limit != 0 {
		t.Errorf("tier-1 retry kept orderBy/limit: %+v", retry)
	}
	if len(retry.Wheres) != 2 {
		t.Errorf("tier-1 retry wheres = %d, want 2", len(retry.Wheres))
	}
}

func TestFetch_Tier2IdentityOnlyDefersEverything(t *testing.T) {
	store := &mockStore{
		results: [][]json.RawMessage{nil, nil, {receiptJSON(t, "r1", "2025-06-10")}},
		errs:    []error{indexErr, indexErr, nil},
	}
	repo := New(store, "spendex:", time.Second, zap.NewNop())

	constraints := planFor(t)
	out, err := repo.Fetch(context.Background(), constraints, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.DeferredConstraints) != len(constraints) {
		t.Errorf("deferred %d constraints, want the full plan (%d)",
			len(out.DeferredConstraints), len(constraints))
	}

	identity := store.queries[2]
	if len(identity.Wheres) != 1 || identity.Wheres[0].Field != "userId" {
		t.Errorf("tier-2 query = %+v, want bare userId equality", identity)
	}
}

func TestFetch_Tier2FailureIsFatal(t *testing.T) {
	boom := &db.Error{Op: db.OpQuery, Err: db.ErrUnavailable}
	store := &mockStore{
		results: [][]json.RawMessage{nil, nil, nil},
		errs:    []error{indexErr, indexErr, boom},
	}
	repo := New(store, "spendex:", time.Second, zap.NewNop())

	_, err := repo.Fetch(context.Background(), planFor(t), "u1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, db.ErrUnavailable) {
		t.Errorf("error = %v, want wrapped ErrUnavailable", err)
	}
}

func TestFetch_EveryTierCarriesADeadline(t *testing.T) {
	store := &mockStore{
		results: [][]json.RawMessage{nil, nil, {receiptJSON(t, "r1", "2025-06-10")}},
		errs:    []error{indexErr, indexErr, nil},
	}
	repo := New(store, "spendex:", time.Second, zap.NewNop())

	if _, err := repo.Fetch(context.Background(), planFor(t), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, has := range store.deadlines {
		if !has {
			t.Errorf("query %d ran without a deadline", i)
		}
	}
}

func TestFetch_NonIndexErrorsPropagateWithoutRetry(t *testing.T) {
	denied := &db.Error{Op: db.OpQuery, Err: db.ErrPermissionDenied}
	store := &mockStore{
		results: [][]json.RawMessage{nil},
		errs:    []error{denied},
	}
	repo := New(store, "spendex:", time.Second, zap.NewNop())

	_, err := repo.Fetch(context.Background(), planFor(t), "u1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, db.ErrPermissionDenied) {
		t.Errorf("error = %v, want wrapped ErrPermissionDenied", err)
	}
	if len(store.queries) != 1 {
		t.Errorf("store queried %d times, want no retries", len(store.queries))
	}
}

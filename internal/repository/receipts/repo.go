// Package receipts fetches receipt documents with a degradation ladder:
// when the store rejects a composite query for lacking an index, the
// query is reissued in progressively weaker forms and the dropped
// constraints are returned for in-memory re-application.
package receipts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spendex/internal/db"
	"github.com/kailas-cloud/spendex/internal/domain"
	"github.com/kailas-cloud/spendex/internal/metrics"
	"github.com/kailas-cloud/spendex/internal/planner"
)

// docStore is the consumer interface for receipt storage (ISP).
type docStore interface {
	PutDoc(ctx context.Context, prefix, id string, doc []byte) error
	Query(ctx context.Context, prefix string, q db.Query) ([]json.RawMessage, error)
}

// Repo reads and writes receipt documents.
type Repo struct {
	store     docStore
	prefix    string
	opTimeout time.Duration
	logger    *zap.Logger
}

// New creates a receipts repository. keyPrefix is the store-wide
// namespace, e.g. "spendex:". opTimeout bounds each store call; a
// deadline hit classifies as a transient fetch failure.
func New(store docStore, keyPrefix string, opTimeout time.Duration, logger *zap.Logger) *Repo {
	return &Repo{store: store, prefix: keyPrefix + "receipt:", opTimeout: opTimeout, logger: logger}
}

// Put stores one receipt document.
func (r *Repo) Put(ctx context.Context, rec domain.Receipt) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	if err := r.store.PutDoc(ctx, r.prefix, rec.ID, data); err != nil {
		return fmt.Errorf("put receipt: %w", err)
	}
	return nil
}

// Fetch executes the planned constraints with the three-tier fallback
// ladder. Only an index-missing failure triggers degradation; every
// other error class propagates immediately. A tier-2 failure is the one
// fatal fetch error surfaced to the caller.
func (r *Repo) Fetch(
	ctx context.Context, constraints []domain.Constraint, userID string,
) (domain.FetchOutcome, error) {
	full := toQuery(constraints)

	raw, err := r.query(ctx, full)
	if err == nil {
		recs, derr := decodeReceipts(raw)
		return domain.FetchOutcome{Receipts: recs}, derr
	}
	if db.ClassifyFetchError(err) != db.FetchIndexMissing {
		return domain.FetchOutcome{}, fmt.Errorf("fetch receipts: %w", err)
	}

	r.logger.Warn("Composite index missing, degrading query",
		zap.String("order_by", full.OrderBy),
		zap.Int("wheres", len(full.Wheres)),
	)
	metrics.FetchFallbackTotal.WithLabelValues("1").Inc()

	// Tier 1: keep where clauses, drop orderBy and limit. The dropped
	// sort is handed back so the projector reapplies it.
	raw, err = r.query(ctx, db.Query{Wheres: full.Wheres})
	if err == nil {
		recs, derr := decodeReceipts(raw)
		if derr != nil {
			return domain.FetchOutcome{}, derr
		}
		return domain.FetchOutcome{
			Receipts:     recs,
			DeferredSort: droppedSort(constraints),
		}, nil
	}

	r.logger.Warn("Where-only query failed, degrading to identity scan", zap.Error(err))
	metrics.FetchFallbackTotal.WithLabelValues("2").Inc()

	// Tier 2: the bare user-identity query, the minimal form that must
	// always succeed. The whole original plan is deferred.
	raw, err = r.query(ctx, db.Query{
		Wheres: []db.Where{{Field: planner.FieldUserID, Op: domain.OpEq, Value: userID}},
	})
	if err != nil {
		return domain.FetchOutcome{}, fmt.Errorf("identity fetch: %w", err)
	}
	recs, derr := decodeReceipts(raw)
	if derr != nil {
		return domain.FetchOutcome{}, derr
	}
	return domain.FetchOutcome{
		Receipts:            recs,
		DeferredSort:        droppedSort(constraints),
		DeferredConstraints: constraints,
	}, nil
}

// query runs one store query under the per-call deadline. Each ladder
// tier gets a fresh deadline rather than sharing one across retries.
func (r *Repo) query(ctx context.Context, q db.Query) ([]json.RawMessage, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	return r.store.Query(ctx, r.prefix, q)
}

func (r *Repo) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

// toQuery lowers planned constraints into the store-native query shape.
func toQuery(constraints []domain.Constraint) db.Query {
	var q db.Query
	for _, c := range constraints {
		switch c.Type {
		case domain.ConstraintWhere:
			q.Wheres = append(q.Wheres, db.Where{Field: c.Field, Op: c.Op, Value: c.Value})
		case domain.ConstraintOrderBy:
			q.OrderBy = c.Field
			q.Desc = c.Direction == "desc"
		case domain.ConstraintLimit:
			q.Limit = c.Count
		}
	}
	return q
}

func droppedSort(constraints []domain.Constraint) *domain.OrderSpec {
	for _, c := range constraints {
		if c.Type == domain.ConstraintOrderBy {
			return &domain.OrderSpec{Field: c.Field, Direction: c.Direction}
		}
	}
	return nil
}

func decodeReceipts(raw []json.RawMessage) ([]domain.Receipt, error) {
	recs := make([]domain.Receipt, 0, len(raw))
	for _, data := range raw {
		var rec domain.Receipt
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode receipt: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

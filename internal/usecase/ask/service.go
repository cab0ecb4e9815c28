// Package ask answers a natural-language question over one user's
// purchase history. Retrieval runs first: the question is embedded and
// matched against stored item vectors under an adaptive similarity
// threshold. When retrieval cannot produce evidence, the structured
// path takes over: plan, fetch with the index fallback ladder, project.
// Every path terminates in an answer object; the caller never sees a
// raw error.
package ask

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spendex/internal/domain"
	"github.com/kailas-cloud/spendex/internal/metrics"
	"github.com/kailas-cloud/spendex/internal/projector"
	"github.com/kailas-cloud/spendex/internal/retrieval"
)

const fetchFailureSummary = "Something went wrong while reading your purchase history. Please try again."

// Service orchestrates the two answer strategies.
type Service struct {
	parser   intentParser
	embedder queryEmbedder
	searcher vectorSearcher
	planner  queryPlanner
	fetcher  receiptFetcher
	llm      domain.Generator
	logger   *zap.Logger
}

// New creates the ask service.
func New(
	parser intentParser,
	embedder queryEmbedder,
	searcher vectorSearcher,
	planner queryPlanner,
	fetcher receiptFetcher,
	llm domain.Generator,
	logger *zap.Logger,
) *Service {
	return &Service{
		parser:   parser,
		embedder: embedder,
		searcher: searcher,
		planner:  planner,
		fetcher:  fetcher,
		llm:      llm,
		logger:   logger,
	}
}

// Ask answers the question for the user. Success is false only when the
// structured fetch fails fatally; every other failure degrades to a
// weaker but valid answer.
func (s *Service) Ask(ctx context.Context, userID, question string) domain.Result {
	q := s.parser.Parse(ctx, question)

	if res, ok := s.tryVector(ctx, userID, question, q); ok {
		metrics.AsksTotal.WithLabelValues(domain.SourceVector, "ok").Inc()
		return res
	}
	return s.structured(ctx, userID, question, q)
}

// tryVector runs the retrieval strategy. ok=false means the structured
// path should take over: embedding failure, no usable corpus, or
// nothing above even the floor threshold.
func (s *Service) tryVector(
	ctx context.Context, userID, question string, q domain.DynamicQuery,
) (domain.Result, bool) {
	emb, err := s.embedder.Embed(ctx, question)
	if err != nil {
		s.logger.Warn("Query embedding failed, falling back to structured path",
			zap.Error(err))
		return domain.Result{}, false
	}

	limit := q.Operations.Limit
	if limit <= 0 {
		limit = domain.DefaultResultLimit
	}

	threshold := retrieval.AdaptiveThreshold(question)
	hits, err := s.searcher.Search(ctx, userID, emb.Embedding, threshold, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNoEmbeddings) {
			s.logger.Debug("No embedding corpus for user", zap.String("user_id", userID))
		} else {
			s.logger.Warn("Vector search failed, falling back to structured path",
				zap.Error(err))
		}
		return domain.Result{}, false
	}

	if len(hits) == 0 {
		hits, err = s.searcher.Search(ctx, userID, emb.Embedding, retrieval.Floor, limit)
		if err != nil || len(hits) == 0 {
			return domain.Result{}, false
		}
		s.logger.Info("Similarity threshold expanded to floor",
			zap.Float64("threshold", threshold),
			zap.Float64("floor", retrieval.Floor),
			zap.Int("hits", len(hits)),
		)
	}

	rows := hitRows(hits)
	return domain.Result{
		Success:    true,
		Summary:    s.summarizeVector(ctx, question, hits),
		Items:      rows,
		Source:     domain.SourceVector,
		TotalItems: len(rows),
	}, true
}

func (s *Service) structured(
	ctx context.Context, userID, question string, q domain.DynamicQuery,
) domain.Result {
	constraints, post := s.planner.Plan(userID, q)

	outcome, err := s.fetcher.Fetch(ctx, constraints, userID)
	if err != nil {
		metrics.AsksTotal.WithLabelValues(domain.SourceStructured, "error").Inc()
		s.logger.Error("Receipt fetch failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return domain.Result{
			Summary: fetchFailureSummary,
			Source:  domain.SourceStructured,
			Err:     err.Error(),
		}
	}

	res := projector.Process(outcome, post)

	result := domain.Result{
		Success:    true,
		Summary:    s.summarizeStructured(ctx, question, q, res),
		Items:      res.Items,
		Source:     domain.SourceStructured,
		TotalItems: len(res.Items),
	}
	if res.IsGrouped {
		result.Grouped = res.Grouped
	}
	metrics.AsksTotal.WithLabelValues(domain.SourceStructured, "ok").Inc()
	return result
}

// Package retrieval ranks stored item embeddings against a query vector
// by cosine similarity, with a threshold adapted to the question shape.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/spendex/internal/domain"
	"github.com/kailas-cloud/spendex/internal/metrics"
)

const (
	// batchSize bounds concurrent similarity work per batch.
	batchSize = 10
	// maxCandidates caps how many stored embeddings one search considers.
	maxCandidates = 100
)

// lister is the consumer interface over the embedding index (ISP).
type lister interface {
	ListForUser(ctx context.Context, userID string) ([]domain.ItemEmbedding, error)
}

// Searcher runs vector retrieval over a user's embedding index.
type Searcher struct {
	index  lister
	logger *zap.Logger
}

// NewSearcher creates a vector searcher.
func NewSearcher(index lister, logger *zap.Logger) *Searcher {
	return &Searcher{index: index, logger: logger}
}

// Search scores every stored embedding for the user against queryVec and
// returns hits at or above threshold, best first, at most limit entries.
// Candidates with empty, mismatched, or zero-norm vectors are skipped.
func (s *Searcher) Search(
	ctx context.Context,
	userID string,
	queryVec []float32,
	threshold float64,
	limit int,
) ([]domain.SearchHit, error) {
	candidates, err := s.index.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoEmbeddings
	}
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	var (
		mu   sync.Mutex
		hits []domain.SearchHit
	)

	for start := 0; start < len(candidates); start += batchSize {
		// A cancelled request abandons the remaining batches.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, emb := range candidates[start:end] {
			emb := emb
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				sim, ok := s.score(queryVec, emb)
				if !ok || sim < threshold {
					return nil
				}
				mu.Lock()
				hits = append(hits, toHit(emb, sim))
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Searcher) score(queryVec []float32, emb domain.ItemEmbedding) (float64, bool) {
	if len(emb.Vector) == 0 {
		s.skip("empty_vector", emb.ID)
		return 0, false
	}
	if len(emb.Vector) != len(queryVec) {
		s.skip("dim_mismatch", emb.ID)
		return 0, false
	}
	sim, ok := CosineSimilarity(queryVec, emb.Vector)
	if !ok {
		s.skip("zero_norm", emb.ID)
		return 0, false
	}
	return sim, true
}

func (s *Searcher) skip(reason, id string) {
	metrics.RetrievalCandidatesSkipped.WithLabelValues(reason).Inc()
	s.logger.Debug("Skipping embedding candidate",
		zap.String("reason", reason),
		zap.String("embedding_id", id))
}

func toHit(emb domain.ItemEmbedding, sim float64) domain.SearchHit {
	return domain.SearchHit{
		ID:         emb.ID,
		UserID:     emb.UserID,
		ReceiptID:  emb.ReceiptID,
		Vendor:     emb.Vendor,
		Date:       emb.Date,
		Name:       emb.Name,
		Price:      emb.Price,
		Quantity:   emb.Quantity,
		Category:   emb.Category,
		Similarity: sim,
		Distance:   1 - sim,
	}
}

package ask

import (
	"context"

	"github.com/kailas-cloud/spendex/internal/domain"
)

// Consumer interfaces for the ask orchestrator (ISP).

type intentParser interface {
	Parse(ctx context.Context, question string) domain.DynamicQuery
}

type queryEmbedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

type vectorSearcher interface {
	Search(ctx context.Context, userID string, queryVec []float32, threshold float64, limit int) ([]domain.SearchHit, error)
}

type queryPlanner interface {
	Plan(userID string, q domain.DynamicQuery) ([]domain.Constraint, domain.PostProcessing)
}

type receiptFetcher interface {
	Fetch(ctx context.Context, constraints []domain.Constraint, userID string) (domain.FetchOutcome, error)
}

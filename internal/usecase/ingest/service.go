// Package ingest is the write path: it persists a receipt document and
// builds the per-item embedding corpus the retrieval path searches.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spendex/internal/domain"
)

// Consumer interfaces for ingestion (ISP).

type receiptStore interface {
	Put(ctx context.Context, rec domain.Receipt) error
}

type embeddingStore interface {
	Put(ctx context.Context, emb domain.ItemEmbedding) error
}

// Service stores receipts with their line-item embeddings.
type Service struct {
	receipts receiptStore
	index    embeddingStore
	embedder domain.Embedder
	logger   *zap.Logger
}

// New creates the ingest service. Providers that implement
// domain.BatchEmbedder embed all items in one call; the rest are driven
// through domain.BatchFallback.
func New(
	receipts receiptStore,
	index embeddingStore,
	embedder domain.Embedder,
	logger *zap.Logger,
) *Service {
	return &Service{receipts: receipts, index: index, embedder: embedder, logger: logger}
}

// Store persists the receipt and one embedding document per line item.
// Items are embedded in a single batch call.
func (s *Service) Store(ctx context.Context, rec domain.Receipt) (domain.Receipt, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if err := s.receipts.Put(ctx, rec); err != nil {
		return domain.Receipt{}, fmt.Errorf("store receipt: %w", err)
	}
	if len(rec.Items) == 0 {
		return rec, nil
	}

	inputs := make([]string, len(rec.Items))
	for i, it := range rec.Items {
		inputs[i] = embedInput(rec, it)
	}

	batch, err := s.embedItems(ctx, inputs)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("embed items: %w", err)
	}
	if len(batch.Embeddings) != len(rec.Items) {
		return domain.Receipt{}, fmt.Errorf(
			"embed items: got %d vectors for %d items", len(batch.Embeddings), len(rec.Items))
	}

	for i, it := range rec.Items {
		category := it.Category
		if category == "" {
			category = rec.Category
		}
		emb := domain.ItemEmbedding{
			ID:        uuid.NewString(),
			UserID:    rec.UserID,
			ReceiptID: rec.ID,
			Vendor:    rec.Vendor,
			Date:      rec.Date,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Category:  category,
			Vector:    batch.Embeddings[i],
			CreatedAt: rec.CreatedAt,
		}
		if err := s.index.Put(ctx, emb); err != nil {
			return domain.Receipt{}, fmt.Errorf("store item embedding: %w", err)
		}
	}

	s.logger.Info("Receipt ingested",
		zap.String("receipt_id", rec.ID),
		zap.String("user_id", rec.UserID),
		zap.Int("items", len(rec.Items)),
		zap.Int("embedding_tokens", batch.TotalTokens),
	)
	return rec, nil
}

func (s *Service) embedItems(ctx context.Context, inputs []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, inputs)
	}
	return domain.BatchFallback(ctx, s.embedder, inputs)
}

// embedInput is the canonical text embedded for a line item. The price
// bucket stands in for the raw amount so near-priced items cluster.
func embedInput(rec domain.Receipt, it domain.LineItem) string {
	category := it.Category
	if category == "" {
		category = rec.Category
	}
	return fmt.Sprintf("%s | %s | %s | %s", it.Name, category, priceBucket(it.Price), rec.Vendor)
}

func priceBucket(p float64) string {
	switch {
	case p >= 1000:
		return "₹1000_plus"
	case p >= 500:
		return "₹500_999"
	case p >= 100:
		return "₹100_499"
	default:
		return "₹0_99"
	}
}

// Package embindex stores per-line-item embedding documents, keyed per
// user so retrieval never crosses an ownership boundary.
package embindex

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/spendex/internal/domain"
)

// docStore is the consumer interface for embedding storage (ISP).
type docStore interface {
	PutDoc(ctx context.Context, prefix, id string, doc []byte) error
	ScanDocs(ctx context.Context, prefix string) ([]json.RawMessage, error)
}

// Repo reads and writes item embedding documents.
type Repo struct {
	store     docStore
	prefix    string
	opTimeout time.Duration
}

// New creates an embedding index repository. keyPrefix is the
// store-wide namespace, e.g. "spendex:". opTimeout bounds each store
// call.
func New(store docStore, keyPrefix string, opTimeout time.Duration) *Repo {
	return &Repo{store: store, prefix: keyPrefix + "emb:", opTimeout: opTimeout}
}

// Put stores one embedding document under the owning user's namespace.
func (r *Repo) Put(ctx context.Context, emb domain.ItemEmbedding) error {
	data, err := json.Marshal(emb)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}

	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	if err := r.store.PutDoc(ctx, r.userPrefix(emb.UserID), emb.ID, data); err != nil {
		return fmt.Errorf("put embedding: %w", err)
	}
	return nil
}

// ListForUser returns every embedding document owned by the user.
func (r *Repo) ListForUser(ctx context.Context, userID string) ([]domain.ItemEmbedding, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	raw, err := r.store.ScanDocs(ctx, r.userPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("scan embeddings: %w", err)
	}

	embs := make([]domain.ItemEmbedding, 0, len(raw))
	for _, data := range raw {
		var emb domain.ItemEmbedding
		if err := json.Unmarshal(data, &emb); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
		embs = append(embs, emb)
	}
	return embs, nil
}

func (r *Repo) userPrefix(userID string) string {
	return r.prefix + userID + ":"
}

func (r *Repo) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

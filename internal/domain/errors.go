package domain

import "errors"

var (
	// ErrNoEmbeddings signals a user with no embedded purchase history.
	ErrNoEmbeddings = errors.New("no embeddings for user")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationFailed signals a language-model call failure.
	ErrGenerationFailed = errors.New("generation failed")
)

package domain

import "context"

// Generator is the language-model collaborator: ordered prompt parts in,
// free text out. The output carries no structural guarantee and must be
// treated as untrusted text by callers that expect JSON.
type Generator interface {
	Generate(ctx context.Context, parts ...string) (string, error)
}

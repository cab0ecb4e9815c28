// Package intent turns a free-form question into a domain.DynamicQuery
// via the language-model collaborator. The model's output is untrusted
// text: it is de-fenced, truncated after the last closing brace, and
// JSON-parsed; any failure degrades to a minimal default query so the
// downstream stages always receive a well-formed object.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spendex/internal/domain"
)

// Parser converts questions into structured queries.
type Parser struct {
	llm    domain.Generator
	logger *zap.Logger
}

// New creates an intent parser.
func New(llm domain.Generator, logger *zap.Logger) *Parser {
	return &Parser{llm: llm, logger: logger}
}

// Parse returns the structured query for a question. It never fails:
// generation or JSON errors recover to domain.DefaultQuery, which is the
// designated degradation value, not an exceptional path.
func (p *Parser) Parse(ctx context.Context, question string) domain.DynamicQuery {
	q, err := p.parse(ctx, question)
	if err != nil {
		p.logger.Warn("Intent parse degraded to default query",
			zap.String("question", question),
			zap.Error(err),
		)
		return domain.DefaultQuery(question)
	}
	return q
}

func (p *Parser) parse(ctx context.Context, question string) (domain.DynamicQuery, error) {
	raw, err := p.llm.Generate(ctx, schemaPrompt, question)
	if err != nil {
		return domain.DynamicQuery{}, fmt.Errorf("generate: %w", err)
	}

	cleaned := TruncateAfterLastBrace(StripFences(raw))

	var q domain.DynamicQuery
	if err := json.Unmarshal([]byte(cleaned), &q); err != nil {
		return domain.DynamicQuery{}, fmt.Errorf("decode query json: %w", err)
	}

	if q.QueryIntent == "" {
		q.QueryIntent = question
	}
	if len(q.Filters.Extra) > 0 {
		p.logger.Debug("Ignoring unknown filter keys",
			zap.Int("count", len(q.Filters.Extra)),
		)
	}
	return q, nil
}

var (
	openFence  = regexp.MustCompile("(?i)^```(?:json)?[\r\n]*")
	closeFence = regexp.MustCompile("```[\r\n]*$")
)

// StripFences removes leading/trailing markdown code-fence markers.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = openFence.ReplaceAllString(s, "")
	s = closeFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// TruncateAfterLastBrace drops everything after the last '}', defending
// against trailing commentary appended by the model.
func TruncateAfterLastBrace(s string) string {
	if i := strings.LastIndex(s, "}"); i != -1 {
		return s[:i+1]
	}
	return s
}

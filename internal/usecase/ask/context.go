package ask

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/spendex/internal/domain"
)

const (
	// contextCharBudget bounds the evidence block fed to the
	// summarization model.
	contextCharBudget = 2000
	// maxItemsPerCategory caps how many hits one category contributes.
	maxItemsPerCategory = 10
)

// buildContext renders retrieval hits as a category-grouped evidence
// block, truncated to the character budget. Categories and items keep
// their hit order so the highest-similarity evidence survives
// truncation.
func buildContext(hits []domain.SearchHit, budget int) string {
	if len(hits) == 0 {
		return "No relevant items found."
	}

	var order []string
	byCategory := map[string][]domain.SearchHit{}
	for _, h := range hits {
		cat := h.Category
		if cat == "" {
			cat = "Others"
		}
		if _, seen := byCategory[cat]; !seen {
			order = append(order, cat)
		}
		byCategory[cat] = append(byCategory[cat], h)
	}

	var b strings.Builder
	for _, cat := range order {
		header := "\n" + strings.ToUpper(cat) + ":\n"
		if b.Len()+len(header) > budget {
			break
		}
		b.WriteString(header)

		items := byCategory[cat]
		if len(items) > maxItemsPerCategory {
			items = items[:maxItemsPerCategory]
		}
		for _, h := range items {
			vendor := h.Vendor
			if vendor == "" {
				vendor = "Unknown"
			}
			line := fmt.Sprintf("- %s - ₹%s (qty: %s) from %s [relevance: %.1f%%]\n",
				h.Name, formatINR(h.Price), formatQty(h.Quantity), vendor, h.Similarity*100)
			if b.Len()+len(line) > budget {
				break
			}
			b.WriteString(line)
		}
	}
	return strings.TrimSpace(b.String())
}

func formatQty(q float64) string {
	if q == 0 {
		q = 1
	}
	return strconv.FormatFloat(q, 'f', -1, 64)
}

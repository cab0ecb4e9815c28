package ask

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spendex/internal/domain"
)

// summarizeStructured renders the answer for the structured path.
// Aggregations and "last purchase" intents get deterministic phrases;
// grouped and free-form results go through the model with a templated
// fallback, so a model outage never reaches the user as an error.
func (s *Service) summarizeStructured(
	ctx context.Context, question string, q domain.DynamicQuery, res domain.ProcessResult,
) string {
	if len(res.Items) == 0 {
		return "No expenses found matching your query."
	}

	if res.IsGrouped {
		return s.summarizeGrouped(ctx, question, q, res)
	}

	if phrase, ok := aggregationPhrase(q.Operations.Aggregation, res.Items); ok {
		return phrase
	}

	intent := strings.ToLower(q.QueryIntent)
	if strings.Contains(intent, "last") || strings.Contains(intent, "recent") {
		item := res.Items[0]
		vendor := item.Vendor
		if vendor == "" {
			vendor = "Unknown vendor"
		}
		return fmt.Sprintf("Your last purchase was %s for ₹%s from %s on %s.",
			item.Name, formatINR(item.Price), vendor, item.Date)
	}

	sample := make([]string, 0, 5)
	for _, r := range res.Items {
		if len(sample) == 5 {
			break
		}
		vendor := r.Vendor
		if vendor == "" {
			vendor = "Unknown"
		}
		sample = append(sample, fmt.Sprintf("%s - ₹%s (%s)", r.Name, formatINR(r.Price), vendor))
	}

	text, err := s.llm.Generate(ctx,
		"Provide a clear summary of this expense data based on the user's question.",
		"User question: "+question,
		"Query intent: "+q.QueryIntent,
		fmt.Sprintf("Results: %d items, Total: ₹%s", len(res.Items), formatINR(sumPrices(res.Items))),
		"Sample items: "+strings.Join(sample, ", "),
		"Give a natural, conversational response in 1-2 sentences.",
	)
	if err != nil {
		s.logger.Warn("Summary generation failed, using template", zap.Error(err))
		return fallbackSummary(res.Items)
	}
	return collapseWhitespace(text)
}

type groupSummary struct {
	Group   map[string]string `json:"group"`
	Count   int               `json:"count"`
	Total   float64           `json:"total"`
	Average float64           `json:"average"`
}

func (s *Service) summarizeGrouped(
	ctx context.Context, question string, q domain.DynamicQuery, res domain.ProcessResult,
) string {
	summaries := make([]groupSummary, 0, len(res.Grouped))
	for _, g := range res.Grouped {
		summaries = append(summaries, groupSummary{
			Group:   g.Values,
			Count:   g.Metrics.Count,
			Total:   g.Metrics.Total,
			Average: g.Metrics.Avg,
		})
	}
	data, err := json.Marshal(summaries)
	if err != nil {
		return fallbackSummary(res.Items)
	}

	text, err := s.llm.Generate(ctx,
		"Summarize this grouped expense data based on the user's question.",
		"User question: "+question,
		"Query intent: "+q.QueryIntent,
		"Grouped data: "+string(data),
		"Provide a clear, concise summary in Indian currency format.",
	)
	if err != nil {
		s.logger.Warn("Grouped summary generation failed, using template", zap.Error(err))
		return fallbackSummary(res.Items)
	}
	return collapseWhitespace(text)
}

// summarizeVector renders the answer for the retrieval path: bounded
// evidence context plus summary statistics through the model, templated
// fallback on failure.
func (s *Service) summarizeVector(ctx context.Context, question string, hits []domain.SearchHit) string {
	rows := hitRows(hits)

	var totalSpent, totalUnits float64
	for _, r := range rows {
		totalSpent += r.Total
		totalUnits += r.Quantity
	}

	categories := uniqueValues(rows, func(r domain.Row) string { return r.Category })
	vendors := uniqueValues(rows, func(r domain.Row) string { return r.Vendor })

	text, err := s.llm.Generate(ctx,
		"You are a helpful financial assistant analyzing purchase history. Provide a natural, conversational response.",
		"PURCHASE DATA:\n"+buildContext(hits, contextCharBudget),
		fmt.Sprintf(
			"SUMMARY STATS:\n- Items found: %d\n- Total units: %s\n- Total value: ₹%s\n- Average price per unit: ₹%.2f\n- Categories: %s\n- Vendors: %s",
			len(rows), formatQty(totalUnits), formatINR(totalSpent), totalSpent/totalUnits,
			strings.Join(categories, ", "), strings.Join(vendors, ", "),
		),
		fmt.Sprintf("USER QUESTION: %q", question),
		"Give a direct answer based on the data, with specific numbers, in Indian currency format (₹), under 200 words.",
	)
	if err != nil {
		s.logger.Warn("Vector summary generation failed, using template", zap.Error(err))
		return fallbackSummary(rows)
	}
	return collapseWhitespace(text)
}

// aggregationPhrase renders the deterministic answer for an explicit
// aggregation. Unknown or absent aggregations return ok=false.
func aggregationPhrase(agg string, items []domain.Row) (string, bool) {
	total := sumPrices(items)
	count := len(items)

	switch agg {
	case "sum":
		return fmt.Sprintf("Total amount: ₹%s across %d items.", formatINR(total), count), true
	case "avg":
		return fmt.Sprintf("Average amount: ₹%.2f across %d items.", total/float64(count), count), true
	case "count":
		return fmt.Sprintf("Found %d items matching your criteria.", count), true
	case "max":
		top := items[0]
		for _, r := range items[1:] {
			if r.Price > top.Price {
				top = r
			}
		}
		return fmt.Sprintf("Highest amount: ₹%s for %s.", formatINR(top.Price), top.Name), true
	case "min":
		low := items[0]
		for _, r := range items[1:] {
			if r.Price < low.Price {
				low = r
			}
		}
		return fmt.Sprintf("Lowest amount: ₹%s for %s.", formatINR(low.Price), low.Name), true
	default:
		return "", false
	}
}

// fallbackSummary is the deterministic answer used whenever the model
// fails: item count, spend total, and the top rows.
func fallbackSummary(rows []domain.Row) string {
	var total float64
	for _, r := range rows {
		total += r.Total
	}

	plural := ""
	if len(rows) > 1 {
		plural = "s"
	}

	top := rows
	if len(top) > 3 {
		top = top[:3]
	}
	entries := make([]string, len(top))
	for i, r := range top {
		entries[i] = fmt.Sprintf("%s (₹%s × %s)", r.Name, formatINR(r.Price), formatQty(r.Quantity))
	}

	noun := "Top item is "
	if len(top) > 1 {
		noun = "Top items are "
	}

	b := fmt.Sprintf("I found %d item%s totaling ₹%s. ", len(rows), plural, formatINR(total))
	b += noun + strings.Join(entries, ", ")

	categories := uniqueValues(rows, func(r domain.Row) string { return r.Category })
	if len(categories) > 1 {
		b += fmt.Sprintf(". Spanning %d categories: %s", len(categories), strings.Join(categories, ", "))
	}
	return b
}

func hitRows(hits []domain.SearchHit) []domain.Row {
	rows := make([]domain.Row, len(hits))
	for i, h := range hits {
		rows[i] = h.Row()
	}
	return rows
}

func sumPrices(items []domain.Row) float64 {
	var total float64
	for _, r := range items {
		total += r.Price
	}
	return total
}

func uniqueValues(rows []domain.Row, get func(domain.Row) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range rows {
		v := get(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatINR renders an amount with Indian digit grouping: the last
// three integer digits, then groups of two (12,34,567.50).
func formatINR(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i != -1 {
		intPart, frac = s[:i], s[i:]
	}

	grouped := groupIndian(intPart)
	if neg {
		grouped = "-" + grouped
	}
	return grouped + frac
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}

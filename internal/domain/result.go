package domain

// SearchHit is one line-item retrieval result: the embedding document
// minus the vector, plus the computed similarity and distance.
type SearchHit struct {
	ID         string  `json:"id"`
	UserID     string  `json:"userId"`
	ReceiptID  string  `json:"receiptId"`
	Vendor     string  `json:"vendor"`
	Date       string  `json:"purchaseDate"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	Category   string  `json:"category"`
	Similarity float64 `json:"similarity"` // cosine, [-1, 1]
	Distance   float64 `json:"distance"`   // 1 - similarity
}

// Row converts a hit into the common evidence row shape.
func (h SearchHit) Row() Row {
	qty := h.Quantity
	if qty == 0 {
		qty = 1
	}
	return Row{
		Name:      h.Name,
		Price:     h.Price,
		Quantity:  qty,
		Total:     h.Price * qty,
		Category:  h.Category,
		Vendor:    h.Vendor,
		Date:      h.Date,
		ReceiptID: h.ReceiptID,
		UserID:    h.UserID,
	}
}

// GroupMetrics are the per-group aggregates over item price.
type GroupMetrics struct {
	Count int     `json:"count"`
	Total float64 `json:"totalAmount"`
	Avg   float64 `json:"avgAmount"`
	Min   float64 `json:"minAmount"`
	Max   float64 `json:"maxAmount"`
}

// Group is one group-by partition.
type Group struct {
	Key     string            `json:"groupKey"`
	Values  map[string]string `json:"groupValues"`
	Items   []Row             `json:"items"`
	Metrics GroupMetrics      `json:"metrics"`
}

// GroupMap indexes groups by their concatenated key.
type GroupMap map[string]*Group

// ProcessResult is the projector output: a flat row list, optionally
// plus a grouped view. Callers must branch on IsGrouped.
type ProcessResult struct {
	Items     []Row
	Grouped   GroupMap
	IsGrouped bool
}

// Answer strategies.
const (
	SourceVector     = "vector"
	SourceStructured = "structured"
)

// Result is the engine's terminal answer object. Every path through the
// engine produces one; Success is false only for fatal store failures.
type Result struct {
	Success    bool     `json:"success"`
	Summary    string   `json:"summary"`
	Items      []Row    `json:"items"`
	Grouped    GroupMap `json:"grouped,omitempty"`
	Source     string   `json:"source"`
	TotalItems int      `json:"totalItems"`
	Err        string   `json:"error,omitempty"`
}

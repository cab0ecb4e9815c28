package domain

import "time"

// LineItem is one purchased product within a receipt.
type LineItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Category string  `json:"category,omitempty"`
}

// Total is the derived line amount (price x quantity).
// A missing quantity counts as a single unit.
func (li LineItem) Total() float64 {
	qty := li.Quantity
	if qty == 0 {
		qty = 1
	}
	return li.Price * qty
}

// Receipt is one purchase event owned by a single user. Dates are stored
// as calendar-date strings (YYYY-MM-DD) with no time zone guarantee.
type Receipt struct {
	ID          string     `json:"receiptId"`
	UserID      string     `json:"userId"`
	Vendor      string     `json:"vendor"`
	Category    string     `json:"category"`
	Date        string     `json:"date"`
	Amount      float64    `json:"amount"`
	PaymentMode string     `json:"paymentMode,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Items       []LineItem `json:"items"`
}

// ItemEmbedding is a per-line-item dense vector plus denormalized receipt
// fields so hits can be ranked without a join. Immutable after creation.
type ItemEmbedding struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ReceiptID string    `json:"receiptId"`
	Vendor    string    `json:"vendor"`
	Date      string    `json:"purchaseDate"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Category  string    `json:"category"`
	Vector    []float32 `json:"embedding"`
	CreatedAt time.Time `json:"createdAt"`
}

// Row is one flattened line item carrying both item fields and
// denormalized receipt fields. This is the unit of evidence the engine
// filters, sorts, groups, and summarizes.
type Row struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Quantity     float64 `json:"quantity"`
	Total        float64 `json:"total"`
	Category     string  `json:"category"`
	Vendor       string  `json:"vendor"`
	Date         string  `json:"date"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	ReceiptID    string  `json:"receiptId"`
	ReceiptTotal float64 `json:"receiptTotal"`
	UserID       string  `json:"userId"`
	PaymentMode  string  `json:"paymentMode,omitempty"`
}

// Field returns a row field by its wire name, for dynamic sort and
// group-by. Unknown fields return nil.
func (r Row) Field(name string) any {
	switch name {
	case "name":
		return r.Name
	case "price":
		return r.Price
	case "quantity":
		return r.Quantity
	case "total":
		return r.Total
	case "category":
		return r.Category
	case "vendor":
		return r.Vendor
	case "date":
		return r.Date
	case "createdAt":
		return r.CreatedAt
	case "receiptId":
		return r.ReceiptID
	case "receiptTotal":
		return r.ReceiptTotal
	case "userId":
		return r.UserID
	case "paymentMode":
		return r.PaymentMode
	default:
		return nil
	}
}

package products

import (
	"time"

	"github.com/Spok95/cpq/internal/domain/pricing"
)

type Product struct {
	ID            int64   `json:"id"`
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	PricePerPiece float64 `json:"price_per_piece"`
	GST           float64 `json:"gst"`
	// PriceWithGST is stored at save time and not re-derived on read.
	PriceWithGST float64   `json:"price_with_gst"`
	Stock        int64     `json:"stock"`
	Images       []string  `json:"images"`
	Documents    []string  `json:"documents"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Price fills the derived price. Call it right before saving.
func (p *Product) Price() {
	p.PriceWithGST = pricing.PriceWithGST(p.PricePerPiece, p.GST)
}

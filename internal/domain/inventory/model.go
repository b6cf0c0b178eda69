package inventory

import "time"

type MoveType string

const (
	MoveIn  MoveType = "in"
	MoveOut MoveType = "out"
)

// Movement is one stock change of a product. Products.stock is the running
// sum of all movements.
type Movement struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ActorID   int64     `json:"actor_id"`
	ProductID int64     `json:"product_id"`
	OrderID   int64     `json:"order_id,omitempty"`
	Qty       int64     `json:"qty"`
	Type      MoveType  `json:"type"`
	Note      string    `json:"note"`
}

// Line is a quantity to move for one product.
type Line struct {
	ProductID int64
	Qty       int64
}

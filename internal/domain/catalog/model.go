package catalog

import "time"

// Category groups products in the catalogue and feeds the category
// allow-list of the product table filter.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

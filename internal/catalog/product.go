// Package catalog provides the in-memory product index: CSV loading,
// embedding-based similarity search and the exact lookups the chat pipeline
// issues against it. The index is immutable once built.
package catalog

import "fmt"

// Product is a single catalog item. The query path treats products as
// read-only.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`

	// Score is the similarity score attached by Search results; zero for
	// exact lookups.
	Score float64 `json:"similarity_score,omitempty"`
}

// SearchText returns the text embedded for this product. Richer text than the
// bare name improves retrieval quality.
func (p Product) SearchText() string {
	return fmt.Sprintf("Product: %s\nCategory: %s\nDescription: %s\nPrice: $%.2f",
		p.Name, p.Category, p.Description, p.Price)
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

// ErrNotFound is returned by GetByID when no product has the given id.
var ErrNotFound = errors.New("product not found")

// Config holds the dependencies for building an Index.
type Config struct {
	Logger   logger.Logger
	Embedder Embedder
	Products []Product
}

// Index is an immutable in-memory similarity index over the product catalog.
// It is safe for concurrent readers.
type Index struct {
	log      logger.Logger
	embedder Embedder
	products []Product
	vectors  [][]float64
	byID     map[int]int
}

// New builds an index over the given products.
func New(cfg Config) (*Index, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if len(cfg.Products) == 0 {
		return nil, fmt.Errorf("at least one product is required")
	}

	idx := &Index{
		log:      cfg.Logger,
		embedder: cfg.Embedder,
		products: cfg.Products,
		vectors:  make([][]float64, len(cfg.Products)),
		byID:     make(map[int]int, len(cfg.Products)),
	}
	for i, p := range cfg.Products {
		idx.vectors[i] = cfg.Embedder.Embed(p.SearchText())
		idx.byID[p.ID] = i
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("Catalog index built",
			logger.IntField("products", len(cfg.Products)),
			logger.IntField("dimension", cfg.Embedder.Dimension()))
	}
	return idx, nil
}

// Len returns the number of indexed products.
func (idx *Index) Len() int {
	return len(idx.products)
}

// Search returns up to k products ranked by embedding similarity to query,
// optionally restricted to a category.
func (idx *Index) Search(ctx context.Context, query string, k int, category string) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k < 1 {
		k = 1
	}

	qvec := idx.embedder.Embed(query)

	type scored struct {
		i     int
		score float64
	}
	ranked := make([]scored, 0, len(idx.products))
	for i := range idx.products {
		if category != "" && !strings.EqualFold(idx.products[i].Category, category) {
			continue
		}
		ranked = append(ranked, scored{i: i, score: cosine(qvec, idx.vectors[i])})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]Product, len(ranked))
	for i, s := range ranked {
		out[i] = idx.products[s.i]
		out[i].Score = s.score
	}
	return out, nil
}

// SearchByPrice returns up to k products with min <= price <= max, optionally
// restricted to a category, sorted by ascending price.
func (idx *Index) SearchByPrice(ctx context.Context, min, max float64, category string, k int) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k < 1 {
		k = 1
	}

	var out []Product
	for _, p := range idx.products {
		if p.Price < min || p.Price > max {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Price < out[b].Price })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// GetByID returns the product with the given id, or ErrNotFound.
func (idx *Index) GetByID(ctx context.Context, id int) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := idx.byID[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	p := idx.products[i]
	return &p, nil
}

// Categories returns the sorted set of distinct categories. The result is
// stable across calls as long as the index is not rebuilt.
func (idx *Index) Categories(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range idx.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ByCategory returns up to limit products in the given category, in catalog
// order.
func (idx *Index) ByCategory(ctx context.Context, category string, limit int) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Product
	for _, p := range idx.products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// All returns up to limit products in catalog order; limit <= 0 returns all.
func (idx *Index) All(ctx context.Context, limit int) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(idx.products)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Product, n)
	copy(out, idx.products[:n])
	return out, nil
}

// Vocabulary returns the distinct lowercase tokens of all product names,
// sorted. It seeds the extractor's product-name fallback.
func (idx *Index) Vocabulary() []string {
	seen := make(map[string]bool)
	for _, p := range idx.products {
		for _, tok := range Tokenize(p.Name) {
			seen[tok] = true
		}
	}
	out := make([]string, 0, len(seen))
	for tok := range seen {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// RankByKeywords re-ranks products by keyword overlap with a product name:
// each keyword hit in the name counts double, a hit in the category counts
// once, ties break on ascending price. Used to cross-check an extracted
// product name against a price-filtered result set.
func RankByKeywords(products []Product, name string) []Product {
	keywords := Tokenize(name)
	if len(keywords) == 0 {
		return products
	}

	score := func(p Product) int {
		n := strings.ToLower(p.Name)
		c := strings.ToLower(p.Category)
		total := 0
		for _, kw := range keywords {
			if strings.Contains(n, kw) {
				total += 2
			}
			if strings.Contains(c, kw) {
				total++
			}
		}
		return total
	}

	out := make([]Product, len(products))
	copy(out, products)
	sort.SliceStable(out, func(a, b int) bool {
		sa, sb := score(out[a]), score(out[b])
		if sa != sb {
			return sa > sb
		}
		return out[a].Price < out[b].Price
	})
	return out
}

package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// CatalogConfig holds product catalog settings. The price band numbers are
// empirically chosen and kept tunable rather than hard-coded.
type CatalogConfig struct {
	CSVPath string `env:"CATALOG_CSV_PATH" yaml:"catalog_csv_path" default:"products_list.csv"`

	// SearchK is the default result count for similarity search
	SearchK int `env:"CATALOG_SEARCH_K" yaml:"catalog_search_k" default:"5"`

	// PriceSentinel stands in for "no upper bound" so range arithmetic stays total
	PriceSentinel float64 `env:"PRICE_SENTINEL" yaml:"price_sentinel" default:"9999"`

	// PriceCap: extracted maxima above this clamp to the sentinel
	PriceCap float64 `env:"PRICE_CAP" yaml:"price_cap" default:"9999"`

	// AroundWindow is the half-width of the band for "around $X" phrasing
	AroundWindow float64 `env:"PRICE_AROUND_WINDOW" yaml:"price_around_window" default:"50"`

	// RangeIncrement is added to min when an extracted range has max <= min
	RangeIncrement float64 `env:"PRICE_RANGE_INCREMENT" yaml:"price_range_increment" default:"100"`
}

// Validate checks the catalog configuration.
func (c CatalogConfig) Validate() error {
	var result error

	if c.CSVPath == "" {
		result = multierror.Append(result, fmt.Errorf("catalog_csv_path is required"))
	}
	if c.SearchK < 1 {
		result = multierror.Append(result, fmt.Errorf("catalog_search_k must be positive, got %d", c.SearchK))
	}
	if c.PriceSentinel <= 0 {
		result = multierror.Append(result, fmt.Errorf("price_sentinel must be positive"))
	}
	if c.PriceCap > c.PriceSentinel {
		result = multierror.Append(result, fmt.Errorf("price_cap cannot exceed price_sentinel"))
	}
	if c.AroundWindow <= 0 {
		result = multierror.Append(result, fmt.Errorf("price_around_window must be positive"))
	}
	if c.RangeIncrement <= 0 {
		result = multierror.Append(result, fmt.Errorf("price_range_increment must be positive"))
	}

	return result
}

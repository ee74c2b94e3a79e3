// Package extractor parses price ranges, product identifiers, categories and
// product names out of free-text messages. Price and name extraction try a
// generation backend first and fall back to deterministic rules, so the
// functions never fail outright.
package extractor

import (
	"context"
	"strings"

	"github.com/lewisedginton/shopping_assistant/internal/generation"
	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

// Range is a price band. Max is always finite; open-ended phrasings use the
// configured sentinel.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Generator is the slice of the generation chain the extractor needs.
type Generator interface {
	Generate(ctx context.Context, messages []generation.Message, temperature float64, maxTokens int) (string, error)
}

// Config holds extractor dependencies and tunables.
type Config struct {
	Logger    logger.Logger
	Generator Generator

	// Sentinel stands in for "no upper bound"
	Sentinel float64

	// Cap: extracted maxima above this clamp to the sentinel
	Cap float64

	// AroundWindow is the half-width for "around $X" phrasing
	AroundWindow float64

	// Increment is added to min when an extracted range has max <= min
	Increment float64

	// Vocabulary is the known product-noun list used by the name fallback,
	// typically derived from the catalog
	Vocabulary []string
}

// Extractor parses entities from messages.
type Extractor struct {
	log       logger.Logger
	generator Generator
	sentinel  float64
	cap       float64
	window    float64
	increment float64
	vocab     map[string]bool
}

// New creates an Extractor. The Generator is optional: without one the
// deterministic tiers run alone.
func New(cfg Config) *Extractor {
	if cfg.Sentinel <= 0 {
		cfg.Sentinel = 9999
	}
	if cfg.Cap <= 0 {
		cfg.Cap = cfg.Sentinel
	}
	if cfg.AroundWindow <= 0 {
		cfg.AroundWindow = 50
	}
	if cfg.Increment <= 0 {
		cfg.Increment = 100
	}

	vocab := make(map[string]bool, len(cfg.Vocabulary))
	for _, w := range cfg.Vocabulary {
		vocab[strings.ToLower(w)] = true
	}

	return &Extractor{
		log:       cfg.Logger,
		generator: cfg.Generator,
		sentinel:  cfg.Sentinel,
		cap:       cfg.Cap,
		window:    cfg.AroundWindow,
		increment: cfg.Increment,
		vocab:     vocab,
	}
}

// Category returns the first known category mentioned in the text.
func (e *Extractor) Category(text string, known []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, category := range known {
		if category != "" && strings.Contains(lower, strings.ToLower(category)) {
			return category, true
		}
	}
	return "", false
}

// validate clamps an extracted range into a usable band: negative minima go
// to 0, maxima above the cap become the sentinel, and a max at or below the
// min is synthesized from the min.
func (e *Extractor) validate(r Range) Range {
	if r.Min < 0 {
		r.Min = 0
	}
	if r.Max > e.cap {
		r.Max = e.sentinel
	}
	if r.Max <= r.Min {
		r.Max = r.Min + e.increment
	}
	return r
}

func (e *Extractor) debugf(msg string, fields ...logger.LogField) {
	if e.log != nil {
		e.log.Debug(msg, fields...)
	}
}

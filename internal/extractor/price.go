package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lewisedginton/shopping_assistant/internal/generation"
	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

// priceRule maps a phrase pattern to a range. Rules are evaluated
// top-to-bottom; the first match wins, so more specific phrasings come first.
type priceRule struct {
	pattern *regexp.Regexp
	apply   func(e *Extractor, groups []string) Range
}

func groupFloat(groups []string, i int) float64 {
	v, _ := strconv.ParseFloat(groups[i], 64)
	return v
}

var priceRules = []priceRule{
	{regexp.MustCompile(`between\s+\$?(\d+(?:\.\d+)?)\s*(?:and|to|-)\s*\$?(\d+(?:\.\d+)?)`),
		func(_ *Extractor, g []string) Range { return Range{Min: groupFloat(g, 1), Max: groupFloat(g, 2)} }},
	{regexp.MustCompile(`from\s+\$?(\d+(?:\.\d+)?)\s*to\s*\$?(\d+(?:\.\d+)?)`),
		func(_ *Extractor, g []string) Range { return Range{Min: groupFloat(g, 1), Max: groupFloat(g, 2)} }},
	{regexp.MustCompile(`\$?(\d+(?:\.\d+)?)\s*(?:to|-)\s*\$(\d+(?:\.\d+)?)`),
		func(_ *Extractor, g []string) Range { return Range{Min: groupFloat(g, 1), Max: groupFloat(g, 2)} }},
	{regexp.MustCompile(`around\s+\$?(\d+(?:\.\d+)?)`),
		func(e *Extractor, g []string) Range {
			center := groupFloat(g, 1)
			min := center - e.window
			if min < 0 {
				min = 0
			}
			return Range{Min: min, Max: center + e.window}
		}},
	{regexp.MustCompile(`(?:under|below|less\s+than|cheaper\s+than|at\s+most)\s+\$?(\d+(?:\.\d+)?)`),
		func(_ *Extractor, g []string) Range { return Range{Min: 0, Max: groupFloat(g, 1)} }},
	{regexp.MustCompile(`(?:over|above|greater\s+than|more\s+than|at\s+least)\s+\$?(\d+(?:\.\d+)?)`),
		func(e *Extractor, g []string) Range { return Range{Min: groupFloat(g, 1), Max: e.sentinel} }},
	{regexp.MustCompile(`budget\s+of\s+\$?(\d+(?:\.\d+)?)`),
		func(_ *Extractor, g []string) Range { return Range{Min: 0, Max: groupFloat(g, 1)} }},
	{regexp.MustCompile(`price\s+range\s+\$?(\d+(?:\.\d+)?)`),
		func(_ *Extractor, g []string) Range { return Range{Min: 0, Max: groupFloat(g, 1)} }},
}

// qualitativeTerms are price words without a number attached.
var qualitativeTerms = regexp.MustCompile(`\b(?:affordable|cheap|budget|inexpensive|low[- ]cost)\b`)

// qualitativeBands maps lower-cased categories to the band a qualitative term
// implies for that category. Categories outside the map use genericBand.
var qualitativeBands = map[string]Range{
	"electronics": {Min: 0, Max: 300},
	"furniture":   {Min: 0, Max: 250},
	"appliances":  {Min: 0, Max: 200},
	"clothing":    {Min: 0, Max: 60},
	"accessories": {Min: 0, Max: 50},
	"books":       {Min: 0, Max: 25},
}

var genericBand = Range{Min: 0, Max: 100}

var priceLinePattern = regexp.MustCompile(`(?m)^\s*(min_price|max_price)\s*:\s*\$?(-?\d+(?:\.\d+)?)\s*$`)

// PriceRange extracts a price band from the text, or nil when none is
// mentioned. The generation backend is tried first with a constrained
// line-oriented prompt; any failure falls through to the rule table.
func (e *Extractor) PriceRange(ctx context.Context, text, category string) *Range {
	if r := e.priceFromBackend(ctx, text); r != nil {
		return r
	}
	return e.priceFromRules(text, category)
}

func (e *Extractor) priceFromBackend(ctx context.Context, text string) *Range {
	if e.generator == nil {
		return nil
	}

	prompt := fmt.Sprintf(`Extract the price range from the user message. Respond with exactly two lines:
min_price: <number>
max_price: <number>

Rules:
- "under/below/less than X" means min_price 0 and max_price X
- "over/above/more than X" means min_price X and max_price %.0f
- "between X and Y" means min_price X and max_price Y
- "around X" means min_price X-%.0f (not below 0) and max_price X+%.0f
- Numbers only, no currency symbols or ranges
- If the message mentions no price at all, respond with the single word: none

User message: %q`, e.sentinel, e.window, e.window, text)

	out, err := e.generator.Generate(ctx, generation.UserMessage(prompt), 0.1, 40)
	if err != nil {
		e.debugf("Price extraction backend failed, using rules",
			logger.ErrorField(err))
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(out), "none") {
		// The rule tier still runs; it catches qualitative phrasing the
		// backend does not treat as a price.
		return nil
	}

	var min, max *float64
	for _, m := range priceLinePattern.FindAllStringSubmatch(out, -1) {
		v, convErr := strconv.ParseFloat(m[2], 64)
		if convErr != nil {
			continue
		}
		switch m[1] {
		case "min_price":
			min = &v
		case "max_price":
			max = &v
		}
	}
	if min == nil || max == nil {
		e.debugf("Price extraction backend output unparsable, using rules",
			logger.StringField("output", out))
		return nil
	}

	r := e.validate(Range{Min: *min, Max: *max})
	return &r
}

func (e *Extractor) priceFromRules(text, category string) *Range {
	lower := strings.ToLower(text)

	for _, rule := range priceRules {
		if g := rule.pattern.FindStringSubmatch(lower); g != nil {
			r := e.validate(rule.apply(e, g))
			return &r
		}
	}

	if qualitativeTerms.MatchString(lower) {
		band := genericBand
		if category != "" {
			if b, ok := qualitativeBands[strings.ToLower(category)]; ok {
				band = b
			}
		}
		r := e.validate(band)
		return &r
	}

	return nil
}

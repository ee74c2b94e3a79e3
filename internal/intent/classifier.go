package intent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lewisedginton/shopping_assistant/internal/generation"
	"github.com/lewisedginton/shopping_assistant/pkg/logger"
)

// Generator is the slice of the generation chain the classifier needs.
type Generator interface {
	Generate(ctx context.Context, messages []generation.Message, temperature float64, maxTokens int) (string, error)
}

// Config holds classifier dependencies.
type Config struct {
	Logger logger.Logger

	// Generator is optional; without one the keyword fallback runs alone.
	Generator Generator
}

// Classifier maps a message plus a short conversation summary to a Result.
// It is stateless across messages.
type Classifier struct {
	log       logger.Logger
	generator Generator
}

// New creates a Classifier.
func New(cfg Config) *Classifier {
	return &Classifier{log: cfg.Logger, generator: cfg.Generator}
}

const classifyPrompt = `Classify the user message into exactly one intent:

1. "product_search" - looking for products, features, availability
2. "product_specific" - asking about one product by name or id, wants details
3. "category_browse" - wants to browse products by category
4. "price_range_search" - looking for products within a price range; any message carrying a price wins over plain product search
5. "issue_report" - reporting a problem, complaint, or needs help with an order or service
6. "general_chat" - greetings, small talk, unclear intent

Also decide needs_memory: true when the message depends on earlier conversation - pronouns or references like "it", "that one", "those", budget follow-ups like "cheaper than the last one", or continuation words like "also", "what about".

%sUser message: %q

Respond with exactly three lines:
intent: <one of the six values>
needs_memory: <true or false>
confidence: <low, medium or high>`

var responseLine = regexp.MustCompile(`(?m)^\s*(intent|needs_memory|confidence)\s*:\s*"?([a-z_]+)"?\s*$`)

// Classify returns an intent for the message. It always returns a valid
// Result: backend failure and malformed output both fall back to the keyword
// matcher.
func (c *Classifier) Classify(ctx context.Context, message, contextSummary string) Result {
	if c.generator != nil {
		if res, ok := c.classifyWithBackend(ctx, message, contextSummary); ok {
			return res
		}
	}
	return classifyByKeywords(message)
}

func (c *Classifier) classifyWithBackend(ctx context.Context, message, contextSummary string) (Result, bool) {
	var summaryPart string
	if contextSummary != "" {
		summaryPart = fmt.Sprintf("Recent conversation summary: %s\n\n", contextSummary)
	}
	prompt := fmt.Sprintf(classifyPrompt, summaryPart, message)

	out, err := c.generator.Generate(ctx, generation.UserMessage(prompt), 0.1, 30)
	if err != nil {
		if c.log != nil {
			c.log.Warn("Intent backend failed, using keyword fallback",
				logger.ErrorField(err))
		}
		return Result{}, false
	}

	res, err := parseResponse(out)
	if err != nil {
		if c.log != nil {
			c.log.Warn("Intent backend output unparsable, using keyword fallback",
				logger.StringField("output", out),
				logger.ErrorField(err))
		}
		return Result{}, false
	}
	return res, true
}

// parseResponse parses the key: value line protocol. An intent outside the
// fixed set or a missing needs_memory line is a parse failure.
func parseResponse(out string) (Result, error) {
	res := Result{Confidence: ConfidenceMedium}
	var haveIntent, haveMemory bool

	for _, m := range responseLine.FindAllStringSubmatch(strings.ToLower(out), -1) {
		switch m[1] {
		case "intent":
			res.Intent = Intent(m[2])
			haveIntent = true
		case "needs_memory":
			v, err := strconv.ParseBool(m[2])
			if err != nil {
				return Result{}, fmt.Errorf("bad needs_memory value %q", m[2])
			}
			res.NeedsMemory = v
			haveMemory = true
		case "confidence":
			switch Confidence(m[2]) {
			case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
				res.Confidence = Confidence(m[2])
			}
		}
	}

	if !haveIntent || !res.Intent.Valid() {
		return Result{}, fmt.Errorf("intent missing or outside the fixed set")
	}
	if !haveMemory {
		return Result{}, fmt.Errorf("needs_memory line missing")
	}
	return res, nil
}

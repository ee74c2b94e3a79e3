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

// Product ids must be exact, so this is pattern-only: no backend call.
var productIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`product\s+id\s+(\d+)`),
	regexp.MustCompile(`product\s+number\s+(\d+)`),
	regexp.MustCompile(`show\s+me\s+product\s+(\d+)`),
	regexp.MustCompile(`give\s+me\s+product\s+(\d+)`),
	regexp.MustCompile(`product\s+(\d+)`),
	regexp.MustCompile(`\bid\s+(\d+)`),
}

// ProductID extracts an explicit product id reference from the text.
func (e *Extractor) ProductID(text string) (int, bool) {
	lower := strings.ToLower(text)
	for _, pattern := range productIDPatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			id, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			return id, true
		}
	}
	return 0, false
}

// stopWords are dropped by the name fallback along with price and location
// words.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "i": true, "me": true, "my": true,
	"am": true, "is": true, "are": true, "was": true, "do": true, "does": true,
	"can": true, "could": true, "would": true, "want": true, "need": true,
	"looking": true, "for": true, "show": true, "find": true, "get": true,
	"buy": true, "some": true, "any": true, "please": true, "you": true,
	"have": true, "in": true, "on": true, "at": true, "of": true, "to": true,
	"and": true, "or": true, "with": true, "that": true, "this": true,
	// price and location words
	"under": true, "below": true, "over": true, "above": true, "around": true,
	"between": true, "cheap": true, "cheaper": true, "affordable": true,
	"budget": true, "price": true, "priced": true, "cost": true, "dollars": true,
	"store": true, "shop": true, "online": true, "nearby": true, "near": true,
	"here": true, "there": true,
}

// genericNames are backend answers too vague to search with.
var genericNames = map[string]bool{
	"gift": true, "gifts": true, "something": true, "anything": true,
	"item": true, "items": true, "product": true, "products": true,
	"stuff": true, "things": true, "none": true,
}

const maxNameWords = 6

// ProductName extracts a searchable product name from the text. The backend
// keeps descriptive modifiers and strips price and location words; vocabulary
// matching covers backend failure and over-generic answers.
func (e *Extractor) ProductName(ctx context.Context, text, memoryContext string) (string, bool) {
	if name, ok := e.nameFromBackend(ctx, text, memoryContext); ok {
		return name, true
	}
	return e.nameFromVocabulary(text)
}

func (e *Extractor) nameFromBackend(ctx context.Context, text, memoryContext string) (string, bool) {
	if e.generator == nil {
		return "", false
	}

	var contextPart string
	if memoryContext != "" {
		contextPart = fmt.Sprintf("\nConversation context: %s\n", memoryContext)
	}

	prompt := fmt.Sprintf(`Extract the product the user is talking about from the message below.
Keep descriptive modifiers like category, material or feature adjectives.
Drop price words, budget amounts and location words.
Respond with only the product phrase, at most %d words. If there is no product, respond with the single word: none.
%s
User message: %q`, maxNameWords, contextPart, text)

	out, err := e.generator.Generate(ctx, generation.UserMessage(prompt), 0.1, 30)
	if err != nil {
		e.debugf("Name extraction backend failed, using vocabulary",
			logger.ErrorField(err))
		return "", false
	}

	name := strings.ToLower(strings.Trim(strings.TrimSpace(out), `"'.`))
	if name == "" || genericNames[name] {
		return "", false
	}
	if len(strings.Fields(name)) > maxNameWords {
		e.debugf("Name extraction backend output over-length, using vocabulary",
			logger.StringField("output", name))
		return "", false
	}
	return name, true
}

func (e *Extractor) nameFromVocabulary(text string) (string, bool) {
	var kept []string
	found := false
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, `.,!?"'$`)
		if tok == "" || stopWords[tok] || isNumeric(tok) {
			continue
		}
		kept = append(kept, tok)
		if e.vocab[tok] || e.vocab[strings.TrimSuffix(tok, "s")] {
			found = true
		}
	}
	if !found || len(kept) == 0 {
		return "", false
	}
	if len(kept) > maxNameWords {
		kept = kept[:maxNameWords]
	}
	return strings.Join(kept, " "), true
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

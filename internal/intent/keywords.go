package intent

import (
	"regexp"
	"strings"
)

// Deterministic fallback classifier. Rules apply in strict priority order so
// the result is total and stable even with no backend reachable:
// price phrase with a digit > explicit product id > issue phrase > greeting >
// category browse > product keyword > general chat.

var (
	pricePhrase = regexp.MustCompile(`(?:under|below|less\s+than|cheaper\s+than|between|around|over|above|more\s+than|budget|price\s+range|from)\s+\$?\d+|\$\d+\s*(?:to|-)\s*\$?\d+`)

	productIDPhrase = regexp.MustCompile(`product\s+(?:id\s+|number\s+)?\d+|\bid\s+\d+`)

	issueWords = []string{
		"broken", "broke", "not working", "doesn't work", "does not work",
		"defective", "damaged", "faulty", "problem", "issue", "complaint",
		"complain", "refund", "return", "never arrived", "missing", "wrong item",
		"late", "delayed", "help with my order",
	}

	greetingWords = []string{
		"hello", "hi ", "hey", "good morning", "good afternoon", "good evening",
		"how are you", "thanks", "thank you", "bye", "goodbye", "who are you",
		"my name is",
	}

	browseWords = []string{
		"browse", "categories", "category", "what do you sell",
		"what do you have", "show me everything", "all products",
	}

	productWords = []string{
		"product", "buy", "purchase", "looking for", "find", "search",
		"recommend", "suggest", "need a", "need an", "want a", "want an",
		"show me", "price", "cost", "available", "in stock",
	}

	// Short reference words match on word boundaries to avoid substrings
	// like "it" inside "items".
	shortReference = regexp.MustCompile(`\b(?:it|that|those|them|also)\b`)

	referencePhrases = []string{
		"this one", "that one", "what about", "tell me more", "continue",
		"the last one", "instead", "cheaper one",
	}
)

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// needsMemoryByKeywords reports whether the message references prior
// conversation.
func needsMemoryByKeywords(lower string) bool {
	return shortReference.MatchString(lower) || containsAny(lower, referencePhrases)
}

// classifyByKeywords is the deterministic fallback. It always returns a valid
// Result.
func classifyByKeywords(message string) Result {
	lower := strings.ToLower(message)
	needsMemory := needsMemoryByKeywords(lower)

	switch {
	case pricePhrase.MatchString(lower):
		return Result{Intent: PriceRangeSearch, NeedsMemory: needsMemory, Confidence: ConfidenceMedium}
	case productIDPhrase.MatchString(lower):
		return Result{Intent: ProductSpecific, NeedsMemory: needsMemory, Confidence: ConfidenceMedium}
	case containsAny(lower, issueWords):
		return Result{Intent: IssueReport, NeedsMemory: needsMemory, Confidence: ConfidenceMedium}
	case containsAny(lower, greetingWords):
		return Result{Intent: GeneralChat, NeedsMemory: needsMemory, Confidence: ConfidenceMedium}
	case containsAny(lower, browseWords):
		return Result{Intent: CategoryBrowse, NeedsMemory: needsMemory, Confidence: ConfidenceMedium}
	case containsAny(lower, productWords):
		return Result{Intent: ProductSearch, NeedsMemory: needsMemory, Confidence: ConfidenceLow}
	default:
		return Result{Intent: GeneralChat, NeedsMemory: needsMemory, Confidence: ConfidenceLow}
	}
}

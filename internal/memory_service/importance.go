package memory_service

import (
	"regexp"
	"strings"

	"github.com/lewisedginton/shopping_assistant/internal/catalog"
)

// Importance grades how essential retrieved memory is to answering the
// current message. It gates how much memory text is forwarded downstream:
// full context for critical and high, a truncated prefix for medium and low,
// nothing for none.
type Importance string

// Importance tiers.
const (
	ImportanceNone     Importance = "none"
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

var (
	criticalRef     = regexp.MustCompile(`\b(?:it|that)\b`)
	criticalPhrases = []string{"that product", "this one", "that one", "continue", "tell me more", "what about", "the last one"}

	budgetPhrases     = []string{"budget", "afford", "gift", "present", "for my", "for her", "for him", "for them", "cheaper"}
	preferenceVerbs   = []string{"likes", "like", "prefer", "prefers", "interested", "loves", "enjoys", "favorite"}
	continuationWords = []string{"also", "and then", "another", "what else", "next", "too"}
	greetingWords     = []string{"hello", "hi", "hey", "thanks", "thank you", "good morning", "good evening", "bye"}
)

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Analyze scores how essential the retrieved memory is for the message. Pure
// heuristic over the lower-cased texts; no backend call.
func Analyze(message, memoryText string) Importance {
	if strings.TrimSpace(memoryText) == "" {
		return ImportanceNone
	}

	msg := strings.ToLower(message)
	mem := strings.ToLower(memoryText)

	if criticalRef.MatchString(msg) || containsAny(msg, criticalPhrases) {
		return ImportanceCritical
	}
	if containsAny(msg, budgetPhrases) && containsAny(mem, preferenceVerbs) {
		return ImportanceHigh
	}
	if containsAny(msg, continuationWords) {
		return ImportanceMedium
	}
	if containsAny(msg, greetingWords) {
		return ImportanceLow
	}
	return ImportanceNone
}

// BuildContext renders up to three records into a bounded context string for
// the given importance tier. Records are assumed newest first.
func BuildContext(importance Importance, records []Record, truncateLength int) string {
	if importance == ImportanceNone || len(records) == 0 {
		return ""
	}
	if len(records) > 3 {
		records = records[:3]
	}

	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, r.Summary())
	}
	text := strings.Join(parts, "; ")

	switch importance {
	case ImportanceCritical, ImportanceHigh:
		return text
	default:
		if truncateLength > 0 && len(text) > truncateLength {
			return text[:truncateLength]
		}
		return text
	}
}

// FilterEcho drops records whose word overlap with the current message meets
// or exceeds the threshold, so the system does not "remember" the message
// just sent. Overlap is the Jaccard similarity of the distinct word sets,
// computed against the verbatim message each record stores rather than the
// prefixed UserText.
func FilterEcho(records []Record, message string, threshold float64) []Record {
	if threshold <= 0 {
		threshold = 0.6
	}
	msgWords := wordSet(message)

	out := records[:0:0]
	for _, r := range records {
		if wordOverlap(msgWords, wordSet(r.EchoText())) >= threshold {
			continue
		}
		out = append(out, r)
	}
	return out
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range catalog.Tokenize(text) {
		set[tok] = true
	}
	return set
}

func wordOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if b[w] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

// Package intent classifies user messages into the fixed intent set the
// orchestrator dispatches on, plus a memory-dependency signal.
package intent

// Intent is the classified purpose of a user message.
type Intent string

// The fixed intent set. Classify never returns a value outside it.
const (
	ProductSearch    Intent = "product_search"
	ProductSpecific  Intent = "product_specific"
	CategoryBrowse   Intent = "category_browse"
	PriceRangeSearch Intent = "price_range_search"
	GeneralChat      Intent = "general_chat"
	IssueReport      Intent = "issue_report"
)

// Confidence grades how sure the classifier is.
type Confidence string

// Confidence levels.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Result is the classifier output for a single message.
type Result struct {
	Intent      Intent     `json:"intent"`
	NeedsMemory bool       `json:"needs_memory"`
	Confidence  Confidence `json:"confidence"`
}

// Valid reports whether the intent belongs to the fixed set.
func (i Intent) Valid() bool {
	switch i {
	case ProductSearch, ProductSpecific, CategoryBrowse, PriceRangeSearch, GeneralChat, IssueReport:
		return true
	default:
		return false
	}
}

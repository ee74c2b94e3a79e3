package intent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/shopping_assistant/internal/generation"
)

type fakeGenerator struct {
	out string
	err error
}

func (f *fakeGenerator) Generate(_ context.Context, _ []generation.Message, _ float64, _ int) (string, error) {
	return f.out, f.err
}

func TestClassifyBackend(t *testing.T) {
	c := New(Config{Generator: &fakeGenerator{
		out: "intent: price_range_search\nneeds_memory: false\nconfidence: high",
	}})

	res := c.Classify(context.Background(), "laptops under $500", "")
	assert.Equal(t, PriceRangeSearch, res.Intent)
	assert.False(t, res.NeedsMemory)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
}

func TestClassifyBackendOutageFallsBack(t *testing.T) {
	c := New(Config{Generator: &fakeGenerator{err: fmt.Errorf("unreachable")}})

	tests := []struct {
		message string
		want    Intent
	}{
		{"show me laptops under $500", PriceRangeSearch},
		{"show me product 42", ProductSpecific},
		{"my laptop is broken", IssueReport},
		{"hello there", GeneralChat},
		{"let me browse your categories", CategoryBrowse},
		{"I'm looking for a gift", ProductSearch},
		{"zzz qqq", GeneralChat},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			res := c.Classify(context.Background(), tc.message, "")
			assert.Equal(t, tc.want, res.Intent)
			assert.True(t, res.Intent.Valid())
		})
	}
}

func TestClassifyUnlistedIntentFallsBack(t *testing.T) {
	c := New(Config{Generator: &fakeGenerator{
		out: "intent: world_domination\nneeds_memory: false\nconfidence: high",
	}})

	res := c.Classify(context.Background(), "show me product 42", "")
	assert.Equal(t, ProductSpecific, res.Intent)
}

func TestClassifyMissingNeedsMemoryFallsBack(t *testing.T) {
	c := New(Config{Generator: &fakeGenerator{out: "intent: product_search"}})

	res := c.Classify(context.Background(), "hello", "")
	assert.Equal(t, GeneralChat, res.Intent)
}

func TestClassifyNoGenerator(t *testing.T) {
	c := New(Config{})

	res := c.Classify(context.Background(), "products between $20 and $100", "")
	assert.Equal(t, PriceRangeSearch, res.Intent)
}

func TestKeywordPriorityPriceBeatsProductID(t *testing.T) {
	// A price phrase with a digit outranks an id phrase.
	res := classifyByKeywords("product 42 under $100")
	assert.Equal(t, PriceRangeSearch, res.Intent)
}

func TestKeywordNeedsMemory(t *testing.T) {
	res := classifyByKeywords("tell me more about that")
	assert.True(t, res.NeedsMemory)
	assert.Equal(t, GeneralChat, res.Intent)

	res = classifyByKeywords("show me laptops")
	assert.False(t, res.NeedsMemory)
}

func TestParseResponseVariants(t *testing.T) {
	res, err := parseResponse("Intent: general_chat\nNeeds_Memory: true\nConfidence: low")
	require.NoError(t, err)
	assert.Equal(t, GeneralChat, res.Intent)
	assert.True(t, res.NeedsMemory)
	assert.Equal(t, ConfidenceLow, res.Confidence)

	// Missing confidence defaults to medium
	res, err = parseResponse("intent: issue_report\nneeds_memory: false")
	require.NoError(t, err)
	assert.Equal(t, ConfidenceMedium, res.Confidence)

	_, err = parseResponse("sure, happy to help!")
	require.Error(t, err)
}

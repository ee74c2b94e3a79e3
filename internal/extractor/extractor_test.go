package extractor

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

func newOffline() *Extractor {
	return New(Config{Vocabulary: []string{"laptop", "mouse", "wallet", "shoes", "lamp"}})
}

func TestPriceRangeRules(t *testing.T) {
	e := newOffline()
	ctx := context.Background()

	tests := []struct {
		message string
		want    Range
	}{
		{"show me laptops under $500", Range{Min: 0, Max: 500}},
		{"anything below 80 would be great", Range{Min: 0, Max: 80}},
		{"less than $30 please", Range{Min: 0, Max: 30}},
		{"cheaper than $45", Range{Min: 0, Max: 45}},
		{"between $20 and $100", Range{Min: 20, Max: 100}},
		{"between 50 to 150", Range{Min: 50, Max: 150}},
		{"from $10 to $25", Range{Min: 10, Max: 25}},
		{"something in $100 - $200", Range{Min: 100, Max: 200}},
		{"around $75", Range{Min: 25, Max: 125}},
		{"around $30", Range{Min: 0, Max: 80}},
		{"over $1000", Range{Min: 1000, Max: 9999}},
		{"more than 250", Range{Min: 250, Max: 9999}},
		{"budget of $60", Range{Min: 0, Max: 60}},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			got := e.PriceRange(ctx, tc.message, "")
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestPriceRangeNoPrice(t *testing.T) {
	e := newOffline()
	assert.Nil(t, e.PriceRange(context.Background(), "tell me about your laptops", ""))
}

func TestPriceRangeQualitative(t *testing.T) {
	e := newOffline()
	ctx := context.Background()

	generic := e.PriceRange(ctx, "show me some cheap stuff", "")
	require.NotNil(t, generic)
	assert.Equal(t, Range{Min: 0, Max: 100}, *generic)

	electronics := e.PriceRange(ctx, "affordable gadgets please", "Electronics")
	require.NotNil(t, electronics)
	assert.Equal(t, Range{Min: 0, Max: 300}, *electronics)
}

func TestPriceRangeBackendTier(t *testing.T) {
	e := New(Config{Generator: &fakeGenerator{out: "min_price: 100\nmax_price: 400"}})

	got := e.PriceRange(context.Background(), "laptops in my budget", "")
	require.NotNil(t, got)
	assert.Equal(t, Range{Min: 100, Max: 400}, *got)
}

func TestPriceRangeBackendFailureFallsBack(t *testing.T) {
	e := New(Config{Generator: &fakeGenerator{err: fmt.Errorf("backend down")}})

	got := e.PriceRange(context.Background(), "under $500", "")
	require.NotNil(t, got)
	assert.Equal(t, Range{Min: 0, Max: 500}, *got)
}

func TestPriceRangeBackendGarbageFallsBack(t *testing.T) {
	e := New(Config{Generator: &fakeGenerator{out: "the price is about right"}})

	got := e.PriceRange(context.Background(), "under $500", "")
	require.NotNil(t, got)
	assert.Equal(t, Range{Min: 0, Max: 500}, *got)
}

func TestPriceRangeValidation(t *testing.T) {
	e := New(Config{Generator: &fakeGenerator{out: "min_price: -20\nmax_price: 50000"}})

	got := e.PriceRange(context.Background(), "whatever the backend says", "")
	require.NotNil(t, got)
	assert.Equal(t, Range{Min: 0, Max: 9999}, *got)

	// max <= min synthesizes a band above min
	e = New(Config{Generator: &fakeGenerator{out: "min_price: 100\nmax_price: 100"}})
	got = e.PriceRange(context.Background(), "exactly 100", "")
	require.NotNil(t, got)
	assert.Equal(t, Range{Min: 100, Max: 200}, *got)
}

func TestProductID(t *testing.T) {
	e := newOffline()

	tests := []struct {
		message string
		want    int
		ok      bool
	}{
		{"show me product 42", 42, true},
		{"product id 7", 7, true},
		{"give me product 13", 13, true},
		{"what about id 99", 99, true},
		{"product number 5", 5, true},
		{"show me laptops", 0, false},
		{"under $500", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			id, ok := e.ProductID(tc.message)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestCategory(t *testing.T) {
	e := newOffline()
	known := []string{"Electronics", "Accessories", "Sports"}

	got, ok := e.Category("show me some electronics under $200", known)
	require.True(t, ok)
	assert.Equal(t, "Electronics", got)

	_, ok = e.Category("hello there", known)
	assert.False(t, ok)
}

func TestProductNameBackend(t *testing.T) {
	e := New(Config{Generator: &fakeGenerator{out: `"wireless gaming mouse"`}})

	name, ok := e.ProductName(context.Background(), "I want a wireless gaming mouse under $50", "")
	require.True(t, ok)
	assert.Equal(t, "wireless gaming mouse", name)
}

func TestProductNameRejectsGenericAndLong(t *testing.T) {
	e := New(Config{
		Generator:  &fakeGenerator{out: "gift"},
		Vocabulary: []string{"laptop"},
	})

	name, ok := e.ProductName(context.Background(), "a nice laptop for my friend", "")
	require.True(t, ok)
	assert.Contains(t, name, "laptop")

	e = New(Config{
		Generator:  &fakeGenerator{out: "a very long rambling answer that never stops going on"},
		Vocabulary: []string{"laptop"},
	})
	name, ok = e.ProductName(context.Background(), "a nice laptop", "")
	require.True(t, ok)
	assert.Contains(t, name, "laptop")
}

func TestProductNameVocabularyFallback(t *testing.T) {
	e := New(Config{
		Generator:  &fakeGenerator{err: fmt.Errorf("backend down")},
		Vocabulary: []string{"shoes"},
	})

	name, ok := e.ProductName(context.Background(), "I need running shoes under $100", "")
	require.True(t, ok)
	assert.Equal(t, "running shoes", name)

	_, ok = e.ProductName(context.Background(), "how are you today", "")
	assert.False(t, ok)
}

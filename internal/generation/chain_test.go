package generation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, _ []Message, _ float64, _ int) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func TestNewRequiresProviders(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestGenerateFirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: "first", text: "hello"}
	second := &fakeProvider{name: "second", text: "unused"}

	chain, err := New(Config{Providers: []Provider{first, second}})
	require.NoError(t, err)

	text, err := chain.Generate(context.Background(), UserMessage("hi"), 0.7, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 0, second.calls)
}

func TestGenerateFallsBackOnError(t *testing.T) {
	first := &fakeProvider{name: "first", err: fmt.Errorf("rate limited")}
	second := &fakeProvider{name: "second", text: "backup answer"}

	chain, err := New(Config{Providers: []Provider{first, second}})
	require.NoError(t, err)

	text, err := chain.Generate(context.Background(), UserMessage("hi"), 0.7, 100)
	require.NoError(t, err)
	assert.Equal(t, "backup answer", text)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestGenerateTreatsEmptyAsFailure(t *testing.T) {
	first := &fakeProvider{name: "first", text: "   "}
	second := &fakeProvider{name: "second", text: "real answer"}

	chain, err := New(Config{Providers: []Provider{first, second}})
	require.NoError(t, err)

	text, err := chain.Generate(context.Background(), UserMessage("hi"), 0.7, 100)
	require.NoError(t, err)
	assert.Equal(t, "real answer", text)
}

func TestGenerateTimeoutAdvancesChain(t *testing.T) {
	slow := &fakeProvider{name: "slow", text: "too late", delay: 200 * time.Millisecond}
	fast := &fakeProvider{name: "fast", text: "in time"}

	chain, err := New(Config{Providers: []Provider{slow, fast}, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	text, err := chain.Generate(context.Background(), UserMessage("hi"), 0.7, 100)
	require.NoError(t, err)
	assert.Equal(t, "in time", text)
}

func TestGenerateAllFail(t *testing.T) {
	first := &fakeProvider{name: "first", err: fmt.Errorf("down")}
	second := &fakeProvider{name: "second", err: fmt.Errorf("also down")}

	chain, err := New(Config{Providers: []Provider{first, second}})
	require.NoError(t, err)

	_, err = chain.Generate(context.Background(), UserMessage("hi"), 0.7, 100)
	require.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.Contains(t, err.Error(), "also down")
}

func TestGenerateCancelledContext(t *testing.T) {
	p := &fakeProvider{name: "p", text: "never"}
	chain, err := New(Config{Providers: []Provider{p}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = chain.Generate(ctx, UserMessage("hi"), 0.7, 100)
	require.Error(t, err)
	assert.Equal(t, 0, p.calls)
}

func TestProviders(t *testing.T) {
	chain, err := New(Config{Providers: []Provider{
		&fakeProvider{name: "a"},
		&fakeProvider{name: "b"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, chain.Providers())
}

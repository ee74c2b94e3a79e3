package memory_service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(userText, botText string) Record {
	return Record{
		UserID:    "u1",
		UserText:  userText,
		BotText:   botText,
		Intent:    "product_search",
		CreatedAt: time.Now(),
	}
}

func TestInProcessAppendAndRecent(t *testing.T) {
	s := NewInProcessStore(10)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "u1", record("first", "reply one")))
	require.NoError(t, s.Append(ctx, "u1", record("second", "reply two")))
	require.NoError(t, s.Append(ctx, "u2", record("other user", "reply")))

	recent, err := s.Recent(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].UserText)
	assert.Equal(t, "first", recent[1].UserText)

	one, err := s.Recent(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "second", one[0].UserText)
}

func TestInProcessCapEvictsOldest(t *testing.T) {
	s := NewInProcessStore(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Append(ctx, "u1", record(fmt.Sprintf("message %d", i), "ok")))
	}

	recent, err := s.Recent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "message 5", recent[0].UserText)
	assert.Equal(t, "message 3", recent[2].UserText)
}

func TestInProcessSearch(t *testing.T) {
	s := NewInProcessStore(10)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "u1", record("looking for laptops", "showed laptops")))
	require.NoError(t, s.Append(ctx, "u1", record("thanks", "you are welcome")))

	hits, err := s.Search(ctx, "u1", "laptop computers laptops")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "looking for laptops", hits[0].UserText)
}

func TestInProcessProfileAndClear(t *testing.T) {
	s := NewInProcessStore(10)
	ctx := context.Background()

	p, err := s.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, s.StoreProfile(ctx, "u1", "alice", "alice@example.com"))
	p, err = s.Profile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "alice", p.Username)

	require.NoError(t, s.Append(ctx, "u1", record("hello", "hi")))
	require.NoError(t, s.Clear(ctx, "u1"))

	recent, err := s.Recent(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
	p, err = s.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestAnalyzeImportance(t *testing.T) {
	memory := "User: I want a gift | Assistant: she likes hiking gear"

	tests := []struct {
		name    string
		message string
		memory  string
		want    Importance
	}{
		{"no memory", "tell me more about that", "", ImportanceNone},
		{"referential", "tell me more about that product", memory, ImportanceCritical},
		{"pronoun", "is it waterproof", memory, ImportanceCritical},
		{"budget with preference", "a gift under my budget", memory, ImportanceHigh},
		{"continuation", "show me another one too", memory, ImportanceMedium},
		{"greeting", "thanks so much", memory, ImportanceLow},
		{"unrelated", "do you sell couches", memory, ImportanceNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Analyze(tc.message, tc.memory))
		})
	}
}

func TestBuildContext(t *testing.T) {
	records := []Record{
		record("newest", "reply a"),
		record("middle", "reply b"),
		record("older", "reply c"),
		record("oldest", "reply d"),
	}

	full := BuildContext(ImportanceCritical, records, 20)
	assert.Contains(t, full, "newest")
	assert.Contains(t, full, "older")
	assert.NotContains(t, full, "oldest") // at most three records

	truncated := BuildContext(ImportanceMedium, records, 20)
	assert.Len(t, truncated, 20)

	assert.Empty(t, BuildContext(ImportanceNone, records, 20))
	assert.Empty(t, BuildContext(ImportanceCritical, nil, 20))
}

func TestFilterEcho(t *testing.T) {
	message := "show me cheap gaming laptops"
	records := []Record{
		record("show me cheap gaming laptops", "echo of the current message"),
		record("I want a leather wallet", "showed wallets"),
	}

	kept := FilterEcho(records, message, 0.6)
	require.Len(t, kept, 1)
	assert.Equal(t, "I want a leather wallet", kept[0].UserText)
}

func TestFilterEchoKeepsPartialOverlap(t *testing.T) {
	message := "what about gaming laptops"
	records := []Record{
		record("tell me about your store opening hours please", "we are open daily"),
	}

	kept := FilterEcho(records, message, 0.6)
	assert.Len(t, kept, 1)
}

func TestFilterEchoComparesVerbatimMessage(t *testing.T) {
	// Handlers prefix UserText ("User searched for: ..."), which waters down
	// the overlap for short messages. The verbatim message stored in Extra
	// must be the comparison text.
	message := "red mug"
	records := []Record{
		{
			UserText: "User searched for: red mug",
			BotText:  "Found 1 product",
			Extra:    map[string]string{ExtraMessage: "red mug"},
		},
		{
			UserText: "User searched for: oak table",
			BotText:  "Found 1 product",
			Extra:    map[string]string{ExtraMessage: "oak table"},
		},
	}

	kept := FilterEcho(records, message, 0.6)
	require.Len(t, kept, 1)
	assert.Equal(t, "oak table", kept[0].Extra[ExtraMessage])
}

func TestRecordEchoText(t *testing.T) {
	withRaw := Record{
		UserText: "User searched for: red mug",
		Extra:    map[string]string{ExtraMessage: "red mug"},
	}
	assert.Equal(t, "red mug", withRaw.EchoText())

	legacy := Record{UserText: "I want a leather wallet"}
	assert.Equal(t, "I want a leather wallet", legacy.EchoText())
}

package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/shopping_assistant/internal/generation"
)

func TestNewValidation(t *testing.T) {
	_, err := New(context.Background(), "", "gemini-2.0-flash")
	require.Error(t, err)

	_, err = New(context.Background(), "test-key", "")
	require.Error(t, err)
}

func TestTransformMessages(t *testing.T) {
	contents, system := transformMessages([]generation.Message{
		{Role: generation.RoleSystem, Content: "be helpful"},
		{Role: generation.RoleUser, Content: "hello"},
		{Role: generation.RoleAssistant, Content: "hi"},
	})

	assert.Equal(t, "be helpful", system)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", string(contents[0].Role))
	assert.Equal(t, "model", string(contents[1].Role))
	require.Len(t, contents[0].Parts, 1)
	assert.Equal(t, "hello", contents[0].Parts[0].Text)
}

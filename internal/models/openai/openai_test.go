package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/shopping_assistant/internal/generation"
)

func TestNewValidation(t *testing.T) {
	_, err := New("", "gpt-4o-mini")
	require.Error(t, err)

	_, err = New("sk-test", "")
	require.Error(t, err)

	m, err := New("sk-test", "gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "openai", m.Name())
}

func TestNewCompatibleName(t *testing.T) {
	m, err := NewCompatible("groq", "gsk-test", "llama-3.3-70b-versatile")
	require.NoError(t, err)
	assert.Equal(t, "groq", m.Name())
}

func TestTransformMessages(t *testing.T) {
	msgs := transformMessages([]generation.Message{
		{Role: generation.RoleSystem, Content: "be terse"},
		{Role: generation.RoleUser, Content: "hello"},
		{Role: generation.RoleAssistant, Content: "hi"},
		{Role: "unknown", Content: "fallback"},
	})

	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
	assert.NotNil(t, msgs[3].OfUser)
}

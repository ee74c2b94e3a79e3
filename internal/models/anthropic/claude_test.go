package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/shopping_assistant/internal/generation"
)

func TestNewValidation(t *testing.T) {
	_, err := New("", "claude-3-5-haiku-20241022")
	require.Error(t, err)

	_, err = New("sk-ant-test", "")
	require.Error(t, err)

	m, err := New("sk-ant-test", "claude-3-5-haiku-20241022")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", m.Name())
}

func TestTransformMessages(t *testing.T) {
	msgs, system := transformMessages([]generation.Message{
		{Role: generation.RoleSystem, Content: "be helpful"},
		{Role: generation.RoleSystem, Content: "be brief"},
		{Role: generation.RoleUser, Content: "hello"},
		{Role: generation.RoleAssistant, Content: "hi"},
	})

	assert.Equal(t, "be helpful\n\nbe brief", system)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
}

package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOptimizer(t *testing.T) {
	msgs, err := RenderOptimizer(context.Background(), "Could you {maybe} explain tides?")
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "as concise as possible")
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, ExampleVerbosePrompt, msgs[1].Content)
	assert.Equal(t, schema.Assistant, msgs[2].Role)
	assert.Equal(t, ExampleRewrite, msgs[2].Content)
	assert.Equal(t, schema.User, msgs[3].Role)
	assert.Equal(t, "Could you {maybe} explain tides?", msgs[3].Content)
}

package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/optimizer_prompt.txt
var optimizerSystemPrompt string

// Fixed worked example shown to the engine before the real prompt.
const (
	ExampleVerbosePrompt = "I am working very hard to cook with steak that I just bought. Generate me a recipe."
	ExampleRewrite       = "Recipe for steak."
)

const promptKey = "prompt"

var optimizerTemplate = prompt.FromMessages(
	schema.FString,
	schema.SystemMessage(optimizerSystemPrompt),
	schema.UserMessage(ExampleVerbosePrompt),
	schema.AssistantMessage(ExampleRewrite, nil),
	// user text goes through a placeholder so braces in it are never interpreted
	schema.MessagesPlaceholder(promptKey, false),
)

// RenderOptimizer renders the rewrite instruction context followed by text as
// the final user turn. Rendering through the eino prompt component emits
// prompt callbacks.
func RenderOptimizer(ctx context.Context, text string) ([]*schema.Message, error) {
	msgs, err := optimizerTemplate.Format(ctx, map[string]any{
		promptKey: []*schema.Message{schema.UserMessage(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("optimizer prompt render: %w", err)
	}
	if len(msgs) != 4 {
		return nil, fmt.Errorf("optimizer prompt render: expected 4 messages, got %d", len(msgs))
	}
	return msgs, nil
}

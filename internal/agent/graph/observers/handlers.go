package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks aggregates all observer handlers (graph, lambda, prompt, model) into one callbacks.Handler.
func NewAllCallbacks() einocb.Handler {
	nodeHandler := newNodeHandler()

	return callbackHelper.NewHandlerHelper().
		Graph(nodeHandler).
		Lambda(nodeHandler).
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}

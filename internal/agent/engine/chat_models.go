package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/hydrochat-core/server/internal/agent/model"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// ChatModelFactory builds the chat model backing the engine. progress receives
// human-readable loading steps.
type ChatModelFactory func(ctx context.Context, progress func(string)) (einomodel.BaseChatModel, error)

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"

	DefaultOllamaURL   = "http://127.0.0.1:11434"
	DefaultOllamaModel = "llama3.2:1b"
	DefaultGeminiModel = "gemini-2.5-flash-lite"
)

// FactoryFor selects the chat model provider named in the config. The local
// Ollama runtime is the default; Gemini stays available as a hosted fallback.
func FactoryFor(cfg model.EngineConfig) (ChatModelFactory, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOllama:
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultOllamaURL
		}
		if cfg.Model == "" {
			cfg.Model = DefaultOllamaModel
		}
		return NewOllamaFactory(cfg), nil
	case ProviderGemini:
		if cfg.Model == "" {
			cfg.Model = DefaultGeminiModel
		}
		return NewGeminiFactory(cfg), nil
	default:
		return nil, fmt.Errorf("unknown engine provider %q", cfg.Provider)
	}
}

// NewOllamaFactory returns a factory for a model served by a local Ollama
// runtime. Nothing is contacted until the first generation, so readiness only
// reflects a reachable model when warm-up is enabled.
func NewOllamaFactory(cfg model.EngineConfig) ChatModelFactory {
	return func(ctx context.Context, progress func(string)) (einomodel.BaseChatModel, error) {
		progress(fmt.Sprintf("Connecting to local runtime at %s...", cfg.BaseURL))

		chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			logx.Error().Err(err).Str("base_url", cfg.BaseURL).Msg("Error creating Ollama model")
			return nil, fmt.Errorf("error creating optimizer model: %w", err)
		}
		progress(fmt.Sprintf("Loading optimizer model %s...", cfg.Model))
		return chatModel, nil
	}
}

// NewGeminiFactory returns a factory creating a Gemini chat model through genai.
func NewGeminiFactory(cfg model.EngineConfig) ChatModelFactory {
	return func(ctx context.Context, progress func(string)) (einomodel.BaseChatModel, error) {
		progress("Connecting to optimizer backend...")

		clientCfg := &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if cfg.BaseURL != "" {
			clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
		}

		client, err := genai.NewClient(ctx, clientCfg)
		if err != nil {
			logx.Error().Err(err).Msg("Error creating Gemini client")
			return nil, fmt.Errorf("error creating Gemini client: %w", err)
		}

		progress(fmt.Sprintf("Loading optimizer model %s...", cfg.Model))
		maxTokens := cfg.MaxTokens
		chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:    client,
			Model:     cfg.Model,
			MaxTokens: &maxTokens,
		})
		if err != nil {
			logx.Error().Err(err).Msg("Error creating optimizer model")
			return nil, fmt.Errorf("error creating optimizer model: %w", err)
		}
		return chatModel, nil
	}
}

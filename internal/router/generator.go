package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/hydrochat-core/server/internal/agent/model"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// Generator answers prompts either in a chosen region (the green route) or
// on the provider's global endpoint.
type Generator interface {
	GenerateRegional(ctx context.Context, region, prompt string) (string, error)
	GenerateGlobal(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator serves regional calls through Vertex AI and global calls
// through the Gemini API. Chat models are built on first use and reused.
type GeminiGenerator struct {
	cfg model.ServerConfig

	mu     sync.Mutex
	models map[string]einomodel.BaseChatModel
}

const globalKey = "global"

func NewGeminiGenerator(cfg model.ServerConfig) *GeminiGenerator {
	return &GeminiGenerator{cfg: cfg, models: map[string]einomodel.BaseChatModel{}}
}

func (g *GeminiGenerator) GenerateRegional(ctx context.Context, region, prompt string) (string, error) {
	if g.cfg.VertexProject == "" {
		return "", errors.New("no Vertex AI project configured")
	}
	cm, err := g.model(ctx, region, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  g.cfg.VertexProject,
		Location: region,
	})
	if err != nil {
		return "", err
	}
	return generate(ctx, cm, prompt)
}

func (g *GeminiGenerator) GenerateGlobal(ctx context.Context, prompt string) (string, error) {
	if g.cfg.GeminiAPIKey == "" {
		return "", errors.New("no Gemini API key configured")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  g.cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.cfg.GeminiBaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = g.cfg.GeminiBaseURL
	}
	cm, err := g.model(ctx, globalKey, clientCfg)
	if err != nil {
		return "", err
	}
	return generate(ctx, cm, prompt)
}

func (g *GeminiGenerator) model(ctx context.Context, key string, clientCfg *genai.ClientConfig) (einomodel.BaseChatModel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cm, ok := g.models[key]; ok {
		return cm, nil
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating genai client for %s: %w", key, err)
	}
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: client,
		Model:  g.cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating chat model for %s: %w", key, err)
	}

	logx.Debug().Str("backend", key).Str("model", g.cfg.Model).Msg("Generation model created")
	g.models[key] = cm
	return cm, nil
}

func generate(ctx context.Context, cm einomodel.BaseChatModel, prompt string) (string, error) {
	msg, err := cm.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", errors.New("empty generation")
	}
	return msg.Content, nil
}

// Package engine adapts a chat model into the local prompt-optimizer engine:
// initialized once in the background, then used for single-shot rewrites.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/hydrochat-core/server/internal/agent/model"
	errx "github.com/hydrochat-core/server/internal/core/error"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// ErrEngineNotReady is returned by ChatComplete before initialization succeeded.
var ErrEngineNotReady = errors.New("optimizer engine not ready")

const (
	StatusInitializing = "Initializing..."
	StatusLoading      = "Loading local optimizer model (this may take a moment)..."
	StatusReady        = "System Ready."
	StatusFailed       = "Error loading model."
)

type Option func(*Engine)

// WithWarmup issues one throwaway generation before reporting Ready.
func WithWarmup(on bool) Option {
	return func(e *Engine) { e.warmup = on }
}

// WithInitTimeout bounds initialization; zero means no bound.
func WithInitTimeout(d time.Duration) Option {
	return func(e *Engine) { e.initTimeout = d }
}

type Engine struct {
	factory     ChatModelFactory
	warmup      bool
	initTimeout time.Duration

	once      sync.Once
	done      chan struct{}
	mu        sync.RWMutex
	readiness model.Readiness
	chat      einomodel.BaseChatModel
}

func New(factory ChatModelFactory, opts ...Option) *Engine {
	e := &Engine{
		factory:   factory,
		done:      make(chan struct{}),
		readiness: model.Readiness{State: model.EngineLoading, Status: StatusInitializing},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start runs Initialize on its own goroutine. The returned channel is closed
// once readiness is terminal.
func (e *Engine) Start(ctx context.Context, onProgress func(string)) <-chan struct{} {
	go e.Initialize(ctx, onProgress)
	return e.done
}

// Initialize loads the backing model at most once per Engine and returns the
// resulting readiness. Later calls return the terminal readiness unchanged.
func (e *Engine) Initialize(ctx context.Context, onProgress func(string)) model.Readiness {
	e.once.Do(func() {
		defer close(e.done)
		e.initialize(ctx, onProgress)
	})
	<-e.done
	return e.Readiness()
}

func (e *Engine) initialize(ctx context.Context, onProgress func(string)) {
	progress := func(text string) {
		if text == "" {
			return
		}
		e.mu.Lock()
		if !e.readiness.Terminal() {
			e.readiness.Status = text
		}
		e.mu.Unlock()
		if onProgress != nil {
			onProgress(text)
		}
	}

	if e.initTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.initTimeout)
		defer cancel()
	}

	started := time.Now()
	progress(StatusLoading)

	chat, err := e.load(ctx, progress)
	if err != nil {
		logx.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("Optimizer engine failed to initialize")
		e.setReadiness(model.Readiness{State: model.EngineFailed, Status: StatusFailed}, nil)
		if onProgress != nil {
			onProgress(StatusFailed)
		}
		return
	}

	e.setReadiness(model.Readiness{State: model.EngineReady, Status: StatusReady}, chat)
	if onProgress != nil {
		onProgress(StatusReady)
	}
	logx.Info().Dur("elapsed", time.Since(started)).Msg("Optimizer engine ready")
}

func (e *Engine) load(ctx context.Context, progress func(string)) (chat einomodel.BaseChatModel, err error) {
	defer func() {
		if r := recover(); r != nil {
			chat, err = nil, fmt.Errorf("engine init panic: %v", r)
		}
	}()

	if e.factory == nil {
		return nil, fmt.Errorf("no chat model factory configured")
	}
	chat, err = e.factory(ctx, progress)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, fmt.Errorf("chat model factory returned nil")
	}
	if e.warmup {
		progress("Warming up optimizer model...")
		if _, err := chat.Generate(ctx, []*schema.Message{schema.UserMessage("ping")}); err != nil {
			return nil, fmt.Errorf("warmup: %w", err)
		}
	}
	return chat, nil
}

func (e *Engine) setReadiness(r model.Readiness, chat einomodel.BaseChatModel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readiness = r
	e.chat = chat
}

// Readiness returns a snapshot of the engine state.
func (e *Engine) Readiness() model.Readiness {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.readiness
}

// ChatComplete runs one generation. Callers serialize calls; the engine does not.
// It fails with ErrEngineNotReady until initialization succeeded.
func (e *Engine) ChatComplete(ctx context.Context, messages []*schema.Message, temperature float32) (string, error) {
	e.mu.RLock()
	chat, ready := e.chat, e.readiness.Ready()
	e.mu.RUnlock()

	if !ready || chat == nil {
		return "", errx.WrapEngine(ErrEngineNotReady)
	}

	out, err := chat.Generate(ctx, messages, einomodel.WithTemperature(temperature))
	if err != nil {
		return "", errx.WrapEngine(err)
	}
	if out == nil {
		return "", nil
	}
	return out.Content, nil
}

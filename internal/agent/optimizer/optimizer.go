// Package optimizer shrinks a user prompt with the local engine before it is
// routed, and reports the estimated token savings.
package optimizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/hydrochat-core/server/internal/agent/graph/prompts"
	"github.com/hydrochat-core/server/internal/agent/model"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// Outcome tells whether the prompt was rewritten.
type Outcome int

const (
	Skipped Outcome = iota
	Optimized
)

func (o Outcome) String() string {
	if o == Optimized {
		return "optimized"
	}
	return "skipped"
}

// SkipReason is telemetry only; it is never shown to the user.
type SkipReason string

const (
	ReasonNone        SkipReason = ""
	ReasonNotReady    SkipReason = "not_ready"
	ReasonEngineError SkipReason = "engine_error"
	ReasonEmptyOutput SkipReason = "empty_output"
	ReasonRenderError SkipReason = "render_error"
)

// Result is the output of one optimization attempt. Prompt is always the text
// to forward: the rewrite when Optimized, the original when Skipped.
type Result struct {
	Outcome         Outcome
	Prompt          string
	OriginalTokens  int
	OptimizedTokens int
	TokensSaved     int
	SkipReason      SkipReason
	Err             error
}

// Engine is the part of the local engine the optimizer needs.
type Engine interface {
	Readiness() model.Readiness
	ChatComplete(ctx context.Context, messages []*schema.Message, temperature float32) (string, error)
}

type Optimizer struct {
	engine      Engine
	temperature float32
}

func New(engine Engine, cfg model.OptimizerConfig) *Optimizer {
	return &Optimizer{engine: engine, temperature: cfg.Temperature}
}

// Optimize never fails: any engine unavailability or error degrades to a
// Skipped pass-through of the original text.
func (o *Optimizer) Optimize(ctx context.Context, text string) (res Result) {
	originalTokens := model.EstimateTokens(text)
	skip := func(reason SkipReason, err error) Result {
		return Result{
			Outcome:         Skipped,
			Prompt:          text,
			OriginalTokens:  originalTokens,
			OptimizedTokens: originalTokens,
			SkipReason:      reason,
			Err:             err,
		}
	}

	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "optimizer").Msgf("panic recovered: %v", r)
			res = skip(ReasonEngineError, fmt.Errorf("optimizer panic: %v", r))
		}
	}()

	if o.engine == nil || !o.engine.Readiness().Ready() {
		return skip(ReasonNotReady, nil)
	}

	messages, err := prompts.RenderOptimizer(ctx, text)
	if err != nil {
		logx.Warn().Err(err).Msg("Optimizer prompt render failed; forwarding original prompt")
		return skip(ReasonRenderError, err)
	}

	out, err := o.engine.ChatComplete(ctx, messages, o.temperature)
	if err != nil {
		logx.Warn().Err(err).Msg("Optimizer engine call failed; forwarding original prompt")
		return skip(ReasonEngineError, err)
	}
	if strings.TrimSpace(out) == "" {
		logx.Debug().Msg("Optimizer returned empty output; forwarding original prompt")
		return skip(ReasonEmptyOutput, nil)
	}

	newTokens := model.EstimateTokens(out)
	return Result{
		Outcome:         Optimized,
		Prompt:          out,
		OriginalTokens:  originalTokens,
		OptimizedTokens: newTokens,
		TokensSaved:     model.TokensSaved(originalTokens, newTokens),
	}
}

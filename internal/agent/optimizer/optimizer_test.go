package optimizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrochat-core/server/internal/agent/engine"
	"github.com/hydrochat-core/server/internal/agent/engine/enginetest"
	"github.com/hydrochat-core/server/internal/agent/model"
)

type stubEngine struct {
	readiness model.Readiness
	out       string
	err       error
	calls     int
	lastMsgs  []*schema.Message
	lastTemp  float32
}

func (s *stubEngine) Readiness() model.Readiness { return s.readiness }

func (s *stubEngine) ChatComplete(ctx context.Context, msgs []*schema.Message, temp float32) (string, error) {
	s.calls++
	s.lastMsgs = msgs
	s.lastTemp = temp
	return s.out, s.err
}

var ready = model.Readiness{State: model.EngineReady}

func TestOptimizeSkipsWhenNotReady(t *testing.T) {
	for _, state := range []model.ReadinessState{model.EngineLoading, model.EngineFailed} {
		eng := &stubEngine{readiness: model.Readiness{State: state}, out: "short"}
		res := New(eng, model.OptimizerConfig{Temperature: 0.1}).Optimize(context.Background(), "hello")

		assert.Equal(t, Skipped, res.Outcome)
		assert.Equal(t, ReasonNotReady, res.SkipReason)
		assert.Equal(t, "hello", res.Prompt)
		assert.Equal(t, 0, res.TokensSaved)
		assert.Equal(t, 2, res.OriginalTokens)
		assert.Zero(t, eng.calls)
	}
}

func TestOptimizeHalvesPrompt(t *testing.T) {
	original := strings.Repeat("a", 40)
	eng := &stubEngine{readiness: ready, out: strings.Repeat("b", 20)}

	res := New(eng, model.OptimizerConfig{Temperature: 0.1}).Optimize(context.Background(), original)

	assert.Equal(t, Optimized, res.Outcome)
	assert.Equal(t, 10, res.OriginalTokens)
	assert.Equal(t, 5, res.OptimizedTokens)
	assert.Equal(t, 5, res.TokensSaved)
	assert.Equal(t, strings.Repeat("b", 20), res.Prompt)
	assert.Equal(t, float32(0.1), eng.lastTemp)

	require.Len(t, eng.lastMsgs, 4)
	assert.Equal(t, original, eng.lastMsgs[3].Content)
}

func TestOptimizeLongerRewriteSavesNothing(t *testing.T) {
	eng := &stubEngine{readiness: ready, out: "a much longer rewrite than the input"}

	res := New(eng, model.OptimizerConfig{}).Optimize(context.Background(), "tiny")

	assert.Equal(t, Optimized, res.Outcome)
	assert.Equal(t, 0, res.TokensSaved)
	assert.Equal(t, "a much longer rewrite than the input", res.Prompt)
}

func TestOptimizeEmptyAndErrorAreDistinctSkips(t *testing.T) {
	empty := New(&stubEngine{readiness: ready, out: ""}, model.OptimizerConfig{}).Optimize(context.Background(), "hello there")
	assert.Equal(t, Skipped, empty.Outcome)
	assert.Equal(t, ReasonEmptyOutput, empty.SkipReason)
	assert.Equal(t, "hello there", empty.Prompt)

	boom := errors.New("device lost")
	failed := New(&stubEngine{readiness: ready, err: boom}, model.OptimizerConfig{}).Optimize(context.Background(), "hello there")
	assert.Equal(t, Skipped, failed.Outcome)
	assert.Equal(t, ReasonEngineError, failed.SkipReason)
	assert.ErrorIs(t, failed.Err, boom)
	assert.Equal(t, 0, failed.TokensSaved)
}

func TestOptimizeForwardsRewriteVerbatim(t *testing.T) {
	blank := New(&stubEngine{readiness: ready, out: " \n\t"}, model.OptimizerConfig{}).Optimize(context.Background(), "hello there")
	assert.Equal(t, Skipped, blank.Outcome)
	assert.Equal(t, ReasonEmptyOutput, blank.SkipReason)

	rewrite := "  Steak recipe?\n"
	res := New(&stubEngine{readiness: ready, out: rewrite}, model.OptimizerConfig{}).Optimize(context.Background(), "hello there")
	assert.Equal(t, Optimized, res.Outcome)
	assert.Equal(t, rewrite, res.Prompt)
	assert.Equal(t, model.EstimateTokens(rewrite), res.OptimizedTokens)
}

type panicEngine struct{}

func (panicEngine) Readiness() model.Readiness { return ready }
func (panicEngine) ChatComplete(context.Context, []*schema.Message, float32) (string, error) {
	panic("engine exploded")
}

func TestOptimizeRecoversFromPanic(t *testing.T) {
	res := New(panicEngine{}, model.OptimizerConfig{}).Optimize(context.Background(), "hello")
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, ReasonEngineError, res.SkipReason)
	assert.Equal(t, "hello", res.Prompt)
}

func TestOptimizeWithEngine(t *testing.T) {
	chat := enginetest.New(enginetest.Reply{Content: "Recipe for pasta."})
	eng := engine.New(func(ctx context.Context, progress func(string)) (einomodel.BaseChatModel, error) {
		return chat, nil
	})
	eng.Initialize(context.Background(), nil)

	res := New(eng, model.OptimizerConfig{Temperature: 0.1}).Optimize(context.Background(),
		"I would really love it if you could give me a recipe for some pasta tonight.")

	assert.Equal(t, Optimized, res.Outcome)
	assert.Equal(t, "Recipe for pasta.", res.Prompt)
	assert.Greater(t, res.TokensSaved, 0)
	assert.Equal(t, []float32{0.1}, chat.Temperatures())
}

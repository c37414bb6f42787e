package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/hydrochat-core/server/internal/agent/model"
	"github.com/hydrochat-core/server/internal/agent/optimizer"
	"github.com/hydrochat-core/server/internal/agent/routing"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// Graph node keys.
const (
	NodeOptimizer      = "PromptOptimizer"
	NodeRouter         = "GreenRouter"
	NodeResolveSuccess = "ResolveSuccess"
	NodeResolveFailure = "ResolveFailure"
)

// RoutingErrorPrefix opens every system record written for a failed routing call.
const RoutingErrorPrefix = "Error: Could not reach the routing service."

type PromptOptimizer interface {
	Optimize(ctx context.Context, text string) optimizer.Result
}

type Router interface {
	Route(ctx context.Context, prompt string) (*routing.Reply, error)
}

// Recorder appends to the session log.
type Recorder interface {
	Append(ctx context.Context, record model.SessionRecord) int
}

type SavingsApplier interface {
	Apply(tokensSaved int, waterSavedML float64) model.SavingsState
	Snapshot() model.SavingsState
}

// PhaseFunc is told whenever the turn moves to a new phase.
type PhaseFunc func(model.TurnPhase)

// RouteOutcome carries the routing call result to the branch. Exactly one field is set.
type RouteOutcome struct {
	Reply *routing.Reply
	Err   error
}

// NewOptimizerPreHandler seeds the turn state from the submitted input.
func NewOptimizerPreHandler(phase PhaseFunc) func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		s.TurnID = in.TurnID
		s.Original = in.Text
		s.OriginalTokens = model.EstimateTokens(in.Text)
		s.WorkingPrompt = in.Text
		s.TokensSaved = 0
		s.Optimized = false
		phase(model.PhaseOptimizing)
		return in, nil
	}
}

func NewOptimizerNode(opt PromptOptimizer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (optimizer.Result, error) {
		return opt.Optimize(ctx, in.Text), nil
	})
}

// NewOptimizerPostHandler records the rewrite in the state and, when one
// happened, makes it visible in the log before routing starts.
func NewOptimizerPostHandler(rec Recorder) func(context.Context, optimizer.Result, *model.TurnState) (optimizer.Result, error) {
	return func(ctx context.Context, out optimizer.Result, s *model.TurnState) (optimizer.Result, error) {
		if out.Outcome != optimizer.Optimized {
			out.Prompt = s.Original
			out.TokensSaved = 0
			logx.Debug().
				Str("turn_id", s.TurnID).
				Str("skip_reason", string(out.SkipReason)).
				Msg("Forwarding original prompt")
			return out, nil
		}

		s.WorkingPrompt = out.Prompt
		s.TokensSaved = out.TokensSaved
		s.Optimized = true
		rec.Append(ctx, model.NewOptimizerRecord(s.TurnID, out.Prompt))

		logx.Debug().
			Str("turn_id", s.TurnID).
			Int("original_tokens", out.OriginalTokens).
			Int("optimized_tokens", out.OptimizedTokens).
			Int("tokens_saved", out.TokensSaved).
			Msg("Prompt optimized")
		return out, nil
	}
}

func NewRouterPreHandler(phase PhaseFunc) func(context.Context, optimizer.Result, *model.TurnState) (optimizer.Result, error) {
	return func(ctx context.Context, in optimizer.Result, s *model.TurnState) (optimizer.Result, error) {
		phase(model.PhaseRouting)
		return in, nil
	}
}

// NewRouterNode forwards the working prompt. A routing failure is data, not a
// graph error, so the branch can resolve it.
func NewRouterNode(router Router) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in optimizer.Result) (RouteOutcome, error) {
		var prompt string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			prompt = s.WorkingPrompt
			return nil
		}); err != nil {
			return RouteOutcome{}, fmt.Errorf("failed to access state: %w", err)
		}

		reply, err := router.Route(ctx, prompt)
		if err == nil && reply == nil {
			err = errors.New("empty routing reply")
		}
		if err != nil {
			return RouteOutcome{Err: err}, nil
		}
		return RouteOutcome{Reply: reply}, nil
	})
}

func NewResolveCondition() func(context.Context, RouteOutcome) (string, error) {
	return func(ctx context.Context, in RouteOutcome) (string, error) {
		if in.Err != nil {
			return NodeResolveFailure, nil
		}
		return NodeResolveSuccess, nil
	}
}

// NewResolveSuccessNode appends the assistant record and folds the turn's
// savings into the aggregate. The record lands first so the log never shows
// a total that includes a turn it has not displayed.
func NewResolveSuccessNode(rec Recorder, agg SavingsApplier, phase PhaseFunc) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in RouteOutcome) (*model.TurnOutcome, error) {
		s, err := turnState(ctx)
		if err != nil {
			return nil, err
		}
		phase(model.PhaseResolved)

		info := in.Reply.RoutingInfo()
		rec.Append(ctx, model.NewAssistantRecord(s.TurnID, in.Reply.Response, info))
		state := agg.Apply(s.TokensSaved, info.WaterSavedML)

		logx.Info().
			Str("turn_id", s.TurnID).
			Str("routed_to", info.Location).
			Int("tokens_saved", s.TokensSaved).
			Float64("water_saved_ml", info.WaterSavedML).
			Float64("total_water_ml", state.TotalWater).
			Msg("Turn resolved")

		return &model.TurnOutcome{
			TurnID:          s.TurnID,
			Status:          model.TurnSucceeded,
			Optimized:       s.Optimized,
			ForwardedPrompt: s.WorkingPrompt,
			TokensSaved:     s.TokensSaved,
			Answer:          in.Reply.Response,
			Routing:         &info,
			Savings:         state,
		}, nil
	})
}

// NewResolveFailureNode appends one system record. Savings are left untouched.
func NewResolveFailureNode(rec Recorder, agg SavingsApplier, phase PhaseFunc) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in RouteOutcome) (*model.TurnOutcome, error) {
		s, err := turnState(ctx)
		if err != nil {
			return nil, err
		}
		phase(model.PhaseResolved)

		rec.Append(ctx, model.NewSystemRecord(s.TurnID, FailureMessage(in.Err)))

		logx.Warn().
			Str("turn_id", s.TurnID).
			Err(in.Err).
			Msg("Turn failed at routing")

		return &model.TurnOutcome{
			TurnID:          s.TurnID,
			Status:          model.TurnFailed,
			Optimized:       s.Optimized,
			ForwardedPrompt: s.WorkingPrompt,
			TokensSaved:     s.TokensSaved,
			Savings:         agg.Snapshot(),
			Err:             in.Err,
		}, nil
	})
}

// FailureMessage is the system record text shown for a failed turn.
func FailureMessage(err error) string {
	var rf *routing.RoutingFailure
	switch {
	case errors.As(err, &rf) && rf.StatusCode != 0:
		return fmt.Sprintf("%s (HTTP %d)", RoutingErrorPrefix, rf.StatusCode)
	case err != nil:
		return fmt.Sprintf("%s (%v)", RoutingErrorPrefix, err)
	default:
		return RoutingErrorPrefix
	}
}

func turnState(ctx context.Context) (model.TurnState, error) {
	var snapshot model.TurnState
	err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
		snapshot = *s
		return nil
	})
	if err != nil {
		return model.TurnState{}, fmt.Errorf("failed to access state: %w", err)
	}
	return snapshot, nil
}

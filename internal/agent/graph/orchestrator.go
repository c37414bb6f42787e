package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/hydrochat-core/server/internal/agent/graph/nodes"
	"github.com/hydrochat-core/server/internal/agent/graph/observers"
	"github.com/hydrochat-core/server/internal/agent/model"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

var (
	// ErrBlankSubmission rejects empty or whitespace-only input.
	ErrBlankSubmission = errors.New("blank submission")
	// ErrTurnInFlight rejects input while the previous turn is unresolved.
	ErrTurnInFlight = errors.New("a turn is already in flight")
)

// Config wires the orchestrator's collaborators.
type Config struct {
	Optimizer nodes.PromptOptimizer
	Router    nodes.Router
	Log       nodes.Recorder
	Savings   nodes.SavingsApplier
	// Callbacks default to the logging observers when nil.
	Callbacks []einocb.Handler
}

// Orchestrator admits at most one turn at a time and drives it through the
// pipeline graph. Phase moves Idle -> Submitted -> Optimizing -> Routing ->
// Resolved -> Idle.
type Orchestrator struct {
	mu       sync.Mutex
	phase    model.TurnPhase
	runnable compose.Runnable[model.TurnInput, *model.TurnOutcome]
	log      nodes.Recorder
	savings  nodes.SavingsApplier
	handlers []einocb.Handler
}

func NewOrchestrator(ctx context.Context, cfg Config) (*Orchestrator, error) {
	o := &Orchestrator{
		log:      cfg.Log,
		savings:  cfg.Savings,
		handlers: cfg.Callbacks,
	}
	if o.handlers == nil {
		o.handlers = []einocb.Handler{observers.NewAllCallbacks()}
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Optimizer: cfg.Optimizer,
		Router:    cfg.Router,
		Log:       cfg.Log,
		Savings:   cfg.Savings,
		Phase:     o.setPhase,
	})
	if err != nil {
		return nil, err
	}
	o.runnable = runnable

	logx.Debug().Msg("Turn orchestrator ready")
	return o, nil
}

func (o *Orchestrator) Phase() model.TurnPhase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

func (o *Orchestrator) setPhase(p model.TurnPhase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
}

// admit claims the single turn slot.
func (o *Orchestrator) admit() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase.InFlight() {
		return false
	}
	o.phase = model.PhaseSubmitted
	return true
}

// Turn is an admitted submission. It holds the single slot until Run returns.
type Turn struct {
	o    *Orchestrator
	ctx  context.Context
	id   string
	text string

	once sync.Once
	out  *model.TurnOutcome
}

// Admit claims the slot for text and appends its user record. Rejected
// submissions return an error and leave the log, the savings and the phase
// untouched. The admitted turn ignores cancellation of ctx.
func (o *Orchestrator) Admit(ctx context.Context, text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrBlankSubmission
	}
	if !o.admit() {
		logx.Debug().Msg("Submission dropped; turn in flight")
		return nil, ErrTurnInFlight
	}

	t := &Turn{o: o, ctx: context.WithoutCancel(ctx), id: uuid.NewString(), text: text}
	o.log.Append(t.ctx, model.NewUserRecord(t.id, text))
	return t, nil
}

// ID is the turn id shared by the turn's records.
func (t *Turn) ID() string { return t.id }

// Run drives the turn to resolution and releases the slot. The turn appends
// exactly one assistant or system record last. Later calls return the same
// outcome.
func (t *Turn) Run() *model.TurnOutcome {
	t.once.Do(func() {
		defer t.o.setPhase(model.PhaseIdle)
		t.out = t.o.run(t.ctx, t.id, t.text)
	})
	return t.out
}

// Submit admits text and runs it to resolution.
func (o *Orchestrator) Submit(ctx context.Context, text string) (*model.TurnOutcome, error) {
	t, err := o.Admit(ctx, text)
	if err != nil {
		return nil, err
	}
	return t.Run(), nil
}

func (o *Orchestrator) run(ctx context.Context, turnID, text string) *model.TurnOutcome {
	out, err := o.invoke(ctx, model.TurnInput{TurnID: turnID, Text: text})
	if err == nil && out != nil {
		return out
	}
	if err == nil {
		err = errors.New("pipeline returned no outcome")
	}

	logx.Error().Err(err).Str("turn_id", turnID).Msg("Turn pipeline failed")
	// The resolve nodes are the last step, so reaching Resolved means the
	// closing record is already in the log.
	if o.Phase() != model.PhaseResolved {
		o.setPhase(model.PhaseResolved)
		o.log.Append(ctx, model.NewSystemRecord(turnID, nodes.FailureMessage(err)))
	}
	return &model.TurnOutcome{
		TurnID:  turnID,
		Status:  model.TurnFailed,
		Savings: o.savings.Snapshot(),
		Err:     err,
	}
}

func (o *Orchestrator) invoke(ctx context.Context, in model.TurnInput) (out *model.TurnOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn pipeline panic: %v", r)
		}
	}()
	return o.runnable.Invoke(ctx, in, compose.WithCallbacks(o.handlers...))
}

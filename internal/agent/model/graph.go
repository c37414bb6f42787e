package model

// TurnState stores per-turn state for the turn pipeline graph (the pending turn).
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState.
//   - Read and written only inside state handlers or compose.ProcessState,
//     which serialize access; never touch it from outside the graph.
//   - Created when a submission is accepted and dropped when the graph returns.
type TurnState struct {
	TurnID         string
	Original       string
	OriginalTokens int
	WorkingPrompt  string // equals Original until an optimized rewrite replaces it
	TokensSaved    int    // this turn only; never negative
	Optimized      bool
}

// TurnInput is what the orchestrator feeds into the pipeline after the user
// record has been appended.
type TurnInput struct {
	TurnID string `json:"turn_id"`
	Text   string `json:"text"`
}

// TurnPhase is the orchestrator state machine position.
type TurnPhase int

const (
	PhaseIdle TurnPhase = iota
	PhaseSubmitted
	PhaseOptimizing
	PhaseRouting
	PhaseResolved
)

func (p TurnPhase) String() string {
	switch p {
	case PhaseSubmitted:
		return "submitted"
	case PhaseOptimizing:
		return "optimizing"
	case PhaseRouting:
		return "routing"
	case PhaseResolved:
		return "resolved"
	default:
		return "idle"
	}
}

// InFlight reports whether a turn occupies the single slot.
func (p TurnPhase) InFlight() bool {
	return p != PhaseIdle
}

// TurnStatus is how a resolved turn ended.
type TurnStatus int

const (
	TurnSucceeded TurnStatus = iota
	TurnFailed
)

func (s TurnStatus) String() string {
	if s == TurnFailed {
		return "failure"
	}
	return "success"
}

// TurnOutcome is the pipeline output handed back to the submitter.
type TurnOutcome struct {
	TurnID          string
	Status          TurnStatus
	Optimized       bool
	ForwardedPrompt string
	TokensSaved     int
	Answer          string
	Routing         *RoutingInfo // success only
	Savings         SavingsState // aggregator state after the turn
	Err             error        // failure only
}

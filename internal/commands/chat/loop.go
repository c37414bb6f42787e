package chat

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/hydrochat-core/server/internal/agent/graph"
	"github.com/hydrochat-core/server/internal/agent/model"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// BusyMessage is shown when input arrives while a turn is in flight.
const BusyMessage = "Still routing the previous prompt; input dropped."

// Gate admits prompts one at a time. The returned func runs the admitted turn
// to resolution.
type Gate interface {
	Admit(ctx context.Context, text string) (func() *model.TurnOutcome, error)
}

type orchestratorGate struct {
	orch *graph.Orchestrator
}

// NewGate adapts an orchestrator for RunLoop.
func NewGate(orch *graph.Orchestrator) Gate {
	return orchestratorGate{orch: orch}
}

func (g orchestratorGate) Admit(ctx context.Context, text string) (func() *model.TurnOutcome, error) {
	turn, err := g.orch.Admit(ctx, text)
	if err != nil {
		return nil, err
	}
	return turn.Run, nil
}

type Display interface {
	Status(status string) error
	Savings(s model.SavingsState) error
}

var quitWords = map[string]bool{"/quit": true, "/exit": true}

// RunLoop reads one prompt per line. Admission is decided on the reading
// goroutine in line order; an admitted turn then runs on its own goroutine so
// the reader keeps going, and whatever arrives meanwhile is dropped. It
// returns at EOF, on a quit word or when ctx ends, after in-flight turns
// resolve.
func RunLoop(ctx context.Context, in io.Reader, gate Gate, d Display) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quitWords[strings.TrimSpace(line)] {
				return nil
			}
			run, err := gate.Admit(ctx, line)
			if !admitted(err, d) {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				out := run()
				d.Savings(out.Savings)
			}()
		}
	}
}

func admitted(err error, d Display) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, graph.ErrBlankSubmission):
	case errors.Is(err, graph.ErrTurnInFlight):
		d.Status(BusyMessage)
	default:
		logx.Error().Err(err).Msg("Submit failed")
	}
	return false
}

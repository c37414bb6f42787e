// Package savings accumulates the resource savings of completed turns.
package savings

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hydrochat-core/server/internal/agent/model"
)

// Aggregator owns the process-lifetime SavingsState. The turn orchestrator is
// its only writer; renderers read snapshots.
type Aggregator struct {
	mu      sync.RWMutex
	state   model.SavingsState
	turns   int
	metrics *metrics
}

type metrics struct {
	tokensSaved      prometheus.Gauge
	waterFromTokens  prometheus.Gauge
	waterFromCooling prometheus.Gauge
	totalWater       prometheus.Gauge
	turns            prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		tokensSaved: f.NewGauge(prometheus.GaugeOpts{
			Name: "hydrochat_tokens_saved",
			Help: "Estimated prompt tokens saved by local optimization",
		}),
		waterFromTokens: f.NewGauge(prometheus.GaugeOpts{
			Name: "hydrochat_water_from_tokens_ml",
			Help: "Water saved by sending fewer tokens, in millilitres",
		}),
		waterFromCooling: f.NewGauge(prometheus.GaugeOpts{
			Name: "hydrochat_water_from_cooling_ml",
			Help: "Water saved by routing to colder data centers, in millilitres",
		}),
		totalWater: f.NewGauge(prometheus.GaugeOpts{
			Name: "hydrochat_water_saved_total_ml",
			Help: "Total water saved, in millilitres",
		}),
		turns: f.NewCounter(prometheus.CounterOpts{
			Name: "hydrochat_savings_turns_total",
			Help: "Successfully completed turns applied to the savings counters",
		}),
	}
}

// New returns a zeroed aggregator. A nil registerer disables metrics.
func New(reg prometheus.Registerer) *Aggregator {
	a := &Aggregator{}
	if reg != nil {
		a.metrics = newMetrics(reg)
	}
	return a
}

// Apply records one successfully completed turn and returns the new state.
func (a *Aggregator) Apply(tokensSaved int, waterSavedML float64) model.SavingsState {
	a.mu.Lock()
	a.state = a.state.Add(tokensSaved, waterSavedML)
	a.turns++
	s := a.state
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.tokensSaved.Set(float64(s.TokensSaved))
		a.metrics.waterFromTokens.Set(s.WaterFromTokens)
		a.metrics.waterFromCooling.Set(s.WaterFromCooling)
		a.metrics.totalWater.Set(s.TotalWater)
		a.metrics.turns.Inc()
	}
	return s
}

func (a *Aggregator) Snapshot() model.SavingsState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Turns is the number of applied turns.
func (a *Aggregator) Turns() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.turns
}

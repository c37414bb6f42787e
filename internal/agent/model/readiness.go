package model

// ReadinessState is the lifecycle of the local optimizer engine.
type ReadinessState int

const (
	EngineLoading ReadinessState = iota
	EngineReady
	EngineFailed
)

func (s ReadinessState) String() string {
	switch s {
	case EngineReady:
		return "ready"
	case EngineFailed:
		return "failed"
	default:
		return "loading"
	}
}

// Readiness pairs the engine state with its human-readable status text.
type Readiness struct {
	State  ReadinessState
	Status string
}

func (r Readiness) Ready() bool {
	return r.State == EngineReady
}

// Terminal reports whether no further transition can happen.
func (r Readiness) Terminal() bool {
	return r.State == EngineReady || r.State == EngineFailed
}

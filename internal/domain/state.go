package domain

import "fmt"

// EngineState is the lifecycle position of the retrieval engine.
type EngineState int32

const (
	StateUninitialized EngineState = iota
	StateBuilding
	StateReady
	StateBuildFailed
	StateDegraded
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateBuilding:      "building",
	StateReady:         "ready",
	StateBuildFailed:   "build_failed",
	StateDegraded:      "degraded",
}

func (s EngineState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int32(s))
	}
	return stateNames[s]
}

// Settled reports whether the state can no longer change.
func (s EngineState) Settled() bool {
	return s == StateReady || s == StateDegraded
}

func (s EngineState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

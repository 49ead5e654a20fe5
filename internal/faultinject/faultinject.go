// Package faultinject reproduces common/failure_simulation.py: every
// stage can be configured to crash with a fixed probability right
// before it would commit a side effect, exercising the exactly-once-
// effect-under-at-least-once-delivery guarantees the rest of the
// pipeline depends on.
package faultinject

import (
	"fmt"
	"math/rand"
)

// SimulatedFailure is returned (not panicked on) so callers can log and
// propagate it the same way as any other processing error.
type SimulatedFailure struct {
	Description string
}

func (e *SimulatedFailure) Error() string {
	if e.Description == "" {
		return "simulated failure"
	}
	return fmt.Sprintf("simulated failure: %s", e.Description)
}

// FailWithProbability returns a *SimulatedFailure with the given
// probability in [0, 1], nil otherwise.
func FailWithProbability(probability float64, description string) error {
	if rand.Float64() < probability {
		return &SimulatedFailure{Description: description}
	}
	return nil
}

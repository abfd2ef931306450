// Package thermostat implements the device-local temperature state and
// the logic that reconciles writable-property updates and answers the
// getMaxMinReport command. It has no transport dependencies.
package thermostat

import "github.com/rs/zerolog/log"

// State holds the running temperature aggregates of the device.
//
// It is seeded once at process start and lives for the process
// lifetime; it is not persisted and resets on restart. All access must
// happen from the single worker goroutine that consumes inbound hub
// events, so no locking is needed.
type State struct {
	current float64
	maximum float64
	minimum float64
	sum     float64
	count   uint32
}

// Snapshot is a read-only copy of the state.
type Snapshot struct {
	Current float64
	Maximum float64
	Minimum float64
	Average float64
	Count   uint32
}

// NewState seeds all aggregates with the initial temperature, counted
// as the first sample.
func NewState(initial float64) *State {
	return &State{
		current: initial,
		maximum: initial,
		minimum: initial,
		sum:     initial,
		count:   1,
	}
}

// Snapshot returns a copy of all fields; no side effects.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Current: s.current,
		Maximum: s.maximum,
		Minimum: s.minimum,
		Average: s.sum / float64(s.count),
		Count:   s.count,
	}
}

// Reconcile applies one accepted writable-property value and reports
// whether a new running maximum was observed.
//
// Any finite value is accepted; stale property versions are not
// rejected (the caller echoes the version in the acknowledgment). A
// single value updates at most one of maximum or minimum, never both.
func (s *State) Reconcile(value float64) (maxChanged bool) {
	s.current = value

	if value > s.maximum {
		s.maximum = value
		maxChanged = true
	} else if value < s.minimum {
		s.minimum = value
	}

	s.count++
	s.sum += value

	log.Info().
		Float64("current", s.current).
		Float64("maximum", s.maximum).
		Float64("minimum", s.minimum).
		Float64("average", s.sum/float64(s.count)).
		Msg("Updated desired temperature locally")

	return maxChanged
}

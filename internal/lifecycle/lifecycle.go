// Package lifecycle models the activation state shared by soft-deletable
// entities. Records are never removed; they move between active and
// inactive.
package lifecycle

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

type State string

const (
	Active   State = "active"
	Inactive State = "inactive"
)

var validNext = map[State]map[State]bool{
	Active:   {Inactive: true},
	Inactive: {Active: true},
}

func CanTransition(from, to State) bool {
	return validNext[from][to]
}

// Transition validates a state change, returning an error for unknown
// states or no-op transitions.
func Transition(from, to State) (State, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

func FromActive(active bool) State {
	if active {
		return Active
	}
	return Inactive
}

// Package recapture computes the marginal likelihood of multi-state
// capture-recapture data: repeated, incomplete sightings of tagged
// individuals that move between two sites and may die. The hidden state
// of each subject (alive at site A, alive at site B, dead) evolves as a
// Markov chain; each occasion yields a sighting at one site or no
// sighting at all. The likelihood marginalizes the hidden trajectory with
// a forward recursion seeded at the subject's first detection.
//
// The package is a pure evaluator: an external sampler owns the
// parameters, calls TotalLogLik (or TotalLogLikParallel) once per
// proposed parameter value, and adds the returned scalar to its
// log-density.
package recapture

import (
	"errors"
	"fmt"
)

// State is a hidden subject state.
type State int

// Hidden states. StateDead is absorbing: it routes all transition mass to
// itself and deterministically emits NotSeen.
const (
	StateA State = iota
	StateB
	StateDead

	NumStates = 3
)

// Symbol is an observation at one capture occasion.
type Symbol int

// Observation alphabet. NotSeen is the reserved "not observed" symbol.
const (
	SeenA Symbol = iota
	SeenB
	NotSeen

	NumSymbols = 3
)

// seenSymbol maps a hidden state to the symbol a detection in that state
// produces. Dead subjects are never detected.
func seenSymbol(s State) Symbol {
	switch s {
	case StateA:
		return SeenA
	case StateB:
		return SeenB
	default:
		return NotSeen
	}
}

// History is one subject's observation sequence, one Symbol per capture
// occasion.
type History []Symbol

// Validate rejects symbols outside the observation alphabet.
func (h History) Validate() error {
	if len(h) == 0 {
		return errors.New("empty capture history")
	}
	for t, s := range h {
		if s < 0 || s >= NumSymbols {
			return fmt.Errorf("occasion %d: symbol %d outside alphabet", t, s)
		}
	}
	return nil
}

// FirstDetection returns the index of the first occasion at which the
// subject was seen, and whether any such occasion exists. A subject that
// was never seen carries no information and contributes nothing to the
// likelihood; callers must skip it rather than invent a detection index.
func (h History) FirstDetection() (int, bool) {
	for t, s := range h {
		if s != NotSeen {
			return t, true
		}
	}
	return 0, false
}

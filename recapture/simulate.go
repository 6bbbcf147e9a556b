package recapture

import (
	"fmt"
	"math/rand"

	"github.com/banshee-data/survival.report/simplex"
)

// Release marks one subject's entry into the study: the occasion it was
// first captured and the site (state) it was released in.
type Release struct {
	Occasion int
	State    State
}

// Simulate draws one capture history per release from the generative
// model: the subject is observed at its release occasion, then its hidden
// state evolves under the transition model and each later occasion emits
// a symbol under the emission model. Dead subjects emit NotSeen forever.
//
// The output feeds the report package and makes likelihood round-trips
// testable; it is not part of the evaluator contract.
func Simulate(p Params, releases []Release, nOccasions int, rng *rand.Rand) ([]History, error) {
	tb, err := BuildTables(p, nOccasions)
	if err != nil {
		return nil, err
	}

	histories := make([]History, len(releases))
	for i, rel := range releases {
		if rel.Occasion < 0 || rel.Occasion >= nOccasions {
			return nil, fmt.Errorf("release %d: occasion %d outside study of %d occasions", i, rel.Occasion, nOccasions)
		}
		if rel.State != StateA && rel.State != StateB {
			return nil, fmt.Errorf("release %d: subjects must be released alive, got state %d", i, rel.State)
		}

		h := make(History, nOccasions)
		for t := range h {
			h[t] = NotSeen
		}
		h[rel.Occasion] = seenSymbol(rel.State)

		state := rel.State
		for t := rel.Occasion + 1; t < nOccasions; t++ {
			state = State(drawFrom(tb.Trans[t-1].Row(int(state)), rng))
			h[t] = Symbol(drawFrom(tb.Emit[t-1].Row(int(state)), rng))
		}
		histories[i] = h
	}
	return histories, nil
}

// drawFrom samples an index from a probability vector.
func drawFrom(dist simplex.Vector, rng *rand.Rand) int {
	u := rng.Float64()
	var c float64
	for i, p := range dist {
		c += p
		if u < c {
			return i
		}
	}
	return dist.Len() - 1
}

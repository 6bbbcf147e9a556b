package recapture

import (
	"fmt"

	"github.com/banshee-data/survival.report/simplex"
)

// Params are the scalar rates of the time-homogeneous two-site survival
// model. All must lie in [0, 1].
type Params struct {
	PhiA float64 // survival probability at site A
	PhiB float64 // survival probability at site B

	PsiAB float64 // probability a survivor moves A -> B
	PsiBA float64 // probability a survivor moves B -> A

	PA float64 // detection probability at site A
	PB float64 // detection probability at site B
}

// Validate bounds-checks every rate.
func (p Params) Validate() error {
	for _, r := range []struct {
		name string
		v    float64
	}{
		{"phiA", p.PhiA}, {"phiB", p.PhiB},
		{"psiAB", p.PsiAB}, {"psiBA", p.PsiBA},
		{"pA", p.PA}, {"pB", p.PB},
	} {
		if r.v < 0 || r.v > 1 {
			return fmt.Errorf("%s = %g, want a probability in [0,1]", r.name, r.v)
		}
	}
	return nil
}

// Tables holds the per-occasion transition and emission models.
// Trans[t] governs the hidden-state transition from occasion t to t+1;
// Emit[t] governs the observation emitted at occasion t+1. Both have
// length nOccasions-1. Every row is a validated probability simplex.
type Tables struct {
	Trans []simplex.Matrix
	Emit  []simplex.Matrix
}

// Occasions returns the number of capture occasions the tables cover.
func (tb Tables) Occasions() int { return len(tb.Trans) + 1 }

// BuildTables assembles per-occasion transition and emission tables from
// the scalar rates, broadcasting the single time-homogeneous matrix
// across all occasions. The dead state absorbs all transition mass and
// emits NotSeen with probability 1.
func BuildTables(p Params, nOccasions int) (Tables, error) {
	if err := p.Validate(); err != nil {
		return Tables{}, err
	}
	if nOccasions < 2 {
		return Tables{}, fmt.Errorf("nOccasions = %d, want at least 2", nOccasions)
	}

	trans, err := simplex.NewMatrix([][]float64{
		{p.PhiA * (1 - p.PsiAB), p.PhiA * p.PsiAB, 1 - p.PhiA},
		{p.PhiB * p.PsiBA, p.PhiB * (1 - p.PsiBA), 1 - p.PhiB},
		{0, 0, 1},
	})
	if err != nil {
		return Tables{}, fmt.Errorf("transition model: %w", err)
	}
	emit, err := simplex.NewMatrix([][]float64{
		{p.PA, 0, 1 - p.PA},
		{0, p.PB, 1 - p.PB},
		{0, 0, 1},
	})
	if err != nil {
		return Tables{}, fmt.Errorf("emission model: %w", err)
	}

	tb := Tables{
		Trans: make([]simplex.Matrix, nOccasions-1),
		Emit:  make([]simplex.Matrix, nOccasions-1),
	}
	for t := range tb.Trans {
		tb.Trans[t] = trans
		tb.Emit[t] = emit
	}
	return tb, nil
}

package hmm

import (
	"math/rand"

	"github.com/banshee-data/survival.report/simplex"
	"gonum.org/v1/gonum/floats"
)

// backward runs the scaled backward sweep. beta[t][j] is proportional to
// the likelihood of the observations after step t given state j at t;
// each step is renormalized to sum 1, which is sufficient because the
// posterior quantities built from beta are themselves normalized.
func backward(obsLik [][]float64, trans simplex.Matrix, k, t int) [][]float64 {
	beta := make([][]float64, t)
	last := make([]float64, k)
	for j := range last {
		last[j] = 1
	}
	beta[t-1] = last

	for step := t - 2; step >= 0; step-- {
		next := beta[step+1]
		cur := make([]float64, k)
		for src := 0; src < k; src++ {
			var acc float64
			for dst := 0; dst < k; dst++ {
				acc += trans.At(src, dst) * obsLik[dst][step+1] * next[dst]
			}
			cur[src] = acc
		}
		if s := floats.Sum(cur); s > 0 {
			floats.Scale(1/s, cur)
		}
		beta[step] = cur
	}
	return beta
}

// StateProbs returns the posterior marginal distribution over hidden
// states at every time step, conditioned on the full observation
// sequence: out[t][k] = P(state at t = k | all observations). Each row
// sums to 1.
//
// Marginals are exact; contrast with SampleStates, which draws whole
// trajectories and therefore preserves dependence between steps.
func StateProbs(obsLik [][]float64, trans simplex.Matrix, init simplex.Vector) ([][]float64, error) {
	k, t, err := validate(obsLik, trans, init)
	if err != nil {
		return nil, err
	}
	alpha, _, err := forward(obsLik, trans, init, k, t)
	if err != nil {
		return nil, err
	}
	beta := backward(obsLik, trans, k, t)

	out := make([][]float64, t)
	for step := 0; step < t; step++ {
		row := make([]float64, k)
		for j := 0; j < k; j++ {
			row[j] = alpha[step][j] * beta[step][j]
		}
		if _, err := rescale(row, step); err != nil {
			return nil, err
		}
		out[step] = row
	}
	return out, nil
}

// SampleStates draws one hidden state trajectory from the posterior
// distribution conditioned on the full observation sequence, by forward
// filtering followed by backward sampling: the final state is drawn from
// the filtered distribution at T-1, then each earlier state from
// P(state at t | state at t+1, observations up to t), which is
// proportional to alpha[t][j] * trans(j -> next).
func SampleStates(obsLik [][]float64, trans simplex.Matrix, init simplex.Vector, rng *rand.Rand) ([]int, error) {
	k, t, err := validate(obsLik, trans, init)
	if err != nil {
		return nil, err
	}
	alpha, _, err := forward(obsLik, trans, init, k, t)
	if err != nil {
		return nil, err
	}

	states := make([]int, t)
	w := make([]float64, k)
	states[t-1] = sampleIndex(alpha[t-1], rng)
	for step := t - 2; step >= 0; step-- {
		next := states[step+1]
		for j := 0; j < k; j++ {
			w[j] = alpha[step][j] * trans.At(j, next)
		}
		states[step] = sampleIndex(w, rng)
	}
	return states, nil
}

// sampleIndex draws an index proportionally to the non-negative weights
// in w. The weights need not be normalized.
func sampleIndex(w []float64, rng *rand.Rand) int {
	u := rng.Float64() * floats.Sum(w)
	var c float64
	for i, v := range w {
		c += v
		if u < c {
			return i
		}
	}
	return len(w) - 1
}

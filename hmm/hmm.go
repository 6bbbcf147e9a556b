// Package hmm implements inference primitives for discrete-state hidden
// Markov models with a fixed, known transition structure: the marginal
// log-likelihood of an observation sequence (forward algorithm), per-step
// posterior state probabilities (forward-backward), and sampling of
// latent state trajectories conditioned on all observations (forward
// filtering, backward sampling).
//
// Observations enter through a K×T likelihood table rather than an
// explicit emission matrix, so the same primitives serve categorical,
// censored, or arbitrary per-step observation models. All three
// operations are O(K²T) in time and O(KT) in space.
package hmm

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/survival.report/simplex"
	"gonum.org/v1/gonum/floats"
)

// ErrUnderflow reports that an unscaled forward pass lost all probability
// mass to floating-point underflow. The scaled entry points do not return
// it; use them for long sequences or large state counts.
var ErrUnderflow = errors.New("forward probability underflowed to zero")

// validate checks the shared preconditions of the package entry points:
// a square K×K transition matrix, a length-K initial distribution, and a
// K×T table of non-negative observation likelihoods with T ≥ 1.
func validate(obsLik [][]float64, trans simplex.Matrix, init simplex.Vector) (k, t int, err error) {
	k, cols := trans.Dim()
	if k == 0 {
		return 0, 0, errors.New("transition matrix is empty")
	}
	if !trans.Square() {
		return 0, 0, fmt.Errorf("transition matrix is %dx%d, want square", k, cols)
	}
	if init.Len() != k {
		return 0, 0, fmt.Errorf("initial distribution has %d states, transition matrix has %d", init.Len(), k)
	}
	if len(obsLik) != k {
		return 0, 0, fmt.Errorf("observation likelihood table has %d rows, want %d states", len(obsLik), k)
	}
	t = len(obsLik[0])
	if t == 0 {
		return 0, 0, errors.New("observation likelihood table has no time steps")
	}
	for i, row := range obsLik {
		if len(row) != t {
			return 0, 0, fmt.Errorf("observation likelihood row %d has %d steps, want %d", i, len(row), t)
		}
		for j, v := range row {
			if v < 0 || math.IsNaN(v) {
				return 0, 0, fmt.Errorf("observation likelihood [%d][%d] = %g, want non-negative", i, j, v)
			}
		}
	}
	return k, t, nil
}

// forward runs the scaled forward sweep. alpha[t] holds the forward
// distribution at step t normalized to sum 1, so every entry stays in
// [0,1] regardless of sequence length; the discarded scale factors
// accumulate into the returned marginal log-likelihood.
func forward(obsLik [][]float64, trans simplex.Matrix, init simplex.Vector, k, t int) (alpha [][]float64, logLik float64, err error) {
	alpha = make([][]float64, t)
	prev := make([]float64, k)
	for j := 0; j < k; j++ {
		prev[j] = init[j] * obsLik[j][0]
	}
	logLik, err = rescale(prev, 0)
	if err != nil {
		return nil, 0, err
	}
	alpha[0] = prev

	for step := 1; step < t; step++ {
		cur := make([]float64, k)
		for dst := 0; dst < k; dst++ {
			var acc float64
			for src := 0; src < k; src++ {
				acc += prev[src] * trans.At(src, dst)
			}
			cur[dst] = acc * obsLik[dst][step]
		}
		ls, err := rescale(cur, step)
		if err != nil {
			return nil, 0, err
		}
		logLik += ls
		alpha[step] = cur
		prev = cur
	}
	return alpha, logLik, nil
}

// rescale normalizes x to sum 1 in place and returns the log of the
// removed scale. A zero sum means the observation at this step is
// impossible under every state, so the whole sequence has likelihood 0.
func rescale(x []float64, step int) (float64, error) {
	s := floats.Sum(x)
	if s == 0 {
		return 0, fmt.Errorf("step %d: observation impossible under all states", step)
	}
	floats.Scale(1/s, x)
	return math.Log(s), nil
}

// Marginal returns the log-likelihood of the observation sequence with
// the hidden state trajectory marginalized out, computed by the scaled
// forward algorithm.
//
// obsLik[k][t] is the likelihood of the observation at step t given
// hidden state k; trans is the K×K state transition matrix; init is the
// initial state distribution.
func Marginal(obsLik [][]float64, trans simplex.Matrix, init simplex.Vector) (float64, error) {
	k, t, err := validate(obsLik, trans, init)
	if err != nil {
		return 0, err
	}
	_, logLik, err := forward(obsLik, trans, init, k, t)
	if err != nil {
		return 0, err
	}
	return logLik, nil
}

// MarginalUnscaled is the textbook forward recursion with no per-step
// rescaling, kept as a reference mode so results can be checked against
// brute-force trajectory enumeration. It fails with ErrUnderflow once the
// forward mass reaches exact floating-point zero, rather than returning
// -Inf without a diagnostic; prefer Marginal for anything long.
func MarginalUnscaled(obsLik [][]float64, trans simplex.Matrix, init simplex.Vector) (float64, error) {
	k, t, err := validate(obsLik, trans, init)
	if err != nil {
		return 0, err
	}

	prev := make([]float64, k)
	for j := 0; j < k; j++ {
		prev[j] = init[j] * obsLik[j][0]
	}
	cur := make([]float64, k)
	for step := 1; step < t; step++ {
		for dst := 0; dst < k; dst++ {
			var acc float64
			for src := 0; src < k; src++ {
				acc += prev[src] * trans.At(src, dst)
			}
			cur[dst] = acc * obsLik[dst][step]
		}
		prev, cur = cur, prev
	}

	total := floats.Sum(prev)
	if total == 0 {
		return 0, fmt.Errorf("%w after %d steps over %d states", ErrUnderflow, t, k)
	}
	return math.Log(total), nil
}

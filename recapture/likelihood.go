package recapture

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// ErrDegenerate reports that a subject's forward probability collapsed to
// exact zero before the final occasion, either through floating-point
// underflow or an observation sequence the model assigns probability 0.
// It is surfaced as a diagnostic instead of returning -Inf silently.
var ErrDegenerate = errors.New("forward probability collapsed to zero")

// SubjectLogLik computes one subject's log-likelihood contribution with
// the textbook unscaled forward recursion, marginalizing over all hidden
// trajectories consistent with the history.
//
// The forward vector is seeded deterministically at the first detection:
// the sighting reveals the state, so entry k is the indicator that state
// k produces the observed symbol. Each later occasion folds the
// transition from the previous occasion and the emission of the observed
// symbol into every destination state. A never-detected subject returns
// exactly 0, contributing nothing.
//
// This mode is exact for the occasion counts typical of capture-recapture
// studies but can underflow for long histories; see SubjectLogLikScaled.
func SubjectLogLik(h History, tb Tables) (float64, error) {
	first, alpha, err := forwardSeed(h, tb)
	if err != nil || alpha == nil {
		return 0, err
	}

	next := make([]float64, NumStates)
	for t := first + 1; t < len(h); t++ {
		forwardStep(alpha, next, h, tb, t)
		alpha, next = next, alpha
	}

	total := floats.Sum(alpha)
	if total == 0 {
		return 0, fmt.Errorf("%w: history of %d occasions first detected at %d", ErrDegenerate, len(h), first)
	}
	return math.Log(total), nil
}

// SubjectLogLikScaled is the robust variant: the forward vector is
// renormalized to sum 1 at every occasion and the removed scale factors
// accumulate in log space, so the result cannot underflow regardless of
// history length.
func SubjectLogLikScaled(h History, tb Tables) (float64, error) {
	first, alpha, err := forwardSeed(h, tb)
	if err != nil || alpha == nil {
		return 0, err
	}

	var logLik float64
	next := make([]float64, NumStates)
	for t := first + 1; t < len(h); t++ {
		forwardStep(alpha, next, h, tb, t)
		s := floats.Sum(next)
		if s == 0 {
			return 0, fmt.Errorf("%w: at occasion %d", ErrDegenerate, t)
		}
		floats.Scale(1/s, next)
		logLik += math.Log(s)
		alpha, next = next, alpha
	}
	// alpha sums to 1 after the final rescale (or exactly, at the seed).
	return logLik + math.Log(floats.Sum(alpha)), nil
}

// forwardSeed validates the history against the tables and initializes
// the forward vector at the first detection. A nil vector with nil error
// means the subject was never detected.
func forwardSeed(h History, tb Tables) (first int, alpha []float64, err error) {
	if err := h.Validate(); err != nil {
		return 0, nil, err
	}
	if len(h) != tb.Occasions() {
		return 0, nil, fmt.Errorf("history has %d occasions, tables cover %d", len(h), tb.Occasions())
	}
	first, ok := h.FirstDetection()
	if !ok {
		return 0, nil, nil
	}
	alpha = make([]float64, NumStates)
	for k := State(0); k < NumStates; k++ {
		if seenSymbol(k) == h[first] {
			alpha[k] = 1
		}
	}
	return first, alpha, nil
}

// forwardStep computes the forward vector at occasion t from the vector
// at t-1: for each destination state, sum the mass arriving from every
// source state under the occasion t-1 transition model, then weight by
// the probability that the destination state emits the observed symbol.
func forwardStep(alpha, next []float64, h History, tb Tables, t int) {
	trans, emit := tb.Trans[t-1], tb.Emit[t-1]
	for k := 0; k < NumStates; k++ {
		var acc float64
		for j := 0; j < NumStates; j++ {
			acc += alpha[j] * trans.At(j, k)
		}
		next[k] = acc * emit.At(k, int(h[t]))
	}
}

// TotalLogLik sums the per-subject log-likelihood contributions over all
// histories, skipping never-detected subjects. All histories must span
// nOccasions capture occasions. Subjects are evaluated with the scaled
// recursion.
func TotalLogLik(histories []History, p Params, nOccasions int) (float64, error) {
	tb, err := BuildTables(p, nOccasions)
	if err != nil {
		return 0, err
	}
	var total float64
	for i, h := range histories {
		ll, err := SubjectLogLikScaled(h, tb)
		if err != nil {
			return 0, fmt.Errorf("subject %d: %w", i, err)
		}
		total += ll
	}
	return total, nil
}

// TotalLogLikParallel computes the same total with one goroutine per
// subject. Per-subject contributions are independent and their sum is
// commutative, so the reduction needs no ordering; results land in a
// per-subject slot and are summed after the wait.
func TotalLogLikParallel(histories []History, p Params, nOccasions int) (float64, error) {
	tb, err := BuildTables(p, nOccasions)
	if err != nil {
		return 0, err
	}

	lls := make([]float64, len(histories))
	errs := make([]error, len(histories))
	var wg sync.WaitGroup
	for i, h := range histories {
		wg.Add(1)
		go func(i int, h History) {
			defer wg.Done()
			lls[i], errs[i] = SubjectLogLikScaled(h, tb)
		}(i, h)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return 0, fmt.Errorf("subject %d: %w", i, err)
		}
	}
	return floats.Sum(lls), nil
}

// Package avoidance implements the likelihood of a repeated-binary-trial
// avoidance-learning experiment. Each trial either shocks the subject
// (y=1) or the subject avoids the shock (y=0); the shock probability at a
// trial is a logistic function of two running counts accumulated over the
// subject's previous trials. There is no latent state: the model is pure
// sequential feature accumulation feeding a Bernoulli likelihood.
package avoidance

import (
	"fmt"
	"math"
	"math/rand"
)

// Outcomes holds the running-count covariates at each trial. NAvoid[t]
// and NShock[t] count the subject's avoidances (y=0) and shocks (y=1)
// over trials strictly before t, so both are 0 at the first trial.
type Outcomes struct {
	NAvoid []int
	NShock []int
}

// Counts accumulates the running-count covariates for a trial sequence.
func Counts(y []int) (Outcomes, error) {
	if err := validate(y); err != nil {
		return Outcomes{}, err
	}
	out := Outcomes{
		NAvoid: make([]int, len(y)),
		NShock: make([]int, len(y)),
	}
	var avoid, shock int
	for t, v := range y {
		out.NAvoid[t] = avoid
		out.NShock[t] = shock
		if v == 0 {
			avoid++
		} else {
			shock++
		}
	}
	return out, nil
}

// TrialProbs returns the per-trial shock probability
// invLogit(betaAvoid*nAvoid + betaShock*nShock). With both counts 0 at
// the first trial, the first probability is always exactly 0.5.
func TrialProbs(y []int, betaAvoid, betaShock float64) ([]float64, error) {
	counts, err := Counts(y)
	if err != nil {
		return nil, err
	}
	probs := make([]float64, len(y))
	for t := range y {
		eta := betaAvoid*float64(counts.NAvoid[t]) + betaShock*float64(counts.NShock[t])
		probs[t] = invLogit(eta)
	}
	return probs, nil
}

// LogLik returns one subject's Bernoulli log-likelihood over all trials.
func LogLik(y []int, betaAvoid, betaShock float64) (float64, error) {
	probs, err := TrialProbs(y, betaAvoid, betaShock)
	if err != nil {
		return 0, err
	}
	var ll float64
	for t, v := range y {
		if v == 1 {
			ll += math.Log(probs[t])
		} else {
			ll += math.Log(1 - probs[t])
		}
	}
	return ll, nil
}

// TotalLogLik sums LogLik over subjects. Subjects may have different
// trial counts.
func TotalLogLik(subjects [][]int, betaAvoid, betaShock float64) (float64, error) {
	var total float64
	for i, y := range subjects {
		ll, err := LogLik(y, betaAvoid, betaShock)
		if err != nil {
			return 0, fmt.Errorf("subject %d: %w", i, err)
		}
		total += ll
	}
	return total, nil
}

// Simulate draws one subject's trial sequence from the generative model.
func Simulate(nTrials int, betaAvoid, betaShock float64, rng *rand.Rand) []int {
	y := make([]int, nTrials)
	var avoid, shock int
	for t := 0; t < nTrials; t++ {
		eta := betaAvoid*float64(avoid) + betaShock*float64(shock)
		if rng.Float64() < invLogit(eta) {
			y[t] = 1
			shock++
		} else {
			avoid++
		}
	}
	return y
}

func validate(y []int) error {
	if len(y) == 0 {
		return fmt.Errorf("no trials")
	}
	for t, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("trial %d: outcome %d, want 0 or 1", t, v)
		}
	}
	return nil
}

// invLogit is the standard logistic function 1/(1+e^-x). The negated
// exponent keeps it from overflowing for large positive x.
func invLogit(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

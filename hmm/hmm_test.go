package hmm

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/survival.report/simplex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testModel is a 3-state model with a known transition structure and a
// 4-step observation likelihood table, small enough for exhaustive
// trajectory enumeration.
func testModel(t *testing.T) ([][]float64, simplex.Matrix, simplex.Vector) {
	t.Helper()
	trans, err := simplex.NewMatrix([][]float64{
		{0.7, 0.2, 0.1},
		{0.3, 0.5, 0.2},
		{0.0, 0.0, 1.0},
	})
	require.NoError(t, err)
	init, err := simplex.NewVector([]float64{0.6, 0.3, 0.1})
	require.NoError(t, err)
	obsLik := [][]float64{
		{0.9, 0.8, 0.1, 0.4},
		{0.2, 0.5, 0.6, 0.3},
		{0.1, 0.1, 1.0, 1.0},
	}
	return obsLik, trans, init
}

// bruteForceMarginal sums the joint probability of every possible hidden
// trajectory: the oracle the forward algorithm must reproduce.
func bruteForceMarginal(obsLik [][]float64, trans simplex.Matrix, init simplex.Vector) float64 {
	k := init.Len()
	nSteps := len(obsLik[0])
	var total float64

	path := make([]int, nSteps)
	var walk func(step int, prob float64)
	walk = func(step int, prob float64) {
		if step == nSteps {
			total += prob
			return
		}
		for s := 0; s < k; s++ {
			p := prob
			if step == 0 {
				p *= init[s]
			} else {
				p *= trans.At(path[step-1], s)
			}
			p *= obsLik[s][step]
			path[step] = s
			walk(step+1, p)
		}
	}
	walk(0, 1)
	return math.Log(total)
}

func TestMarginal_MatchesBruteForce(t *testing.T) {
	obsLik, trans, init := testModel(t)
	want := bruteForceMarginal(obsLik, trans, init)

	got, err := Marginal(obsLik, trans, init)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-10, "scaled forward vs enumeration")

	gotRef, err := MarginalUnscaled(obsLik, trans, init)
	require.NoError(t, err)
	assert.InDelta(t, want, gotRef, 1e-10, "unscaled forward vs enumeration")
}

func TestMarginal_SingleStep(t *testing.T) {
	init, err := simplex.NewVector([]float64{0.25, 0.75})
	require.NoError(t, err)
	trans, err := simplex.NewMatrix([][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)
	obsLik := [][]float64{{0.4}, {0.8}}

	got, err := Marginal(obsLik, trans, init)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(0.25*0.4+0.75*0.8), got, 1e-12)
}

func TestMarginalUnscaled_Underflow(t *testing.T) {
	// 300 steps at likelihood 1e-3 per step drives the unscaled forward
	// mass below the smallest positive float64 (~1e-308).
	const nSteps = 300
	init, err := simplex.NewVector([]float64{1})
	require.NoError(t, err)
	trans, err := simplex.NewMatrix([][]float64{{1}})
	require.NoError(t, err)
	obsLik := [][]float64{make([]float64, nSteps)}
	for i := range obsLik[0] {
		obsLik[0][i] = 1e-3
	}

	_, err = MarginalUnscaled(obsLik, trans, init)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnderflow), "error = %v, want ErrUnderflow", err)

	// The scaled pass must handle the same input exactly.
	got, err := Marginal(obsLik, trans, init)
	require.NoError(t, err)
	assert.InDelta(t, float64(nSteps)*math.Log(1e-3), got, 1e-6)
}

func TestMarginal_ValidationErrors(t *testing.T) {
	obsLik, trans, init := testModel(t)

	t.Run("ragged likelihood table", func(t *testing.T) {
		bad := [][]float64{obsLik[0], obsLik[1][:2], obsLik[2]}
		_, err := Marginal(bad, trans, init)
		assert.Error(t, err)
	})
	t.Run("negative likelihood", func(t *testing.T) {
		bad := [][]float64{{0.5, -0.1}, {0.5, 0.5}, {0.5, 0.5}}
		_, err := Marginal(bad, trans, init)
		assert.Error(t, err)
	})
	t.Run("dimension mismatch", func(t *testing.T) {
		shortInit, err := simplex.NewVector([]float64{0.5, 0.5})
		require.NoError(t, err)
		_, err = Marginal(obsLik, trans, shortInit)
		assert.Error(t, err)
	})
	t.Run("impossible observation", func(t *testing.T) {
		bad := [][]float64{{0.9, 0}, {0.2, 0}, {0.1, 0}}
		_, err := Marginal(bad, trans, init)
		assert.Error(t, err)
	})
}

func TestStateProbs_RowsAreDistributions(t *testing.T) {
	obsLik, trans, init := testModel(t)
	probs, err := StateProbs(obsLik, trans, init)
	require.NoError(t, err)
	require.Len(t, probs, 4)
	for step, row := range probs {
		sum := 0.0
		for _, p := range row {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "step %d", step)
	}
}

// bruteForceStateProbs computes posterior marginals by enumerating every
// trajectory and accumulating each trajectory's probability into the
// states it visits.
func bruteForceStateProbs(obsLik [][]float64, trans simplex.Matrix, init simplex.Vector) [][]float64 {
	k := init.Len()
	nSteps := len(obsLik[0])
	out := make([][]float64, nSteps)
	for i := range out {
		out[i] = make([]float64, k)
	}
	var total float64

	path := make([]int, nSteps)
	var walk func(step int, prob float64)
	walk = func(step int, prob float64) {
		if step == nSteps {
			total += prob
			for i, s := range path {
				out[i][s] += prob
			}
			return
		}
		for s := 0; s < k; s++ {
			p := prob
			if step == 0 {
				p *= init[s]
			} else {
				p *= trans.At(path[step-1], s)
			}
			p *= obsLik[s][step]
			path[step] = s
			walk(step+1, p)
		}
	}
	walk(0, 1)
	for i := range out {
		for j := range out[i] {
			out[i][j] /= total
		}
	}
	return out
}

func TestStateProbs_MatchesBruteForce(t *testing.T) {
	obsLik, trans, init := testModel(t)
	want := bruteForceStateProbs(obsLik, trans, init)
	got, err := StateProbs(obsLik, trans, init)
	require.NoError(t, err)
	for step := range want {
		for s := range want[step] {
			assert.InDelta(t, want[step][s], got[step][s], 1e-10,
				"step %d state %d", step, s)
		}
	}
}

func TestSampleStates_FrequenciesMatchMarginals(t *testing.T) {
	obsLik, trans, init := testModel(t)
	want, err := StateProbs(obsLik, trans, init)
	require.NoError(t, err)

	const draws = 200000
	rng := rand.New(rand.NewSource(7))
	nSteps := len(obsLik[0])
	k := init.Len()
	counts := make([][]float64, nSteps)
	for i := range counts {
		counts[i] = make([]float64, k)
	}
	for i := 0; i < draws; i++ {
		states, err := SampleStates(obsLik, trans, init, rng)
		require.NoError(t, err)
		for step, s := range states {
			counts[step][s]++
		}
	}
	for step := 0; step < nSteps; step++ {
		for s := 0; s < k; s++ {
			assert.InDelta(t, want[step][s], counts[step][s]/draws, 0.005,
				"step %d state %d", step, s)
		}
	}
}

func TestSampleStates_RespectsAbsorbingState(t *testing.T) {
	obsLik, trans, init := testModel(t)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		states, err := SampleStates(obsLik, trans, init, rng)
		require.NoError(t, err)
		// State 2 is absorbing: once entered it must persist.
		for step := 1; step < len(states); step++ {
			if states[step-1] == 2 && states[step] != 2 {
				t.Fatalf("draw %d left absorbing state at step %d: %v", i, step, states)
			}
		}
	}
}

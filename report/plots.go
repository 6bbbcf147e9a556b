package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// statePalette gives each hidden state a stable line color across plots.
var statePalette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},  // site A
	color.RGBA{R: 44, G: 160, B: 44, A: 255},   // site B
	color.RGBA{R: 127, G: 127, B: 127, A: 255}, // dead
}

// PlotStateProbs renders one subject's posterior state probabilities over
// capture occasions as a line per hidden state, saved as a PNG named
// after the subject index. probs[t][k] is the posterior probability of
// state k at occasion t.
func (r *Run) PlotStateProbs(subject int, probs [][]float64, stateLabels []string) (string, error) {
	if len(probs) == 0 {
		return "", fmt.Errorf("no occasions to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Subject %d - Posterior State Probability", subject)
	p.X.Label.Text = "Occasion"
	p.Y.Label.Text = "Probability"
	p.Y.Min, p.Y.Max = 0, 1

	for k := 0; k < len(probs[0]); k++ {
		pts := make(plotter.XYs, len(probs))
		for t := range probs {
			pts[t] = plotter.XY{X: float64(t), Y: probs[t][k]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", err
		}
		line.Color = statePalette[k%len(statePalette)]
		line.Width = vg.Points(1)
		p.Add(line)
		label := fmt.Sprintf("state %d", k)
		if k < len(stateLabels) {
			label = stateLabels[k]
		}
		p.Legend.Add(label, line)
	}
	p.Legend.Top = true

	out := filepath.Join(r.Dir, fmt.Sprintf("subject_%03d_state_probs.png", subject))
	if err := p.Save(10*vg.Inch, 5*vg.Inch, out); err != nil {
		return "", fmt.Errorf("save state probability plot: %w", err)
	}
	return out, nil
}

// PlotLearningCurve renders the per-trial shock probability of the
// avoidance model as a single line, saved as a PNG.
func (r *Run) PlotLearningCurve(probs []float64) (string, error) {
	if len(probs) == 0 {
		return "", fmt.Errorf("no trials to plot")
	}

	p := plot.New()
	p.Title.Text = "Avoidance Learning Curve"
	p.X.Label.Text = "Trial"
	p.Y.Label.Text = "P(shock)"
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(probs))
	for t, v := range probs {
		pts[t] = plotter.XY{X: float64(t + 1), Y: v}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", err
	}
	line.Color = statePalette[0]
	line.Width = vg.Points(1)
	p.Add(line)

	out := filepath.Join(r.Dir, "learning_curve.png")
	if err := p.Save(10*vg.Inch, 5*vg.Inch, out); err != nil {
		return "", fmt.Errorf("save learning curve: %w", err)
	}
	return out, nil
}

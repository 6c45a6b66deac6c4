// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package forecast

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// lstmLookback is the sliding-window length: the net sees the last seven
// days to predict the next one.
const lstmLookback = 7

const (
	lstmTrainedConfidence  = 0.85
	lstmFallbackConfidence = 0.5
	lstmConfidenceDecay    = 0.02
)

// lstmSeed makes weight initialization and the fallback jitter reproducible.
const lstmSeed = 42

// LSTMConfig holds the trainable-network hyperparameters.
type LSTMConfig struct {
	HiddenSize   int
	Epochs       int
	LearningRate float64
}

// DefaultLSTMConfig returns the hyperparameters used when none are supplied.
func DefaultLSTMConfig() LSTMConfig {
	return LSTMConfig{HiddenSize: 16, Epochs: 120, LearningRate: 0.05}
}

// LSTM is a recurrent-network strategy for non-linear sequential patterns.
// It trains a single-hidden-layer recurrent net on min-max scaled history
// and forecasts by autoregressive rollout, feeding each prediction back as
// the next input. Untrained, it falls back to the history mean with seeded
// Gaussian jitter.
type LSTM struct {
	baseStrategy
	cfg LSTMConfig

	// Fitted parameters, guarded by baseStrategy.mu.
	net        *recurrentNet
	scaleMin   float64
	scaleRange float64
}

var _ Strategy = (*LSTM)(nil)

// NewLSTM creates an LSTM strategy with the given hyperparameters. Zero
// values fall back to the defaults.
func NewLSTM(cfg LSTMConfig) *LSTM {
	def := DefaultLSTMConfig()
	if cfg.HiddenSize <= 0 {
		cfg.HiddenSize = def.HiddenSize
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = def.Epochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	return &LSTM{
		baseStrategy: baseStrategy{name: StrategyLSTM},
		cfg:          cfg,
	}
}

// Fit trains the network on sliding windows of the scaled history. Fewer
// than lookback+5 observations leave the strategy untrained.
func (l *LSTM) Fit(ctx context.Context, history []float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(history) < lstmLookback+5 {
		l.trained = false
		return nil
	}

	scaled, minVal, rangeVal := minMaxScale(history)
	l.scaleMin, l.scaleRange = minVal, rangeVal

	inputs, targets := slidingWindows(scaled, lstmLookback)

	net := newRecurrentNet(l.cfg.HiddenSize, rand.New(rand.NewSource(lstmSeed)))
	for epoch := 0; epoch < l.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i, seq := range inputs {
			net.trainStep(seq, targets[i], l.cfg.LearningRate)
		}
	}

	l.net = net
	l.trained = true
	return nil
}

// Forecast rolls the network forward autoregressively, or serves the
// jittered-mean fallback when untrained.
func (l *LSTM) Forecast(ctx context.Context, history []float64, periods int) (*Result, error) {
	if periods <= 0 {
		return nil, fmt.Errorf("lstm: periods must be positive, got %d", periods)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.trained || l.net == nil {
		return l.fallback(history, periods), nil
	}

	// Pad short histories with the mean so the window is always full.
	recent := append([]float64(nil), history...)
	if len(recent) < lstmLookback {
		pad := defaultDailyMinutes * 1.0
		if len(recent) > 0 {
			pad = mean(recent)
		}
		padded := make([]float64, lstmLookback-len(recent))
		for i := range padded {
			padded[i] = pad
		}
		recent = append(padded, recent...)
	}

	window := make([]float64, lstmLookback)
	for i, v := range recent[len(recent)-lstmLookback:] {
		window[i] = l.scale(v)
	}

	predictions := make([]float64, periods)
	for i := 0; i < periods; i++ {
		next := l.net.forward(window)
		predictions[i] = math.Max(0, l.unscale(next))

		copy(window, window[1:])
		window[lstmLookback-1] = next
	}

	return formatResult("LSTM", predictions, nil, lstmTrainedConfidence, lstmConfidenceDecay), nil
}

// fallback predicts the history mean with seeded Gaussian jitter scaled to
// a third of the history's spread.
func (l *LSTM) fallback(history []float64, periods int) *Result {
	base := defaultDailyMinutes * 1.0
	jitterStd := 10.0
	if len(history) > 0 {
		base = mean(history)
	}
	if len(history) > 1 {
		jitterStd = stddev(history)
	}

	rng := rand.New(rand.NewSource(lstmSeed))
	predictions := make([]float64, periods)
	for i := range predictions {
		predictions[i] = math.Max(0, base+rng.NormFloat64()*jitterStd*0.3)
	}

	return formatResult("LSTM", predictions, nil, lstmFallbackConfidence, lstmConfidenceDecay)
}

func (l *LSTM) scale(v float64) float64 {
	return (v - l.scaleMin) / l.scaleRange
}

func (l *LSTM) unscale(v float64) float64 {
	return v*l.scaleRange + l.scaleMin
}

// minMaxScale maps values onto [0, 1], returning the scaled copy plus the
// offset and range needed to invert. A constant series gets range 1 so the
// transform stays well defined.
func minMaxScale(values []float64) ([]float64, float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rangeVal := maxVal - minVal
	if rangeVal == 0 {
		rangeVal = 1
	}

	scaled := make([]float64, len(values))
	for i, v := range values {
		scaled[i] = (v - minVal) / rangeVal
	}
	return scaled, minVal, rangeVal
}

// slidingWindows builds (window, next value) training pairs.
func slidingWindows(series []float64, window int) ([][]float64, []float64) {
	var inputs [][]float64
	var targets []float64
	for i := window; i < len(series); i++ {
		inputs = append(inputs, series[i-window:i])
		targets = append(targets, series[i])
	}
	return inputs, targets
}

// recurrentNet is a minimal Elman-style recurrent network with a scalar
// input per step, one tanh hidden layer, and a linear scalar output read
// from the final hidden state. Trained by backpropagation through time.
type recurrentNet struct {
	hidden int
	wxh    []float64   // input to hidden
	whh    [][]float64 // hidden to hidden
	bh     []float64   // hidden bias
	why    []float64   // hidden to output
	by     float64     // output bias
}

func newRecurrentNet(hidden int, rng *rand.Rand) *recurrentNet {
	n := &recurrentNet{
		hidden: hidden,
		wxh:    make([]float64, hidden),
		whh:    make([][]float64, hidden),
		bh:     make([]float64, hidden),
		why:    make([]float64, hidden),
	}
	scale := 1.0 / math.Sqrt(float64(hidden))
	for i := 0; i < hidden; i++ {
		n.wxh[i] = rng.NormFloat64() * scale
		n.why[i] = rng.NormFloat64() * scale
		n.whh[i] = make([]float64, hidden)
		for j := 0; j < hidden; j++ {
			n.whh[i][j] = rng.NormFloat64() * scale
		}
	}
	return n
}

// forward runs the sequence through the net and returns the scalar output.
func (n *recurrentNet) forward(seq []float64) float64 {
	h := make([]float64, n.hidden)
	for _, x := range seq {
		h = n.step(x, h)
	}
	out := n.by
	for i, v := range h {
		out += n.why[i] * v
	}
	return out
}

func (n *recurrentNet) step(x float64, hPrev []float64) []float64 {
	h := make([]float64, n.hidden)
	for i := 0; i < n.hidden; i++ {
		sum := n.wxh[i]*x + n.bh[i]
		for j := 0; j < n.hidden; j++ {
			sum += n.whh[i][j] * hPrev[j]
		}
		h[i] = math.Tanh(sum)
	}
	return h
}

// trainStep does one gradient-descent update on a single (sequence, target)
// pair, backpropagating the squared error through time.
func (n *recurrentNet) trainStep(seq []float64, target, lr float64) {
	steps := len(seq)

	// Forward pass, keeping every hidden state.
	states := make([][]float64, steps+1)
	states[0] = make([]float64, n.hidden)
	for t, x := range seq {
		states[t+1] = n.step(x, states[t])
	}

	out := n.by
	final := states[steps]
	for i, v := range final {
		out += n.why[i] * v
	}

	// d(0.5 * err^2)/d(out)
	dOut := out - target

	gWxh := make([]float64, n.hidden)
	gWhh := make([][]float64, n.hidden)
	for i := range gWhh {
		gWhh[i] = make([]float64, n.hidden)
	}
	gBh := make([]float64, n.hidden)
	gWhy := make([]float64, n.hidden)

	// Gradient flowing into the hidden state, starting at the output layer.
	dh := make([]float64, n.hidden)
	for i := 0; i < n.hidden; i++ {
		gWhy[i] = dOut * final[i]
		dh[i] = dOut * n.why[i]
	}

	for t := steps - 1; t >= 0; t-- {
		hNext := states[t+1]
		hPrev := states[t]
		dhPrev := make([]float64, n.hidden)
		for i := 0; i < n.hidden; i++ {
			// Through tanh.
			dz := dh[i] * (1 - hNext[i]*hNext[i])
			gWxh[i] += dz * seq[t]
			gBh[i] += dz
			for j := 0; j < n.hidden; j++ {
				gWhh[i][j] += dz * hPrev[j]
				dhPrev[j] += dz * n.whh[i][j]
			}
		}
		dh = dhPrev
	}

	clip := func(g float64) float64 {
		return math.Max(-1, math.Min(1, g))
	}

	n.by -= lr * clip(dOut)
	for i := 0; i < n.hidden; i++ {
		n.why[i] -= lr * clip(gWhy[i])
		n.wxh[i] -= lr * clip(gWxh[i])
		n.bh[i] -= lr * clip(gBh[i])
		for j := 0; j < n.hidden; j++ {
			n.whh[i][j] -= lr * clip(gWhh[i][j])
		}
	}
}

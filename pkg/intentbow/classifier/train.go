package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
)

// Dataset is the training input: one feature and one target row per sample.
type Dataset interface {
	Inputs() [][]float64
	Targets() [][]float64
}

// Trainer fits a classifier to a dataset. onEpoch, if non-nil, is called
// after every epoch.
type Trainer interface {
	Train(ctx context.Context, ds Dataset, cfg Config, onEpoch func(EpochStats)) (*Model, History, error)
}

// MLP trains a multilayer perceptron with categorical cross-entropy and
// mini-batch SGD (time-based decay, momentum, optional Nesterov).
type MLP struct{}

// NewMLP creates a new MLP trainer.
func NewMLP() *MLP {
	return &MLP{}
}

// Train implements Trainer. Samples are visited in a new random order
// every epoch; the order, weight init and dropout all derive from cfg.Seed.
func (t *MLP) Train(ctx context.Context, ds Dataset, cfg Config, onEpoch func(EpochStats)) (*Model, History, error) {
	if err := cfg.Validate(); err != nil {
		return nil, History{}, err
	}
	x, y, err := matrices(ds)
	if err != nil {
		return nil, History{}, err
	}

	n, inW := x.Dims()
	_, outW := y.Dims()
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 0x9e3779b97f4a7c15))

	model := newModel(inW, cfg.Hidden, cfg.Dropout, outW, rng)
	opt := newSGD(cfg, model)

	var hist History
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		var lossSum float64
		var correct int
		for start := 0; start < n; start += cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return nil, hist, err
			}
			end := min(start+cfg.BatchSize, n)
			bx, by := gather(x, order[start:end]), gather(y, order[start:end])

			p := model.forward(bx, rng)
			loss, hits := crossEntropy(p.output(), by)
			lossSum += loss * float64(end-start)
			correct += hits

			gw, gb := model.backward(p, by)
			opt.step(model, gw, gb)
		}

		stats := EpochStats{
			Epoch:    epoch,
			Loss:     lossSum / float64(n),
			Accuracy: float64(correct) / float64(n),
		}
		hist.Epochs = append(hist.Epochs, stats)
		if onEpoch != nil {
			onEpoch(stats)
		}
	}

	return model, hist, nil
}

func matrices(ds Dataset) (*mat.Dense, *mat.Dense, error) {
	inputs, targets := ds.Inputs(), ds.Targets()
	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("%w: empty dataset", internalerr.ErrInvalidInput)
	}
	if len(inputs) != len(targets) {
		return nil, nil, fmt.Errorf("%w: %d inputs but %d targets",
			internalerr.ErrInvalidInput, len(inputs), len(targets))
	}
	x, err := stack(inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("inputs: %w", err)
	}
	y, err := stack(targets)
	if err != nil {
		return nil, nil, fmt.Errorf("targets: %w", err)
	}
	return x, y, nil
}

func stack(rows [][]float64) (*mat.Dense, error) {
	width := len(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: zero-width rows", internalerr.ErrInvalidInput)
	}
	data := make([]float64, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d",
				internalerr.ErrInvalidInput, i, len(r), width)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), width, data), nil
}

func gather(m *mat.Dense, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, k := range idx {
		out.SetRow(i, m.RawRowView(k))
	}
	return out
}

// crossEntropy returns the mean categorical cross-entropy of the batch and
// the number of rows whose argmax matches the target.
func crossEntropy(p, y *mat.Dense) (float64, int) {
	r, _ := p.Dims()
	var loss float64
	var hits int
	for i := 0; i < r; i++ {
		prow, yrow := p.RawRowView(i), y.RawRowView(i)
		for j, t := range yrow {
			if t != 0 {
				loss -= t * math.Log(math.Min(math.Max(prow[j], epsilon), 1-epsilon))
			}
		}
		if argmax(prow) == argmax(yrow) {
			hits++
		}
	}
	return loss / float64(r), hits
}

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// backward returns the gradients of the mean batch loss with respect to
// every weight matrix and bias vector.
func (m *Model) backward(p *pass, y *mat.Dense) ([]*mat.Dense, [][]float64) {
	n, _ := y.Dims()
	layers := len(m.weights)
	gw := make([]*mat.Dense, layers)
	gb := make([][]float64, layers)

	// softmax + cross-entropy
	r, c := y.Dims()
	delta := mat.NewDense(r, c, nil)
	delta.Sub(p.output(), y)
	delta.Scale(1/float64(n), delta)

	for l := layers - 1; l >= 0; l-- {
		in, out := m.weights[l].Dims()
		gw[l] = mat.NewDense(in, out, nil)
		gw[l].Mul(p.acts[l].T(), delta)
		gb[l] = colSums(delta)

		if l == 0 {
			break
		}
		da := mat.NewDense(n, in, nil)
		da.Mul(delta, m.weights[l].T())
		if mask := p.masks[l-1]; mask != nil {
			da.MulElem(da, mask)
		}
		pre := p.pre[l-1]
		da.Apply(func(i, j int, v float64) float64 {
			if pre.At(i, j) > 0 {
				return v
			}
			return 0
		}, da)
		delta = da
	}
	return gw, gb
}

func colSums(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	for i := 0; i < r; i++ {
		for j, v := range m.RawRowView(i) {
			out[j] += v
		}
	}
	return out
}

// sgd is stochastic gradient descent with time-based learning rate decay
// lr/(1+decay*iterations) and (Nesterov) momentum.
type sgd struct {
	lr, decay, momentum float64
	nesterov            bool
	iterations          int
	vw                  []*mat.Dense
	vb                  [][]float64
}

func newSGD(cfg Config, m *Model) *sgd {
	o := &sgd{
		lr:       cfg.LearningRate,
		decay:    cfg.Decay,
		momentum: cfg.Momentum,
		nesterov: cfg.Nesterov,
	}
	for l, w := range m.weights {
		r, c := w.Dims()
		o.vw = append(o.vw, mat.NewDense(r, c, nil))
		o.vb = append(o.vb, make([]float64, len(m.biases[l])))
	}
	return o
}

func (o *sgd) step(m *Model, gw []*mat.Dense, gb [][]float64) {
	lr := o.lr / (1 + o.decay*float64(o.iterations))
	o.iterations++

	for l, w := range m.weights {
		wData := w.RawMatrix().Data
		vData := o.vw[l].RawMatrix().Data
		gData := gw[l].RawMatrix().Data
		o.update(wData, vData, gData, lr)
		o.update(m.biases[l], o.vb[l], gb[l], lr)
	}
}

func (o *sgd) update(param, vel, grad []float64, lr float64) {
	for i, g := range grad {
		vel[i] = o.momentum*vel[i] - lr*g
		if o.nesterov {
			param[i] += o.momentum*vel[i] - lr*g
		} else {
			param[i] += vel[i]
		}
	}
}

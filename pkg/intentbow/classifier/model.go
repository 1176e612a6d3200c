package classifier

import (
	"encoding/gob"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
)

// probability clip for the log in cross-entropy
const epsilon = 1e-7

// Model is a trained feed-forward network: ReLU hidden layers followed
// by a softmax output layer.
type Model struct {
	weights []*mat.Dense // in x out per layer
	biases  [][]float64
	dropout []float64 // per hidden layer, training only
}

func newModel(input int, hidden []int, dropout []float64, output int, rng *rand.Rand) *Model {
	sizes := append(append([]int{input}, hidden...), output)
	m := &Model{dropout: append([]float64(nil), dropout...)}
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		limit := math.Sqrt(6 / float64(in+out))
		data := make([]float64, in*out)
		for i := range data {
			data[i] = (rng.Float64()*2 - 1) * limit
		}
		m.weights = append(m.weights, mat.NewDense(in, out, data))
		m.biases = append(m.biases, make([]float64, out))
	}
	return m
}

// InputWidth is the expected feature vector length.
func (m *Model) InputWidth() int {
	r, _ := m.weights[0].Dims()
	return r
}

// OutputWidth is the number of classes.
func (m *Model) OutputWidth() int {
	_, c := m.weights[len(m.weights)-1].Dims()
	return c
}

// Predict returns the class probabilities for one feature vector.
// Dropout is not applied.
func (m *Model) Predict(features []float64) ([]float64, error) {
	if len(features) != m.InputWidth() {
		return nil, fmt.Errorf("%w: got %d features, model expects %d",
			internalerr.ErrInvalidInput, len(features), m.InputWidth())
	}
	x := mat.NewDense(1, len(features), append([]float64(nil), features...))
	p := m.forward(x, nil)
	return append([]float64(nil), p.output().RawRowView(0)...), nil
}

// pass keeps the intermediate values of one forward pass for backprop.
type pass struct {
	acts  []*mat.Dense // acts[l] is the input of layer l; the last is the softmax output
	pre   []*mat.Dense // pre-activation of each hidden layer
	masks []*mat.Dense // scaled dropout masks, nil when dropout is off
}

func (p *pass) output() *mat.Dense {
	return p.acts[len(p.acts)-1]
}

// forward runs x through the network. A non-nil rng enables dropout.
func (m *Model) forward(x *mat.Dense, rng *rand.Rand) *pass {
	p := &pass{acts: []*mat.Dense{x}}
	last := len(m.weights) - 1
	a := x

	for l, w := range m.weights {
		z := affine(a, w, m.biases[l])
		if l == last {
			softmaxRows(z)
			p.acts = append(p.acts, z)
			break
		}

		p.pre = append(p.pre, z)
		r, c := z.Dims()
		h := mat.NewDense(r, c, nil)
		h.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, z)

		var mask *mat.Dense
		if rng != nil && m.dropout[l] > 0 {
			mask = dropoutMask(r, c, m.dropout[l], rng)
			h.MulElem(h, mask)
		}
		p.masks = append(p.masks, mask)
		p.acts = append(p.acts, h)
		a = h
	}
	return p
}

func affine(a, w *mat.Dense, b []float64) *mat.Dense {
	r, _ := a.Dims()
	_, c := w.Dims()
	z := mat.NewDense(r, c, nil)
	z.Mul(a, w)
	for i := 0; i < r; i++ {
		row := z.RawRowView(i)
		for j := range row {
			row[j] += b[j]
		}
	}
	return z
}

func softmaxRows(z *mat.Dense) {
	r, _ := z.Dims()
	for i := 0; i < r; i++ {
		row := z.RawRowView(i)
		maxv := math.Inf(-1)
		for _, v := range row {
			maxv = math.Max(maxv, v)
		}
		sum := 0.0
		for j, v := range row {
			row[j] = math.Exp(v - maxv)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
	}
}

// dropoutMask keeps each unit with probability 1-p and scales kept
// units by 1/(1-p) so the expected activation is unchanged.
func dropoutMask(r, c int, p float64, rng *rand.Rand) *mat.Dense {
	keep := 1 / (1 - p)
	data := make([]float64, r*c)
	for i := range data {
		if rng.Float64() >= p {
			data[i] = keep
		}
	}
	return mat.NewDense(r, c, data)
}

type layerFile struct {
	In, Out int
	Weights []float64
	Bias    []float64
}

type modelFile struct {
	Layers  []layerFile
	Dropout []float64
}

// Save writes the model with encoding/gob.
func (m *Model) Save(path string) error {
	mf := modelFile{Dropout: m.dropout}
	for l, w := range m.weights {
		in, out := w.Dims()
		weights := make([]float64, 0, in*out)
		for i := 0; i < in; i++ {
			weights = append(weights, w.RawRowView(i)...)
		}
		mf.Layers = append(mf.Layers, layerFile{In: in, Out: out, Weights: weights, Bias: m.biases[l]})
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(mf); err != nil {
		f.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	return f.Close()
}

// LoadModel reads a model written by Save.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mf modelFile
	if err := gob.NewDecoder(f).Decode(&mf); err != nil {
		return nil, fmt.Errorf("%w: decode model %s: %v", internalerr.ErrInvalidInput, path, err)
	}
	if len(mf.Layers) == 0 || len(mf.Dropout) != len(mf.Layers)-1 {
		return nil, fmt.Errorf("%w: model %s has an inconsistent layout", internalerr.ErrInvalidInput, path)
	}

	m := &Model{dropout: mf.Dropout}
	prevOut := mf.Layers[0].In
	for i, lf := range mf.Layers {
		if lf.In <= 0 || lf.Out <= 0 || lf.In != prevOut ||
			len(lf.Weights) != lf.In*lf.Out || len(lf.Bias) != lf.Out {
			return nil, fmt.Errorf("%w: model %s layer %d is malformed", internalerr.ErrInvalidInput, path, i)
		}
		m.weights = append(m.weights, mat.NewDense(lf.In, lf.Out, lf.Weights))
		m.biases = append(m.biases, lf.Bias)
		prevOut = lf.Out
	}
	return m, nil
}

package vocab

import (
	"fmt"
	"math/rand/v2"

	"github.com/cognicore/intentbow/pkg/intentbow/ingest"
)

// Dataset is the vectorized training data.
type Dataset struct {
	Rows        []Row
	InputWidth  int
	OutputWidth int
}

// Assemble vectorizes every example and shuffles the rows once using rng.
func Assemble(examples []ingest.Example, vz *Vectorizer, rng *rand.Rand) (*Dataset, error) {
	rows := make([]Row, 0, len(examples))
	for i, ex := range examples {
		row, err := vz.Vectorize(ex)
		if err != nil {
			return nil, fmt.Errorf("vectorize example %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	rng.Shuffle(len(rows), func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
	})

	return &Dataset{
		Rows:        rows,
		InputWidth:  vz.vocab.Len(),
		OutputWidth: vz.labels.Len(),
	}, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Inputs returns the feature vectors in row order.
func (d *Dataset) Inputs() [][]float64 {
	out := make([][]float64, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Features
	}
	return out
}

// Targets returns the label vectors in row order.
func (d *Dataset) Targets() [][]float64 {
	out := make([][]float64, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Label
	}
	return out
}

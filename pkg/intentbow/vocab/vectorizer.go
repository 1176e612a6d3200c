package vocab

import (
	"fmt"

	"github.com/cognicore/intentbow/pkg/intentbow/ingest"
	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
)

// UnknownLabelError means an example's label is missing from the LabelSet.
// It indicates the label set was not built over the complete example set.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("label %q is not in the label set", e.Label)
}

// Row is one vectorized example.
type Row struct {
	Features []float64
	Label    []float64
}

// Vectorizer encodes examples and free text against a fixed vocabulary
// and label set.
type Vectorizer struct {
	vocab     Vocabulary
	labels    LabelSet
	norm      *ingest.Normalizer
	tokenizer *ingest.Tokenizer
}

// NewVectorizer returns ErrEmptyVocabulary when either set is empty.
func NewVectorizer(v Vocabulary, l LabelSet, n *ingest.Normalizer, t *ingest.Tokenizer) (*Vectorizer, error) {
	if v.Len() == 0 {
		return nil, fmt.Errorf("%w: vocabulary", internalerr.ErrEmptyVocabulary)
	}
	if l.Len() == 0 {
		return nil, fmt.Errorf("%w: label set", internalerr.ErrEmptyVocabulary)
	}
	return &Vectorizer{vocab: v, labels: l, norm: n, tokenizer: t}, nil
}

// Vocabulary returns the vocabulary features are keyed to.
func (vz *Vectorizer) Vocabulary() Vocabulary { return vz.vocab }

// Labels returns the label set outputs are keyed to.
func (vz *Vectorizer) Labels() LabelSet { return vz.labels }

// Vectorize turns one example into its bag-of-words and one-hot vectors.
func (vz *Vectorizer) Vectorize(ex ingest.Example) (Row, error) {
	label, err := vz.OneHot(ex.Label)
	if err != nil {
		return Row{}, err
	}
	features, err := vz.bag(ex.Tokens)
	if err != nil {
		return Row{}, err
	}
	return Row{Features: features, Label: label}, nil
}

// EncodeText tokenizes text and returns its bag-of-words vector.
func (vz *Vectorizer) EncodeText(text string) ([]float64, error) {
	return vz.bag(vz.tokenizer.Split(text))
}

// OneHot returns the one-hot vector for label.
func (vz *Vectorizer) OneHot(label string) ([]float64, error) {
	i, ok := vz.labels.Index(label)
	if !ok {
		return nil, &UnknownLabelError{Label: label}
	}
	out := make([]float64, vz.labels.Len())
	out[i] = 1
	return out, nil
}

func (vz *Vectorizer) bag(tokens []string) ([]float64, error) {
	forms, err := vz.norm.MatchForms(tokens)
	if err != nil {
		return nil, err
	}
	out := make([]float64, vz.vocab.Len())
	for _, f := range forms {
		if i, ok := vz.vocab.Index(f); ok {
			out[i] = 1
		}
	}
	return out, nil
}

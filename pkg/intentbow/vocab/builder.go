package vocab

import (
	"fmt"

	"github.com/cognicore/intentbow/pkg/intentbow/ingest"
)

// Build scans every example once and returns the vocabulary and label set.
// Forms come from the normalizer's build mode. Two runs over the same
// examples produce identical results.
func Build(examples []ingest.Example, n *ingest.Normalizer) (Vocabulary, LabelSet, error) {
	var forms []string
	var labels []string
	seen := make(map[string]bool)

	for i, ex := range examples {
		f, err := n.BuildForms(ex.Tokens)
		if err != nil {
			return Vocabulary{}, LabelSet{}, fmt.Errorf("example %d (%s): %w", i, ex.Label, err)
		}
		forms = append(forms, f...)

		if !seen[ex.Label] {
			seen[ex.Label] = true
			labels = append(labels, ex.Label)
		}
	}

	return NewVocabulary(forms), NewLabelSet(labels), nil
}

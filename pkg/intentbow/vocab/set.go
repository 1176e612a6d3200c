package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
)

// set is a sorted, deduplicated list of strings with an index lookup.
// It is immutable once built.
type set struct {
	words []string
	index map[string]int
}

func newSet(items []string) set {
	uniq := make(map[string]struct{}, len(items))
	for _, it := range items {
		uniq[it] = struct{}{}
	}
	words := make([]string, 0, len(uniq))
	for w := range uniq {
		words = append(words, w)
	}
	sort.Strings(words)
	return indexed(words)
}

func indexed(words []string) set {
	index := make(map[string]int, len(words))
	for i, w := range words {
		index[w] = i
	}
	return set{words: words, index: index}
}

// Len returns the number of entries.
func (s set) Len() int { return len(s.words) }

// Words returns a copy of the entries in order.
func (s set) Words() []string {
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}

// Index returns the position of w, or false when absent.
func (s set) Index(w string) (int, bool) {
	i, ok := s.index[w]
	return i, ok
}

// At returns the entry at position i.
func (s set) At(i int) string { return s.words[i] }

// Save writes the entries as a JSON array of strings.
func (s set) Save(path string) error {
	data, err := json.Marshal(s.words)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func loadSet(path string) (set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return set{}, err
	}
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return set{}, fmt.Errorf("%w: decode %s: %v", internalerr.ErrInvalidInput, path, err)
	}
	for i := 1; i < len(words); i++ {
		if words[i-1] >= words[i] {
			return set{}, fmt.Errorf("%w: %s is not sorted and deduplicated at entry %d (%q)",
				internalerr.ErrInvalidInput, path, i, words[i])
		}
	}
	if words == nil {
		words = []string{}
	}
	return indexed(words), nil
}

// Vocabulary is the sorted set of normalized word forms. Position i is
// feature i of every bag-of-words vector.
type Vocabulary struct{ set }

// LabelSet is the sorted set of intent tags. Position i is output i of
// the classifier.
type LabelSet struct{ set }

// NewVocabulary builds a vocabulary from arbitrary forms; duplicates are
// removed and the result is sorted.
func NewVocabulary(forms []string) Vocabulary {
	return Vocabulary{newSet(forms)}
}

// NewLabelSet builds a label set from arbitrary tags.
func NewLabelSet(labels []string) LabelSet {
	return LabelSet{newSet(labels)}
}

// LoadVocabulary reads a snapshot written by Vocabulary.Save.
func LoadVocabulary(path string) (Vocabulary, error) {
	s, err := loadSet(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("load vocabulary: %w", err)
	}
	return Vocabulary{s}, nil
}

// LoadLabelSet reads a snapshot written by LabelSet.Save.
func LoadLabelSet(path string) (LabelSet, error) {
	s, err := loadSet(path)
	if err != nil {
		return LabelSet{}, fmt.Errorf("load labels: %w", err)
	}
	return LabelSet{s}, nil
}

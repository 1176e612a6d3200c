package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon is a morphological lookup table mapping inflected word forms to
// their lemma (dictionary base form), e.g. "ging" -> "gehen".
//
// Lookup keeps the case of the lemma as written in the table, which matters
// for languages like German where nouns are capitalized:
//   - exact form first ("Häuser" -> "Haus")
//   - then the lowercased form ("HÄUSER" -> "Haus")
//
// Forms are stored once; a later group claiming a form wins.
type Lexicon struct {
	// lemma -> forms (lemma itself first)
	// Example: "gehen" -> ["gehen", "gehe", "geht", "ging"]
	groups map[string][]string

	// form as written -> entry
	exact map[string]Entry

	// lowercased form -> entry
	folded map[string]Entry
}

// Entry is the analysis stored for one word form.
type Entry struct {
	Lemma string
	POS   string // part-of-speech tag, optional (e.g. "VV", "NN")
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		groups: make(map[string][]string),
		exact:  make(map[string]Entry),
		folded: make(map[string]Entry),
	}
}

// LoadFromYAML loads lemma groups from a YAML file.
//
// Expected format:
//
//	lemmas:
//	  - lemma: gehen
//	    pos: VV
//	    forms: [gehe, gehst, geht, ging, gegangen]
//	  - lemma: Haus
//	    pos: NN
//	    forms: [Hauses, Häuser, Häusern]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Parse builds a lexicon from YAML bytes in the LoadFromYAML format.
func Parse(data []byte) (*Lexicon, error) {
	var config struct {
		Lemmas []struct {
			Lemma string   `yaml:"lemma"`
			POS   string   `yaml:"pos"`
			Forms []string `yaml:"forms"`
		} `yaml:"lemmas"`
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := New()
	for i, entry := range config.Lemmas {
		lemma := strings.TrimSpace(entry.Lemma)
		if lemma == "" {
			return nil, fmt.Errorf("lemma group %d has no lemma", i)
		}
		lex.AddGroup(lemma, entry.POS, entry.Forms)
	}
	return lex, nil
}

// AddGroup registers a lemma together with its inflected forms.
// The lemma is always a form of itself. If the lemma already exists, its old
// forms are released first.
func (l *Lexicon) AddGroup(lemma, pos string, forms []string) {
	if old, exists := l.groups[lemma]; exists {
		for _, f := range old {
			if e, ok := l.exact[f]; ok && e.Lemma == lemma {
				delete(l.exact, f)
			}
			key := strings.ToLower(f)
			if e, ok := l.folded[key]; ok && e.Lemma == lemma {
				delete(l.folded, key)
			}
		}
	}

	entry := Entry{Lemma: lemma, POS: pos}
	normalized := make([]string, 0, len(forms)+1)
	seen := make(map[string]bool)

	normalized = append(normalized, lemma)
	seen[lemma] = true
	for _, f := range forms {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		normalized = append(normalized, f)
		seen[f] = true
	}

	l.groups[lemma] = normalized
	for _, f := range normalized {
		l.exact[f] = entry
		l.folded[strings.ToLower(f)] = entry
	}
}

// Lookup returns the entry for a word form. The exact spelling is tried
// before the lowercased one.
func (l *Lexicon) Lookup(word string) (Entry, bool) {
	if e, ok := l.exact[word]; ok {
		return e, true
	}
	e, ok := l.folded[strings.ToLower(word)]
	return e, ok
}

// Lemma returns the lemma of a word, or the word itself when unknown.
//
// Examples:
//   - Lemma("ging") -> "gehen"
//   - Lemma("unbekannt") -> "unbekannt"
func (l *Lexicon) Lemma(word string) string {
	if e, ok := l.Lookup(word); ok {
		return e.Lemma
	}
	return word
}

// Forms returns every registered form of a lemma, the lemma first.
// Unknown lemmas return nil.
func (l *Lexicon) Forms(lemma string) []string {
	forms, ok := l.groups[lemma]
	if !ok {
		return nil
	}
	out := make([]string, len(forms))
	copy(out, forms)
	return out
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	total := 0
	for _, forms := range l.groups {
		total += len(forms)
	}
	return Stats{
		Lemmas: len(l.groups),
		Forms:  total,
	}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Lemmas int // Number of lemma groups
	Forms  int // Total number of forms across all groups
}

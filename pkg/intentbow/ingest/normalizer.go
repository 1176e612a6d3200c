package ingest

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cognicore/intentbow/pkg/intentbow/stoplist"
)

// Normalizer turns tokens into the word forms used as vocabulary entries.
//
// There are two modes, and they differ in case handling:
//   - BuildForms (vocabulary construction) drops ignored tokens and
//     lemmatizes each token as written.
//   - MatchForms (vectorization) lowercases each token before lemmatizing.
//
// A capitalized token can therefore enter the vocabulary in a form that
// MatchForms never produces. Trained models depend on this, so it is the
// default; WithCaseFoldingAtBuild lowercases in both modes.
type Normalizer struct {
	analyzer    Analyzer
	ignore      *stoplist.Manager
	lang        language.Tag
	foldAtBuild bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithIgnoreSet replaces the default ignore set.
func WithIgnoreSet(m *stoplist.Manager) Option {
	return func(n *Normalizer) {
		n.ignore = m
	}
}

// WithLanguage sets the language used for case mapping.
func WithLanguage(tag language.Tag) Option {
	return func(n *Normalizer) {
		n.lang = tag
	}
}

// WithCaseFoldingAtBuild lowercases tokens in BuildForms too.
// This changes which forms collide in the vocabulary.
func WithCaseFoldingAtBuild(fold bool) Option {
	return func(n *Normalizer) {
		n.foldAtBuild = fold
	}
}

// NewNormalizer creates a normalizer around the given analyzer.
// Defaults: stoplist.DefaultIgnore, German case mapping, no folding at build time.
func NewNormalizer(analyzer Analyzer, opts ...Option) *Normalizer {
	n := &Normalizer{
		analyzer: analyzer,
		ignore:   stoplist.Default(),
		lang:     language.German,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// BuildForms returns the lemmas of all non-ignored tokens, in order.
// The ignore set is checked against the raw token.
func (n *Normalizer) BuildForms(tokens []string) ([]string, error) {
	caser := cases.Lower(n.lang)
	forms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n.ignore.IsStop(tok) {
			continue
		}
		word := tok
		if n.foldAtBuild {
			word = caser.String(word)
		}
		lemma, err := analyze(n.analyzer, word)
		if err != nil {
			return nil, err
		}
		forms = append(forms, lemma)
	}
	return forms, nil
}

// MatchForms returns the lemmas of the lowercased tokens, in order.
// No ignore filtering happens here; ignored tokens never become vocabulary
// entries, so they cannot set a feature.
func (n *Normalizer) MatchForms(tokens []string) ([]string, error) {
	caser := cases.Lower(n.lang)
	forms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		lemma, err := analyze(n.analyzer, caser.String(tok))
		if err != nil {
			return nil, err
		}
		forms = append(forms, lemma)
	}
	return forms, nil
}

// Ignored reports whether tok is in the ignore set.
func (n *Normalizer) Ignored(tok string) bool {
	return n.ignore.IsStop(tok)
}

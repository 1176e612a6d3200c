package config

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/cognicore/intentbow/pkg/intentbow/ingest"
	"github.com/cognicore/intentbow/pkg/intentbow/lexicon"
	"github.com/cognicore/intentbow/pkg/intentbow/stoplist"
)

// Loader loads configuration files and constructs components
type Loader struct {
	LexiconPath     string
	Ignore          []string // nil means stoplist.DefaultIgnore
	Language        string
	FoldCaseAtBuild bool
}

// Components holds the text processing components of the pipeline
type Components struct {
	Tokenizer  *ingest.Tokenizer
	Normalizer *ingest.Normalizer
	Lexicon    *lexicon.Lexicon // nil when no lexicon is configured
}

// Load reads the lexicon, if any, and returns initialized components
func (l *Loader) Load() (*Components, error) {
	comp := &Components{Tokenizer: ingest.NewTokenizer()}

	if l.LexiconPath != "" {
		lex, err := lexicon.LoadFromYAML(l.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Lexicon = lex
	}

	tag := language.German
	if l.Language != "" {
		t, err := language.Parse(l.Language)
		if err != nil {
			return nil, fmt.Errorf("parse language %q: %w", l.Language, err)
		}
		tag = t
	}

	ignore := stoplist.Default()
	if l.Ignore != nil {
		ignore = stoplist.NewManager(l.Ignore)
	}

	comp.Normalizer = ingest.NewNormalizer(
		ingest.NewLexiconAnalyzer(comp.Lexicon),
		ingest.WithIgnoreSet(ignore),
		ingest.WithLanguage(tag),
		ingest.WithCaseFoldingAtBuild(l.FoldCaseAtBuild),
	)
	return comp, nil
}

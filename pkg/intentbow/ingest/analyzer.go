package ingest

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
	"github.com/cognicore/intentbow/pkg/intentbow/lexicon"
)

// Analysis is the result of morphological analysis of one word.
// Only Lemma takes part in vectorization.
type Analysis struct {
	Lemma string
	POS   string
}

// Analyzer is a morphological tagger.
type Analyzer interface {
	Analyze(word string) (Analysis, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(word string) (Analysis, error)

// Analyze implements Analyzer.
func (f AnalyzerFunc) Analyze(word string) (Analysis, error) {
	return f(word)
}

// AnalysisError reports a word the analyzer could not process.
type AnalysisError struct {
	Word string
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze %q: %v", e.Word, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

var (
	errEmptyWord  = fmt.Errorf("%w: empty word", internalerr.ErrInvalidInput)
	errBadUTF8    = fmt.Errorf("%w: invalid UTF-8", internalerr.ErrInvalidInput)
	errEmptyLemma = errors.New("analyzer returned an empty lemma")
)

// LexiconAnalyzer resolves lemmas from a lexicon lookup table. Words the
// lexicon does not know are their own lemma.
type LexiconAnalyzer struct {
	lex *lexicon.Lexicon
}

// NewLexiconAnalyzer creates an analyzer backed by lex. A nil lexicon makes
// every word its own lemma.
func NewLexiconAnalyzer(lex *lexicon.Lexicon) *LexiconAnalyzer {
	return &LexiconAnalyzer{lex: lex}
}

// Analyze implements Analyzer.
func (a *LexiconAnalyzer) Analyze(word string) (Analysis, error) {
	if word == "" {
		return Analysis{}, errEmptyWord
	}
	if !utf8.ValidString(word) {
		return Analysis{}, errBadUTF8
	}
	if a.lex != nil {
		if e, ok := a.lex.Lookup(word); ok {
			return Analysis{Lemma: e.Lemma, POS: e.POS}, nil
		}
	}
	return Analysis{Lemma: word}, nil
}

// analyze runs the analyzer and normalizes its failures into *AnalysisError.
func analyze(a Analyzer, word string) (string, error) {
	res, err := a.Analyze(word)
	if err != nil {
		var aerr *AnalysisError
		if errors.As(err, &aerr) {
			return "", err
		}
		return "", &AnalysisError{Word: word, Err: err}
	}
	if res.Lemma == "" {
		return "", &AnalysisError{Word: word, Err: errEmptyLemma}
	}
	return res.Lemma, nil
}

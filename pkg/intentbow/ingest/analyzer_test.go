package ingest

import (
	"errors"
	"testing"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
	"github.com/cognicore/intentbow/pkg/intentbow/lexicon"
)

func TestLexiconAnalyzer(t *testing.T) {
	lex := lexicon.New()
	lex.AddGroup("gehen", "VV", []string{"geht", "ging"})

	a := NewLexiconAnalyzer(lex)

	res, err := a.Analyze("ging")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Lemma != "gehen" || res.POS != "VV" {
		t.Errorf("Analyze('ging') = %+v, want gehen/VV", res)
	}

	res, err = a.Analyze("Zahlen")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Lemma != "Zahlen" {
		t.Errorf("unknown word should be its own lemma, got %q", res.Lemma)
	}
}

func TestLexiconAnalyzerNilLexicon(t *testing.T) {
	a := NewLexiconAnalyzer(nil)
	res, err := a.Analyze("Hallo")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Lemma != "Hallo" {
		t.Errorf("Lemma = %q, want Hallo", res.Lemma)
	}
}

func TestLexiconAnalyzerRejectsBadInput(t *testing.T) {
	a := NewLexiconAnalyzer(nil)

	for _, word := range []string{"", "\xff\xfe"} {
		if _, err := a.Analyze(word); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("Analyze(%q) error = %v, want ErrInvalidInput", word, err)
		}
	}
}

func TestAnalyzeWrapsErrors(t *testing.T) {
	boom := errors.New("tagger crashed")
	failing := AnalyzerFunc(func(string) (Analysis, error) {
		return Analysis{}, boom
	})

	_, err := analyze(failing, "Hallo")
	var aerr *AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *AnalysisError, got %T", err)
	}
	if aerr.Word != "Hallo" {
		t.Errorf("Word = %q, want Hallo", aerr.Word)
	}
	if !errors.Is(err, boom) {
		t.Error("AnalysisError should unwrap to the analyzer error")
	}
}

func TestAnalyzeKeepsExistingAnalysisError(t *testing.T) {
	inner := &AnalysisError{Word: "x", Err: errors.New("nope")}
	failing := AnalyzerFunc(func(string) (Analysis, error) {
		return Analysis{}, inner
	})

	_, err := analyze(failing, "y")
	if err != inner {
		t.Errorf("expected the analyzer's own AnalysisError, got %v", err)
	}
}

func TestAnalyzeEmptyLemma(t *testing.T) {
	blank := AnalyzerFunc(func(string) (Analysis, error) {
		return Analysis{}, nil
	})

	_, err := analyze(blank, "Hallo")
	var aerr *AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("empty lemma should be an AnalysisError, got %v", err)
	}
}

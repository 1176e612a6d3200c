package ingest

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/cognicore/intentbow/pkg/intentbow/lexicon"
	"github.com/cognicore/intentbow/pkg/intentbow/stoplist"
)

func identity() Analyzer {
	return NewLexiconAnalyzer(nil)
}

func TestBuildFormsFiltersRawTokens(t *testing.T) {
	n := NewNormalizer(identity())

	got, err := n.BuildForms([]string{"Hi", "!", "there", "?", ".", ","})
	if err != nil {
		t.Fatalf("BuildForms: %v", err)
	}
	want := []string{"Hi", "there"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildForms = %q, want %q", got, want)
	}
}

func TestBuildFormsOnlyPunctuation(t *testing.T) {
	n := NewNormalizer(identity())

	got, err := n.BuildForms([]string{"?", "!", "."})
	if err != nil {
		t.Fatalf("BuildForms: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("punctuation-only input should produce no forms, got %q", got)
	}
}

func TestCaseAsymmetry(t *testing.T) {
	n := NewNormalizer(identity())

	build, err := n.BuildForms([]string{"Hallo"})
	if err != nil {
		t.Fatalf("BuildForms: %v", err)
	}
	match, err := n.MatchForms([]string{"Hallo"})
	if err != nil {
		t.Fatalf("MatchForms: %v", err)
	}

	if build[0] != "Hallo" {
		t.Errorf("build form = %q, want raw case", build[0])
	}
	if match[0] != "hallo" {
		t.Errorf("match form = %q, want lowercased", match[0])
	}
}

func TestCaseFoldingAtBuild(t *testing.T) {
	n := NewNormalizer(identity(), WithCaseFoldingAtBuild(true))

	got, err := n.BuildForms([]string{"Hallo", "WELT"})
	if err != nil {
		t.Fatalf("BuildForms: %v", err)
	}
	want := []string{"hallo", "welt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildForms = %q, want %q", got, want)
	}
}

func TestMatchFormsDoesNotFilter(t *testing.T) {
	n := NewNormalizer(identity())

	got, err := n.MatchForms([]string{"Hi", "!"})
	if err != nil {
		t.Fatalf("MatchForms: %v", err)
	}
	want := []string{"hi", "!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MatchForms = %q, want %q", got, want)
	}
}

func TestNormalizerLemmatizes(t *testing.T) {
	lex := lexicon.New()
	lex.AddGroup("gehen", "VV", []string{"geht", "ging"})
	n := NewNormalizer(NewLexiconAnalyzer(lex))

	got, err := n.MatchForms([]string{"Wie", "Geht"})
	if err != nil {
		t.Fatalf("MatchForms: %v", err)
	}
	want := []string{"wie", "gehen"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MatchForms = %q, want %q", got, want)
	}
}

func TestNormalizerCustomIgnoreSet(t *testing.T) {
	n := NewNormalizer(identity(), WithIgnoreSet(stoplist.NewManager([]string{"-"})))

	got, err := n.BuildForms([]string{"a", "-", "!"})
	if err != nil {
		t.Fatalf("BuildForms: %v", err)
	}
	want := []string{"a", "!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildForms = %q, want %q", got, want)
	}
	if !n.Ignored("-") || n.Ignored("!") {
		t.Error("Ignored should reflect the custom set")
	}
}

func TestNormalizerLanguageCaseMapping(t *testing.T) {
	n := NewNormalizer(identity(), WithLanguage(language.Turkish))

	got, err := n.MatchForms([]string{"İSTANBUL"})
	if err != nil {
		t.Fatalf("MatchForms: %v", err)
	}
	if got[0] != "istanbul" {
		t.Errorf("Turkish lowercasing = %q, want istanbul", got[0])
	}
}

func TestNormalizerPropagatesAnalysisError(t *testing.T) {
	failing := AnalyzerFunc(func(word string) (Analysis, error) {
		if strings.HasPrefix(word, "x") {
			return Analysis{}, errors.New("unknown script")
		}
		return Analysis{Lemma: word}, nil
	})
	n := NewNormalizer(failing)

	if _, err := n.BuildForms([]string{"ok", "xyz"}); err == nil {
		t.Error("BuildForms should propagate analyzer failures")
	}

	_, err := n.MatchForms([]string{"ok", "XYZ"})
	var aerr *AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *AnalysisError, got %v", err)
	}
	if aerr.Word != "xyz" {
		t.Errorf("Word = %q, want the lowercased token", aerr.Word)
	}
}

package config

import (
	"reflect"
	"testing"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}
	if comp.Tokenizer == nil || comp.Normalizer == nil {
		t.Fatal("Should have tokenizer and normalizer")
	}
	if comp.Lexicon != nil {
		t.Error("Lexicon should be nil without a path")
	}
	if !comp.Normalizer.Ignored("?") {
		t.Error("default ignore set should apply")
	}
}

func TestLoaderNonExistentLexicon(t *testing.T) {
	loader := Loader{LexiconPath: "/nonexistent/lemmas.yaml"}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent lexicon")
	}
}

func TestLoaderBadLanguage(t *testing.T) {
	loader := Loader{Language: "!!"}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error on an unparseable language")
	}
}

func TestLoaderWithLexicon(t *testing.T) {
	path := writeFile(t, "lemmas.yaml", `lemmas:
  - lemma: gehen
    pos: VV
    forms: [geht, ging]
`)
	cfg := Default()
	cfg.Lexicon = path
	cfg.Ignore = []string{"-"}

	comp, err := cfg.Loader().Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if comp.Lexicon == nil || comp.Lexicon.Stats().Lemmas != 1 {
		t.Fatal("lexicon should be loaded")
	}

	forms, err := comp.Normalizer.MatchForms(comp.Tokenizer.Split("Wie GEHT es?"))
	if err != nil {
		t.Fatalf("MatchForms: %v", err)
	}
	want := []string{"wie", "gehen", "es", "?"}
	if !reflect.DeepEqual(forms, want) {
		t.Errorf("MatchForms = %q, want %q", forms, want)
	}

	if comp.Normalizer.Ignored("?") || !comp.Normalizer.Ignored("-") {
		t.Error("custom ignore set should replace the default")
	}
}

func TestLoaderFoldCase(t *testing.T) {
	comp, err := (&Loader{FoldCaseAtBuild: true}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	forms, err := comp.Normalizer.BuildForms([]string{"Hallo"})
	if err != nil {
		t.Fatalf("BuildForms: %v", err)
	}
	if forms[0] != "hallo" {
		t.Errorf("BuildForms = %q, want folded", forms)
	}
}

package ingest

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/words"

	"github.com/cognicore/intentbow/pkg/intentbow/intents"
)

// Tokenizer splits text on Unicode word boundaries (UAX #29).
// Punctuation adjacent to a word becomes its own token, so "Hi!" yields
// ["Hi", "!"]; whitespace is dropped.
type Tokenizer struct{}

// NewTokenizer creates a new tokenizer
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Split returns the tokens of text in order. Case is preserved.
func (t *Tokenizer) Split(text string) []string {
	var tokens []string

	segments := words.FromString(text)
	for segments.Next() {
		tok := segments.Value()
		if strings.TrimSpace(tok) == "" {
			continue
		}
		tokens = append(tokens, tok)
	}

	return tokens
}

// Example is one tokenized pattern tagged with the intent it belongs to.
type Example struct {
	Tokens []string
	Label  string
}

// Examples tokenizes every pattern of every intent, in file order.
// Intents without patterns produce no examples.
func (t *Tokenizer) Examples(f *intents.File) []Example {
	examples := make([]Example, 0, f.PatternCount())
	for _, in := range f.Intents {
		for _, pattern := range in.Patterns {
			examples = append(examples, Example{
				Tokens: t.Split(pattern),
				Label:  in.Tag,
			})
		}
	}
	return examples
}

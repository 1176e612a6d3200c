package intents

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
)

// Intent is one hand-authored intent: a tag plus the example sentences
// that express it.
type Intent struct {
	Tag       string   `json:"tag"`
	Patterns  []string `json:"patterns"`
	Responses []string `json:"responses,omitempty"`
}

// File is the top-level layout of an intents definition:
//
//	{"intents": [{"tag": "greet", "patterns": ["Hi"], "responses": ["Hello!"]}]}
type File struct {
	Intents []Intent `json:"intents"`
}

// Load reads and validates an intents file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intents %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("intents %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates intents JSON.
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", internalerr.ErrInvalidInput, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks that every intent has a tag and that at least one
// pattern exists overall. An intent without patterns is allowed; it
// simply contributes no examples.
func (f *File) Validate() error {
	if len(f.Intents) == 0 {
		return fmt.Errorf("%w: no intents defined", internalerr.ErrInvalidInput)
	}
	for i, in := range f.Intents {
		if strings.TrimSpace(in.Tag) == "" {
			return fmt.Errorf("%w: intent %d has no tag", internalerr.ErrInvalidInput, i)
		}
	}
	if f.PatternCount() == 0 {
		return fmt.Errorf("%w: no patterns defined", internalerr.ErrInvalidInput)
	}
	return nil
}

// PatternCount returns the total number of patterns across all intents.
func (f *File) PatternCount() int {
	n := 0
	for _, in := range f.Intents {
		n += len(in.Patterns)
	}
	return n
}

// Tags returns intent tags in file order. Duplicates are kept.
func (f *File) Tags() []string {
	tags := make([]string, len(f.Intents))
	for i, in := range f.Intents {
		tags[i] = in.Tag
	}
	return tags
}

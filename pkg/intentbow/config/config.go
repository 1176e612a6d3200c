package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/intentbow/pkg/intentbow/classifier"
	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
	"github.com/cognicore/intentbow/pkg/intentbow/stoplist"
)

// Training is the configuration of one training run.
//
// Example:
//
//	intents: intents.json
//	output_dir: model
//	language: de
//	lexicon: lemmas.yaml
//	model:
//	  hidden: [128, 64]
//	  dropout: [0.5, 0.5]
//	  epochs: 200
type Training struct {
	Intents         string            `yaml:"intents"`
	OutputDir       string            `yaml:"output_dir"`
	Artifacts       Artifacts         `yaml:"artifacts"`
	Ignore          []string          `yaml:"ignore"`
	Language        string            `yaml:"language"`
	Lexicon         string            `yaml:"lexicon"`
	FoldCaseAtBuild bool              `yaml:"fold_case_at_build"`
	Seed            int64             `yaml:"seed"` // dataset shuffle; 0 picks one at startup
	Database        string            `yaml:"database"`
	Model           classifier.Config `yaml:"model"`
}

// Artifacts are the file names written to OutputDir.
type Artifacts struct {
	Words   string `yaml:"words"`
	Classes string `yaml:"classes"`
	Model   string `yaml:"model"`
	History string `yaml:"history"`
}

// Default returns the configuration the chatbot model has always been
// trained with.
func Default() *Training {
	return &Training{
		Intents:   "intents.json",
		OutputDir: ".",
		Artifacts: Artifacts{
			Words:   "words.json",
			Classes: "classes.json",
			Model:   "chatbot_model.gob",
			History: "history.json",
		},
		Ignore:   append([]string(nil), stoplist.DefaultIgnore...),
		Language: "de",
		Model: classifier.Config{
			Hidden:       []int{128, 64},
			Dropout:      []float64{0.5, 0.5},
			LearningRate: 0.01,
			Decay:        1e-6,
			Momentum:     0.9,
			Nesterov:     true,
			Epochs:       200,
			BatchSize:    5,
		},
	}
}

// LoadTraining reads a YAML file over the defaults and validates the result.
func LoadTraining(path string) (*Training, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks required fields and the model hyperparameters.
func (c *Training) Validate() error {
	if strings.TrimSpace(c.Intents) == "" {
		return fmt.Errorf("%w: intents path is required", internalerr.ErrInvalidConfig)
	}
	a := c.Artifacts
	for name, v := range map[string]string{"words": a.Words, "classes": a.Classes, "model": a.Model, "history": a.History} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: artifact name %q is empty", internalerr.ErrInvalidConfig, name)
		}
	}
	if _, err := c.LanguageTag(); err != nil {
		return err
	}
	return c.Model.Validate()
}

// LanguageTag parses Language. An empty value means German.
func (c *Training) LanguageTag() (language.Tag, error) {
	if c.Language == "" {
		return language.German, nil
	}
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.Und, fmt.Errorf("%w: language %q: %v", internalerr.ErrInvalidConfig, c.Language, err)
	}
	return tag, nil
}

// Path joins an artifact name onto OutputDir.
func (c *Training) Path(name string) string {
	return filepath.Join(c.OutputDir, name)
}

// Loader returns a component loader for this configuration.
func (c *Training) Loader() *Loader {
	return &Loader{
		LexiconPath:     c.Lexicon,
		Ignore:          c.Ignore,
		Language:        c.Language,
		FoldCaseAtBuild: c.FoldCaseAtBuild,
	}
}

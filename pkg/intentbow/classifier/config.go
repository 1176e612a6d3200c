package classifier

import (
	"fmt"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
)

// Config holds the hyperparameters of a training run. All values are
// caller-supplied; the trainer has no built-in defaults.
type Config struct {
	Hidden       []int     `yaml:"hidden"`
	Dropout      []float64 `yaml:"dropout"`
	LearningRate float64   `yaml:"learning_rate"`
	Decay        float64   `yaml:"decay"`
	Momentum     float64   `yaml:"momentum"`
	Nesterov     bool      `yaml:"nesterov"`
	Epochs       int       `yaml:"epochs"`
	BatchSize    int       `yaml:"batch_size"`
	Seed         int64     `yaml:"seed"`
}

// Validate checks the configuration for structural errors.
func (c Config) Validate() error {
	if len(c.Hidden) != len(c.Dropout) {
		return fmt.Errorf("%w: %d hidden layers but %d dropout rates",
			internalerr.ErrInvalidConfig, len(c.Hidden), len(c.Dropout))
	}
	for i, h := range c.Hidden {
		if h <= 0 {
			return fmt.Errorf("%w: hidden layer %d has width %d", internalerr.ErrInvalidConfig, i, h)
		}
	}
	for i, p := range c.Dropout {
		if p < 0 || p >= 1 {
			return fmt.Errorf("%w: dropout %d is %v, must be in [0,1)", internalerr.ErrInvalidConfig, i, p)
		}
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate must be positive", internalerr.ErrInvalidConfig)
	}
	if c.Decay < 0 {
		return fmt.Errorf("%w: decay must not be negative", internalerr.ErrInvalidConfig)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("%w: momentum must be in [0,1)", internalerr.ErrInvalidConfig)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be positive", internalerr.ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive", internalerr.ErrInvalidConfig)
	}
	return nil
}

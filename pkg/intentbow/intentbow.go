// Package intentbow turns a hand-written intents file into a bag-of-words
// training set and trains an intent classifier on it.
package intentbow

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cognicore/intentbow/pkg/intentbow/classifier"
	"github.com/cognicore/intentbow/pkg/intentbow/config"
	"github.com/cognicore/intentbow/pkg/intentbow/ingest"
	"github.com/cognicore/intentbow/pkg/intentbow/intents"
	"github.com/cognicore/intentbow/pkg/intentbow/store"
	"github.com/cognicore/intentbow/pkg/intentbow/store/memstore"
	"github.com/cognicore/intentbow/pkg/intentbow/vocab"
)

// Pipeline is the training pipeline facade
type Pipeline struct {
	tokenizer  *ingest.Tokenizer
	normalizer *ingest.Normalizer
	trainer    classifier.Trainer
	store      store.Store
	ids        *store.IDGenerator
	rng        *rand.Rand
	now        func() time.Time
}

// Options configures a Pipeline. Nil fields get defaults: an identity
// analyzer with the default ignore set, the MLP trainer, an in-memory
// store, a time-seeded shuffle and time.Now.
type Options struct {
	Tokenizer  *ingest.Tokenizer
	Normalizer *ingest.Normalizer
	Trainer    classifier.Trainer
	Store      store.Store
	IDs        *store.IDGenerator
	Rand       *rand.Rand // shuffles the dataset
	Now        func() time.Time
}

// New creates a Pipeline with the given dependencies
func New(opts Options) *Pipeline {
	p := &Pipeline{
		tokenizer:  opts.Tokenizer,
		normalizer: opts.Normalizer,
		trainer:    opts.Trainer,
		store:      opts.Store,
		ids:        opts.IDs,
		rng:        opts.Rand,
		now:        opts.Now,
	}
	if p.tokenizer == nil {
		p.tokenizer = ingest.NewTokenizer()
	}
	if p.normalizer == nil {
		p.normalizer = ingest.NewNormalizer(ingest.NewLexiconAnalyzer(nil))
	}
	if p.trainer == nil {
		p.trainer = classifier.NewMLP()
	}
	if p.store == nil {
		p.store = memstore.New()
	}
	if p.ids == nil {
		p.ids = store.NewIDGenerator()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.rng == nil {
		seed := uint64(p.now().UnixNano())
		p.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return p
}

// Close cleanly shuts down the pipeline's store
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// Store returns the run registry.
func (p *Pipeline) Store() store.Store {
	return p.store
}

// Prepared is the output of the data preparation stage.
type Prepared struct {
	Examples   []ingest.Example
	Vocabulary vocab.Vocabulary
	Labels     vocab.LabelSet
	Vectorizer *vocab.Vectorizer
	Dataset    *vocab.Dataset
}

// Prepare tokenizes every pattern, builds the vocabulary and label set
// over all examples, then vectorizes and shuffles them.
func (p *Pipeline) Prepare(ctx context.Context, f *intents.File) (*Prepared, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	examples := p.tokenizer.Examples(f)

	v, l, err := vocab.Build(examples, p.normalizer)
	if err != nil {
		return nil, fmt.Errorf("build vocabulary: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vz, err := vocab.NewVectorizer(v, l, p.normalizer, p.tokenizer)
	if err != nil {
		return nil, err
	}
	ds, err := vocab.Assemble(examples, vz, p.rng)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		Examples:   examples,
		Vocabulary: v,
		Labels:     l,
		Vectorizer: vz,
		Dataset:    ds,
	}, nil
}

// RunRequest describes one training run.
type RunRequest struct {
	Intents     *intents.File
	IntentsPath string // recorded with the run
	OutputDir   string
	Artifacts   config.Artifacts
	Model       classifier.Config
	OnEpoch     func(classifier.EpochStats)
}

// Report summarizes a finished run.
type Report struct {
	RunID     string
	Examples  int
	VocabSize int
	Classes   int
	History   classifier.History
	Model     *classifier.Model
	Paths     config.Artifacts // full paths of the written files
}

// Run prepares the data, writes the vocabulary and label snapshots,
// trains the classifier and writes the model and its history. Every epoch
// is recorded in the store under a new run.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*Report, error) {
	prep, err := p.Prepare(ctx, req.Intents)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := config.Artifacts{
		Words:   filepath.Join(req.OutputDir, req.Artifacts.Words),
		Classes: filepath.Join(req.OutputDir, req.Artifacts.Classes),
		Model:   filepath.Join(req.OutputDir, req.Artifacts.Model),
		History: filepath.Join(req.OutputDir, req.Artifacts.History),
	}
	if err := prep.Vocabulary.Save(paths.Words); err != nil {
		return nil, fmt.Errorf("save vocabulary: %w", err)
	}
	if err := prep.Labels.Save(paths.Classes); err != nil {
		return nil, fmt.Errorf("save labels: %w", err)
	}

	started := p.now()
	run := store.Run{
		ID:          p.ids.New(started),
		StartedAt:   started,
		Status:      store.StatusRunning,
		IntentsPath: req.IntentsPath,
		ArtifactDir: req.OutputDir,
		Vocabulary:  prep.Vocabulary.Words(),
		Labels:      prep.Labels.Words(),
	}
	if err := p.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	model, hist, err := p.train(ctx, run.ID, prep.Dataset, req)
	if err == nil {
		err = saveModel(model, hist, paths)
	}
	if err != nil {
		if ferr := p.store.FinishRun(context.WithoutCancel(ctx), run.ID, p.now(), store.StatusFailed); ferr != nil {
			return nil, fmt.Errorf("%w (marking run failed: %v)", err, ferr)
		}
		return nil, err
	}
	if err := p.store.FinishRun(ctx, run.ID, p.now(), store.StatusSucceeded); err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}

	return &Report{
		RunID:     run.ID,
		Examples:  prep.Dataset.Len(),
		VocabSize: prep.Vocabulary.Len(),
		Classes:   prep.Labels.Len(),
		History:   hist,
		Model:     model,
		Paths:     paths,
	}, nil
}

// train runs the trainer and mirrors every epoch into the store. A store
// failure stops training.
func (p *Pipeline) train(ctx context.Context, runID string, ds *vocab.Dataset, req RunRequest) (*classifier.Model, classifier.History, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var once sync.Once
	var storeErr error
	onEpoch := func(e classifier.EpochStats) {
		err := p.store.AppendEpoch(ctx, runID, store.Epoch{Epoch: e.Epoch, Loss: e.Loss, Accuracy: e.Accuracy})
		if err != nil {
			once.Do(func() {
				storeErr = err
				cancel()
			})
			return
		}
		if req.OnEpoch != nil {
			req.OnEpoch(e)
		}
	}

	model, hist, err := p.trainer.Train(ctx, ds, req.Model, onEpoch)
	if storeErr != nil {
		return nil, hist, fmt.Errorf("record epoch: %w", storeErr)
	}
	if err != nil {
		return nil, hist, fmt.Errorf("train: %w", err)
	}
	return model, hist, nil
}

func saveModel(m *classifier.Model, h classifier.History, paths config.Artifacts) error {
	if err := m.Save(paths.Model); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := h.Save(paths.History); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

package intentbow

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/intentbow/pkg/intentbow/classifier"
	"github.com/cognicore/intentbow/pkg/intentbow/config"
	"github.com/cognicore/intentbow/pkg/intentbow/ingest"
	"github.com/cognicore/intentbow/pkg/intentbow/intents"
	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
	"github.com/cognicore/intentbow/pkg/intentbow/store"
	"github.com/cognicore/intentbow/pkg/intentbow/store/memstore"
	"github.com/cognicore/intentbow/pkg/intentbow/vocab"
)

const sampleIntents = `{"intents": [
  {"tag": "greet", "patterns": ["Hi", "Hallo!", "Guten Tag", "Hallo, wie geht es?"], "responses": ["Hallo!"]},
  {"tag": "bye", "patterns": ["Tschüss", "Bis bald.", "Auf Wiedersehen"], "responses": ["Tschüss!"]},
  {"tag": "zahlen", "patterns": ["Wie hoch ist die Inzidenz?", "Zeig mir die Zahlen", "Neue Fälle heute?"]},
  {"tag": "noop", "patterns": []}
]}`

func newPipeline(t *testing.T, st store.Store) *Pipeline {
	t.Helper()
	comp, err := (&config.Loader{FoldCaseAtBuild: true}).Load()
	require.NoError(t, err)
	return New(Options{
		Tokenizer:  comp.Tokenizer,
		Normalizer: comp.Normalizer,
		Store:      st,
		Rand:       rand.New(rand.NewPCG(1, 1)),
		Now:        func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) },
	})
}

func smallModel() classifier.Config {
	return classifier.Config{
		Hidden:       []int{16},
		Dropout:      []float64{0.1},
		LearningRate: 0.05,
		Decay:        1e-6,
		Momentum:     0.9,
		Nesterov:     true,
		Epochs:       40,
		BatchSize:    3,
		Seed:         1,
	}
}

func TestPrepareGreetBye(t *testing.T) {
	f, err := intents.Parse([]byte(`{"intents":[
		{"tag":"greet","patterns":["Hi","Hello there"]},
		{"tag":"bye","patterns":["Bye"]}]}`))
	require.NoError(t, err)

	prep, err := newPipeline(t, nil).Prepare(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, []string{"bye", "greet"}, prep.Labels.Words())
	assert.Equal(t, 4, prep.Vocabulary.Len())
	assert.Equal(t, 3, prep.Dataset.Len())
	for _, row := range prep.Dataset.Rows {
		assert.Len(t, row.Features, 4)
		assert.Len(t, row.Label, 2)
	}
}

func TestPrepareSkipsTagsWithoutPatterns(t *testing.T) {
	f, err := intents.Parse([]byte(sampleIntents))
	require.NoError(t, err)

	prep, err := newPipeline(t, nil).Prepare(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, []string{"bye", "greet", "zahlen"}, prep.Labels.Words())
	assert.Equal(t, 10, prep.Dataset.Len())
}

func TestPrepareRejectsEmptyFile(t *testing.T) {
	_, err := newPipeline(t, nil).Prepare(context.Background(), &intents.File{})
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestRunWritesArtifactsAndRecordsRun(t *testing.T) {
	ctx := context.Background()
	f, err := intents.Parse([]byte(sampleIntents))
	require.NoError(t, err)

	st := memstore.New()
	p := newPipeline(t, st)
	dir := filepath.Join(t.TempDir(), "out")

	var epochs int
	report, err := p.Run(ctx, RunRequest{
		Intents:     f,
		IntentsPath: "intents.json",
		OutputDir:   dir,
		Artifacts:   config.Default().Artifacts,
		Model:       smallModel(),
		OnEpoch:     func(classifier.EpochStats) { epochs++ },
	})
	require.NoError(t, err)

	assert.Equal(t, 40, epochs)
	assert.Equal(t, 10, report.Examples)
	assert.Equal(t, 3, report.Classes)
	assert.Len(t, report.History.Epochs, 40)

	words, err := vocab.LoadVocabulary(report.Paths.Words)
	require.NoError(t, err)
	assert.Equal(t, report.VocabSize, words.Len())
	labels, err := vocab.LoadLabelSet(filepath.Join(dir, "classes.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bye", "greet", "zahlen"}, labels.Words())

	model, err := classifier.LoadModel(report.Paths.Model)
	require.NoError(t, err)
	assert.Equal(t, words.Len(), model.InputWidth())
	assert.Equal(t, labels.Len(), model.OutputWidth())

	hist, err := classifier.LoadHistory(report.Paths.History)
	require.NoError(t, err)
	assert.Len(t, hist.Epochs, 40)

	run, err := st.GetRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusSucceeded, run.Status)
	assert.Len(t, run.Epochs, 40)
	assert.Equal(t, words.Words(), run.Vocabulary)
	assert.Equal(t, "intents.json", run.IntentsPath)

	// a reloaded vectorizer encodes text against the persisted indices
	norm := ingest.NewNormalizer(ingest.NewLexiconAnalyzer(nil), ingest.WithCaseFoldingAtBuild(true))
	vz, err := vocab.NewVectorizer(words, labels, norm, ingest.NewTokenizer())
	require.NoError(t, err)
	features, err := vz.EncodeText("Hallo, wie geht es?")
	require.NoError(t, err)
	probs, err := model.Predict(features)
	require.NoError(t, err)
	assert.Len(t, probs, 3)
}

type failingTrainer struct{}

func (failingTrainer) Train(ctx context.Context, ds classifier.Dataset, cfg classifier.Config, onEpoch func(classifier.EpochStats)) (*classifier.Model, classifier.History, error) {
	onEpoch(classifier.EpochStats{Epoch: 1, Loss: 1})
	return nil, classifier.History{}, errors.New("diverged")
}

func TestRunMarksFailedRuns(t *testing.T) {
	ctx := context.Background()
	f, err := intents.Parse([]byte(sampleIntents))
	require.NoError(t, err)

	st := memstore.New()
	p := New(Options{Trainer: failingTrainer{}, Store: st})

	_, err = p.Run(ctx, RunRequest{
		Intents:   f,
		OutputDir: t.TempDir(),
		Artifacts: config.Default().Artifacts,
		Model:     smallModel(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diverged")

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.StatusFailed, runs[0].Status)

	run, err := st.GetRun(ctx, runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, run.Epochs, 1)
}

func TestRunRejectsInvalidModelConfig(t *testing.T) {
	f, err := intents.Parse([]byte(sampleIntents))
	require.NoError(t, err)

	cfg := smallModel()
	cfg.Epochs = 0
	_, err = newPipeline(t, nil).Run(context.Background(), RunRequest{
		Intents:   f,
		OutputDir: t.TempDir(),
		Artifacts: config.Default().Artifacts,
		Model:     cfg,
	})
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestPrepareChatbotExample(t *testing.T) {
	cfg, err := config.LoadTraining(filepath.Join("..", "..", "examples", "chatbot", "train.yaml"))
	require.NoError(t, err)

	root := filepath.Join("..", "..")
	f, err := intents.Load(filepath.Join(root, cfg.Intents))
	require.NoError(t, err)

	loader := cfg.Loader()
	loader.LexiconPath = filepath.Join(root, cfg.Lexicon)
	comp, err := loader.Load()
	require.NoError(t, err)

	p := New(Options{Tokenizer: comp.Tokenizer, Normalizer: comp.Normalizer, Rand: rand.New(rand.NewPCG(2, 3))})
	prep, err := p.Prepare(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, []string{"abschied", "faelle", "gruss", "impfung", "inzidenz"}, prep.Labels.Words())
	assert.Equal(t, f.PatternCount(), prep.Dataset.Len())

	// "Fälle" and "Infektionen" are lemmatized through the lexicon
	for _, lemma := range []string{"Fall", "Infektion", "sein"} {
		_, ok := prep.Vocabulary.Index(lemma)
		assert.True(t, ok, "lemma %q missing", lemma)
	}
	_, ok := prep.Vocabulary.Index("Fälle")
	assert.False(t, ok)
}

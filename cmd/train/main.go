package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/cognicore/intentbow/pkg/intentbow"
	"github.com/cognicore/intentbow/pkg/intentbow/classifier"
	"github.com/cognicore/intentbow/pkg/intentbow/config"
	"github.com/cognicore/intentbow/pkg/intentbow/intents"
	"github.com/cognicore/intentbow/pkg/intentbow/store"
	"github.com/cognicore/intentbow/pkg/intentbow/store/memstore"
	"github.com/cognicore/intentbow/pkg/intentbow/store/sqlite"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Training config YAML (optional)")
		intentsPath = flag.String("intents", "", "Intents JSON file (overrides config)")
		outputDir   = flag.String("output", "", "Artifact directory (overrides config)")
		lexiconPath = flag.String("lexicon", "", "Lemma lexicon YAML (overrides config)")
		dbPath      = flag.String("db", "", "SQLite run registry (empty keeps runs in memory)")
		seed        = flag.Int64("seed", 0, "Random seed for shuffling and training (0 picks one)")
		epochs      = flag.Int("epochs", 0, "Number of epochs (overrides config)")
		quiet       = flag.Bool("quiet", false, "Disable the progress bar")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadTraining(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *intentsPath != "" {
		cfg.Intents = *intentsPath
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *lexiconPath != "" {
		cfg.Lexicon = *lexiconPath
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *epochs > 0 {
		cfg.Model.Epochs = *epochs
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
		log.Printf("Using random seed %d", cfg.Seed)
	}
	if cfg.Model.Seed == 0 {
		cfg.Model.Seed = cfg.Seed
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	file, err := intents.Load(cfg.Intents)
	if err != nil {
		log.Fatalf("Failed to load intents: %v", err)
	}

	components, err := cfg.Loader().Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	st, err := openStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	s := uint64(cfg.Seed)
	pipeline := intentbow.New(intentbow.Options{
		Tokenizer:  components.Tokenizer,
		Normalizer: components.Normalizer,
		Trainer:    classifier.NewMLP(),
		Store:      st,
		Rand:       rand.New(rand.NewPCG(s, s^0x5851f42d4c957f2d)),
	})
	defer pipeline.Close()

	log.Printf("Loaded %d intents with %d patterns from %s", len(file.Intents), file.PatternCount(), cfg.Intents)

	var bar *progressbar.ProgressBar
	if !*quiet {
		bar = progressbar.NewOptions(cfg.Model.Epochs,
			progressbar.OptionSetDescription("training"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
	}

	report, err := pipeline.Run(ctx, intentbow.RunRequest{
		Intents:     file,
		IntentsPath: cfg.Intents,
		OutputDir:   cfg.OutputDir,
		Artifacts:   cfg.Artifacts,
		Model:       cfg.Model,
		OnEpoch: func(e classifier.EpochStats) {
			if bar == nil {
				return
			}
			bar.Describe(fmt.Sprintf("loss %.4f acc %.4f", e.Loss, e.Accuracy))
			bar.Add(1)
		},
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	log.Printf("%d documents", report.Examples)
	log.Printf("%d classes", report.Classes)
	log.Printf("%d unique lemmatized words", report.VocabSize)
	if last, ok := report.History.Last(); ok {
		log.Printf("Final epoch %d: loss %.4f, accuracy %.4f", last.Epoch, last.Loss, last.Accuracy)
	}
	log.Printf("Run %s wrote %s, %s, %s, %s",
		report.RunID, report.Paths.Words, report.Paths.Classes, report.Paths.Model, report.Paths.History)
	fmt.Println("Done")
}

func openStore(ctx context.Context, path string) (store.Store, error) {
	if path == "" {
		return memstore.New(), nil
	}
	return sqlite.OpenSQLite(ctx, path)
}

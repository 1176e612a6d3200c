package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cognicore/intentbow/pkg/intentbow/store"
	"github.com/cognicore/intentbow/pkg/intentbow/store/sqlite"
)

func main() {
	var (
		dbPath = flag.String("db", "", "SQLite run registry (required)")
		limit  = flag.Int("limit", 20, "Maximum number of runs to list (0 for all)")
		runID  = flag.String("id", "", "Show one run with its epochs")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}

	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	if *runID != "" {
		run, err := st.GetRun(ctx, *runID)
		if err != nil {
			log.Fatalf("Failed to load run: %v", err)
		}
		printRun(run)
		return
	}

	runs, err := st.ListRuns(ctx, *limit)
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tSTATUS\tWORDS\tCLASSES\tINTENTS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), duration(r), r.Status,
			len(r.Vocabulary), len(r.Labels), r.IntentsPath)
	}
	w.Flush()
}

func printRun(r store.Run) {
	fmt.Printf("Run:       %s\n", r.ID)
	fmt.Printf("Status:    %s\n", r.Status)
	fmt.Printf("Started:   %s\n", r.StartedAt.Local().Format(time.DateTime))
	fmt.Printf("Duration:  %s\n", duration(r))
	fmt.Printf("Intents:   %s\n", r.IntentsPath)
	fmt.Printf("Artifacts: %s\n", r.ArtifactDir)
	fmt.Printf("Classes:   %s\n", strings.Join(r.Labels, ", "))
	fmt.Printf("Words:     %d\n\n", len(r.Vocabulary))

	if len(r.Epochs) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "EPOCH\tLOSS\tACCURACY\t")
	for _, e := range r.Epochs {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t\n", e.Epoch, e.Loss, e.Accuracy)
	}
	w.Flush()
}

func duration(r store.Run) string {
	if r.FinishedAt.IsZero() {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

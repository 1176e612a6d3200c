package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/cognicore/intentbow/pkg/intentbow/config"
	"github.com/cognicore/intentbow/pkg/intentbow/fetch"
	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
)

func main() {
	var (
		envPath = flag.String("env", "", "Path to a .env file (default: ./.env if present)")
		quiet   = flag.Bool("quiet", false, "Only print errors")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <name> [<name>...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	loadEnv(*envPath)

	cfg, err := config.LoadFetch()
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	opts := []fetch.Option{fetch.WithTimeout(cfg.Timeout)}
	if !*quiet {
		opts = append(opts, fetch.WithLogger(log.Default()))
	}
	f := fetch.New(cfg.BaseURL, cfg.Dir, opts...)

	for _, name := range flag.Args() {
		res, err := f.Update(context.Background(), name)
		if err != nil {
			if errors.Is(err, internalerr.ErrNoCache) {
				log.Printf("Program stopped")
			}
			log.Fatalf("%s: %v", name, err)
		}
		if res.Err != nil {
			log.Printf("%s: %v", name, res.Err)
		}
		if !*quiet {
			log.Printf("%s: %s (%s)", name, res.Outcome, res.Path)
		}
	}
}

// loadEnv loads an explicit .env file, or ./.env when it exists.
func loadEnv(path string) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			log.Fatalf("error loading .env file '%s': %v", path, err)
		}
		return
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Ignoring .env: %v", err)
	}
}

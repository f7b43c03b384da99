// Package main runs one weight training pass and exits. It exists for
// operators and scheduled jobs that want training outside the API server's
// built-in loop.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/onnwee/culturank/internal/config"
	"github.com/onnwee/culturank/internal/middleware"
	"github.com/onnwee/culturank/internal/ranking"
	"github.com/onnwee/culturank/internal/store"
	"github.com/onnwee/culturank/internal/trainer"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	jsonReport := flag.Bool("json", false, "print the training report as JSON")
	flag.Parse()

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if err := run(cfg, logger, *jsonReport); err != nil {
		logger.Error("training run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, jsonReport bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	profiles := store.NewPostgresProfileStore(db, logger)
	weightStore := store.NewPostgresWeightStore(db, logger)

	snapshot, err := weightStore.LoadActive(ctx)
	if errors.Is(err, ranking.ErrNoActiveWeights) {
		snapshot = nil
	} else if err != nil {
		return fmt.Errorf("failed to load active weights: %w", err)
	}
	holder := ranking.NewHolder(snapshot)

	job := trainer.NewJob(trainer.Config{
		Window:          cfg.TrainingWindow(),
		MinInteractions: cfg.MinTrainingInteractions,
		Logger:          logger,
	}, profiles, weightStore, holder)

	report, err := job.RunOnce(ctx)
	if err != nil {
		return err
	}

	if jsonReport {
		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	}

	report.LogSummary(logger)
	return nil
}

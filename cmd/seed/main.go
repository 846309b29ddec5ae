// Package main imports a YAML catalog of artists and beats into the database.
//
// Database and asset settings come from the environment or .env, the same as
// the API server. Durations missing from the file are probed from the audio
// files under AUDIO_DIR.
//
// Usage:
//
//	DB_PATH=./data/beats.db AUDIO_DIR=./public/audio go run ./cmd/seed -file catalog.yaml
//	go run ./cmd/seed -file catalog.yaml -no-probe
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sixtrece/beats-server/internal/config"
	"github.com/sixtrece/beats-server/internal/logger"
	"github.com/sixtrece/beats-server/internal/seed"
	"github.com/sixtrece/beats-server/internal/store/sqlstore"
	"github.com/sixtrece/beats-server/internal/validation"
)

func main() {
	file := flag.String("file", "catalog.yaml", "Seed catalog (YAML)")
	noProbe := flag.Bool("no-probe", false, "Do not read durations from audio files")
	flag.Parse()

	if err := run(*file, !*noProbe); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(file string, probe bool) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	})
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := seed.LoadFile(file, validation.New())
	if err != nil {
		return err
	}

	dialect, err := sqlstore.DialectFor(cfg.Database.Driver)
	if err != nil {
		return err
	}
	st, err := sqlstore.Open(ctx, dialect, cfg.Database.DSN(), log.Logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var probeFn seed.ProbeFunc
	if probe {
		probeFn = seed.ProbeAudio
	}

	seedLog := log.WithField("file", file)
	seedLog.Info("seeding catalog",
		slog.Int("artists", len(cat.Artists)),
		slog.Int("items", len(cat.Items)))

	report, err := seed.NewSeeder(st, probeFn, cfg.Assets.AudioDir, seedLog.Logger).Run(ctx, cat)
	if err != nil {
		return fmt.Errorf("seed: %w (partial: %s)", err, report)
	}

	fmt.Println(report)
	return nil
}

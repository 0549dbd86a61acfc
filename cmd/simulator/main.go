package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/siges-solar/internal/adapter/storage/postgres"
)

var (
	databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	deviceCount = flag.Int("devices", 5, "Number of devices to seed")
	days        = flag.Int("days", 21, "Days of readings to generate")
	capacity    = flag.Float64("capacity", 5000, "Rated capacity per device (watts)")
	scenario    = flag.String("scenario", "mixed", "Fault scenario: healthy, dead-day, degradation, spike, intermittent, low-output, mixed")
	seed        = flag.Int64("seed", 0, "Random seed (0 = time-based)")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *databaseURL == "" {
		logger.Fatal("database URL required (-database or DATABASE_URL)")
	}

	db, err := postgres.NewConnection(*databaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := postgres.RunMigrations(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	sim := NewSimulator(SimulatorConfig{
		DeviceCount:   *deviceCount,
		Days:          *days,
		CapacityWatts: *capacity,
		Scenario:      *scenario,
		Seed:          *seed,
	}, db, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := sim.Run(ctx); err != nil {
		logger.Fatal("Simulation failed", zap.Error(err))
	}

	logger.Info("Fleet seeded",
		zap.Int("devices", *deviceCount),
		zap.Int("days", *days),
		zap.String("scenario", *scenario),
	)
}

// Command marketsim runs the daily fish market simulation.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quayside/fishmarket/internal/config"
	"github.com/quayside/fishmarket/internal/entropy"
	"github.com/quayside/fishmarket/internal/market"
	"github.com/quayside/fishmarket/internal/persistence"
	"github.com/quayside/fishmarket/internal/tide"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	slog.Info("fish market simulation",
		"seed", cfg.Simulation.Seed,
		"days", cfg.Simulation.Days,
		"customers", cfg.Simulation.CustomerCount,
	)

	// ── Market store ─────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." && dir != "" {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.Storage.Path)
	if err != nil {
		slog.Error("failed to open market store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.SeedCatalog(); err != nil {
		slog.Error("failed to seed catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("market store opened", "path", cfg.Storage.Path)

	if prev, err := db.GetMeta(market.MetaLastRunID); err == nil {
		slog.Info("previous run found", "run_id", prev)
	}

	// ── Components ───────────────────────────────────────────────────
	src := entropy.FromSeed(cfg.Simulation.Seed)

	var tides *tide.Field
	if cfg.Simulation.Tides {
		tides = tide.NewField(cfg.Simulation.Seed)
	}

	sellers := market.DefaultSellers(db, src, tides)
	evaluator := market.NewEvaluator(db, src)
	population := market.NewPopulationManager(db, src)

	// ── Load or seed the customer population ─────────────────────────
	customers, err := population.LoadPopulation()
	if err != nil {
		slog.Error("failed to load customers", "error", err)
		os.Exit(1)
	}
	if len(customers) == 0 {
		customers = population.SeedPopulation(cfg.Simulation.CustomerCount, cfg.Simulation.TypeDistribution)
		slog.Info("population seeded", "customers", len(customers))
	} else {
		slog.Info("population restored", "customers", len(customers))
	}

	// ── Day loop ─────────────────────────────────────────────────────
	sim := market.NewSimulation(db, sellers, evaluator, population, customers)
	for i := 0; i < cfg.Simulation.Days; i++ {
		result, err := sim.ProcessDay()
		if err != nil {
			slog.Error("day failed", "error", err)
			os.Exit(1)
		}
		for _, line := range result.Log {
			slog.Debug("trail", "entry", line)
		}
	}

	if counts, err := db.RejectionCounts(); err == nil {
		slog.Info("rejection totals",
			"out_of_budget", counts[market.ReasonOutOfBudget],
			"too_expensive", counts[market.ReasonTooExpensive],
			"low_preference", counts[market.ReasonLowPreference],
			"purchase_limit", counts[market.ReasonReachedPurchaseLimit],
			"no_match", counts[market.ReasonNoMatchingListing],
		)
	}

	slog.Info("simulation complete", "days", cfg.Simulation.Days)
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

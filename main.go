package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/geo"
	"github.com/pthm-cable/colav/scenario"
	"github.com/pthm-cable/colav/sim"
	"github.com/pthm-cable/colav/store"
	"github.com/pthm-cable/colav/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	scenarioID := flag.String("scenario", "", "Scenario ID (empty = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	compare := flag.Bool("compare", false, "Run baseline and advisory-guided runs and compare them")
	useAdvisory := flag.Bool("advisory", false, "Enable the advisory service for a single run")
	endpoint := flag.String("endpoint", "", "Advisory endpoint (empty = use config)")
	storePath := flag.String("store", "", "SQLite run archive (empty = use config)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("failed to load config", "error", err)
	}
	if *scenarioID != "" {
		cfg.Scenario.ID = *scenarioID
	}
	if *useAdvisory {
		cfg.Advisory.Enabled = true
	}
	if *endpoint != "" {
		cfg.Advisory.Endpoint = *endpoint
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	if err := cfg.Finalize(); err != nil {
		fatal("invalid configuration", "error", err)
	}

	provider := scenario.Chain{scenario.Builtin{}, scenario.FileProvider{Dir: cfg.Scenario.Dir}}
	sc, err := provider.Scenario(cfg.Scenario.ID)
	if err != nil {
		fatal("failed to load scenario", "scenario", cfg.Scenario.ID, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var archive *store.Store
	if cfg.Store.Path != "" {
		archive, err = store.Open(cfg.Store.Path, logger)
		if err != nil {
			fatal("failed to open run archive", "path", cfg.Store.Path, "error", err)
		}
		defer archive.Close()
	}

	r := runner{cfg: cfg, sc: sc, logger: logger, archive: archive}
	if *compare {
		err = r.compare(ctx, *outputDir)
	} else {
		err = r.single(ctx, *outputDir)
	}
	if err != nil {
		var simErr *sim.Error
		if errors.As(err, &simErr) {
			fatal("run aborted", "kind", simErr.Kind.String(), "tick", simErr.Tick, "error", simErr.Err)
		}
		fatal("run failed", "error", err)
	}
}

// runner carries what every run mode shares.
type runner struct {
	cfg     *config.Config
	sc      *scenario.Scenario
	logger  *slog.Logger
	archive *store.Store
}

// single runs the scenario once with the configured advisory setting.
func (r runner) single(ctx context.Context, outputDir string) error {
	label := "baseline"
	if r.cfg.Advisory.Enabled {
		label = "advisory"
	}

	opts, finish, err := r.options(outputDir, label)
	if err != nil {
		return err
	}

	s, err := sim.New(r.cfg, r.sc, opts)
	if err != nil {
		return err
	}

	r.logger.Info("starting run",
		"scenario", r.sc.ID,
		"label", label,
		"steps", r.cfg.Derived.Steps,
		"dt", r.cfg.Simulation.DTS,
		"targets", len(r.sc.Targets),
	)

	h, runErr := s.Run(ctx)
	finishErr := finish(runErr)

	sum := s.Summary(label)
	r.logger.Info("run finished", "summary", sum)

	if err := r.save(ctx, sum, h); err != nil {
		r.logger.Error("failed to archive run", "error", err)
	}
	return errors.Join(runErr, finishErr)
}

// compare runs the baseline and the advisory-guided variant side by side.
func (r runner) compare(ctx context.Context, outputDir string) error {
	baseOpts, baseFinish, err := r.options(subdir(outputDir, "baseline"), "baseline")
	if err != nil {
		return err
	}
	advOpts, advFinish, err := r.options(subdir(outputDir, "advisory"), "advisory")
	if err != nil {
		return err
	}

	r.logger.Info("starting comparison", "scenario", r.sc.ID, "steps", r.cfg.Derived.Steps)

	c, runErr := sim.RunComparison(ctx, r.cfg, r.sc, baseOpts, advOpts)
	if c == nil {
		return runErr
	}
	finishErr := errors.Join(baseFinish(aborted(c.Baseline)), advFinish(aborted(c.Advisory)))

	r.logger.Info("comparison", "result", c)

	if err := r.save(ctx, c.Baseline, c.BaselineHistory); err != nil {
		r.logger.Error("failed to archive baseline run", "error", err)
	}
	if err := r.save(ctx, c.Advisory, c.AdvisoryHistory); err != nil {
		r.logger.Error("failed to archive advisory run", "error", err)
	}

	if outputDir != "" {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("encode comparison: %w", err)
		}
		path := filepath.Join(outputDir, "comparison.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write comparison: %w", err)
		}
		r.logger.Info("comparison written", "path", path)
	}
	return errors.Join(runErr, finishErr)
}

// options wires a telemetry monitor writing into dir. The returned finish
// func flushes and closes the outputs.
func (r runner) options(dir, label string) (sim.Options, func(error) error, error) {
	opts := sim.Options{Logger: r.logger.With("run", label)}
	if dir == "" {
		return opts, func(error) error { return nil }, nil
	}

	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		return opts, nil, err
	}
	cfg := r.cfg.Clone()
	cfg.Advisory.Enabled = label == "advisory"
	if err := out.WriteConfig(cfg); err != nil {
		out.Close()
		return opts, nil, err
	}

	mon := sim.NewMonitor(cfg, r.sc.ID, out, opts.Logger)
	opts.Observer = mon
	opts.Perf = mon.Perf()

	finish := func(runErr error) error {
		err := mon.Finish(runErr)
		if cerr := out.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		r.logger.Info("outputs written", "dir", dir)
		return err
	}
	return opts, finish, nil
}

// save archives a run when a store is configured.
func (r runner) save(ctx context.Context, sum sim.Summary, h *sim.History) error {
	if r.archive == nil || h == nil {
		return nil
	}
	origin, err := geo.NewOrigin(r.cfg.Geo.OriginLat, r.cfg.Geo.OriginLon)
	if err != nil {
		return err
	}
	cfg := r.cfg.Clone()
	cfg.Advisory.Enabled = sum.Label == "advisory"
	doc, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	id, err := r.archive.SaveRun(ctx, store.RunInput{
		Summary: sum,
		History: h,
		DT:      r.cfg.Simulation.DTS,
		Origin:  origin,
		Config:  string(doc),
	})
	if err != nil {
		return err
	}
	r.logger.Info("run archived", "id", id, "label", sum.Label, "path", r.cfg.Store.Path)
	return nil
}

// aborted recovers the abort reason of one side of a comparison.
func aborted(sum sim.Summary) error {
	if sum.Aborted == "" {
		return nil
	}
	return errors.New(sum.Aborted)
}

func subdir(dir, name string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

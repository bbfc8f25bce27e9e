// Package main provides CMA-ES tuning of the avoidance policy over a set of
// encounter scenarios.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/colav/config"
	"github.com/pthm-cable/colav/scenario"
)

// EvalRow is one line of optimize_log.csv.
type EvalRow struct {
	Eval          int     `csv:"eval"`
	Fitness       float64 `csv:"fitness"`
	AvoidanceDeg  float64 `csv:"avoidance_angle_deg"`
	Action        float64 `csv:"action_threshold"`
	Hysteresis    float64 `csv:"hysteresis"`
	ReleaseFactor float64 `csv:"release_factor"`
	MinSeparation float64 `csv:"min_separation"`
	TurnTicks     int     `csv:"turn_ticks"`
	Failed        int     `csv:"failed_cases"`
}

// BestResult is written to best_params.json.
type BestResult struct {
	Fitness     float64            `json:"fitness"`
	Evaluations int                `json:"evaluations"`
	Cases       []string           `json:"cases"`
	Params      map[string]float64 `json:"params"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	casesFlag := flag.String("cases", "1,2,3,4,5,9,13,17", "Comma-separated scenario ids")
	dt := flag.Float64("dt", 0.5, "Simulation step in seconds (0 = use config)")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	verbose := flag.Bool("verbose", false, "Log every simulation run")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *outputDir == "" {
		fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fatal("failed to create output directory", "error", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		fatal("failed to load config", "error", err)
	}
	baseCfg.Advisory.Enabled = false
	if *dt > 0 {
		baseCfg.Simulation.DTS = *dt
	}
	if err := baseCfg.Finalize(); err != nil {
		fatal("invalid config", "error", err)
	}

	provider := scenario.Chain{scenario.Builtin{}, scenario.FileProvider{Dir: baseCfg.Scenario.Dir}}
	var cases []*scenario.Scenario
	var caseIDs []string
	for _, id := range strings.Split(*casesFlag, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		sc, err := provider.Scenario(id)
		if err != nil {
			fatal("failed to load scenario", "id", id, "error", err)
		}
		cases = append(cases, sc)
		caseIDs = append(caseIDs, sc.ID)
	}
	if len(cases) == 0 {
		fatal("no scenarios selected")
	}

	simLogger := slog.New(slog.DiscardHandler)
	if *verbose {
		simLogger = logger
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, cases, baseCfg, simLogger)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // cases already run in parallel
	}

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		fatal("failed to create log file", "error", err)
	}
	defer logFile.Close()
	headerWritten := false

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			clamped := params.Clamp(raw)
			fitness := evaluator.Evaluate(raw)
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			last := evaluator.Last()
			failed := 0
			for _, r := range last {
				if r.err != nil {
					failed++
				}
			}
			row := []EvalRow{{
				Eval:          evalCount,
				Fitness:       fitness,
				AvoidanceDeg:  clamped[0],
				Action:        clamped[1],
				Hysteresis:    clamped[2],
				ReleaseFactor: clamped[3],
				MinSeparation: minSeparation(last),
				TurnTicks:     turnTicks(last),
				Failed:        failed,
			}}
			if headerWritten {
				err = gocsv.MarshalWithoutHeaders(row, logFile)
			} else {
				err = gocsv.Marshal(row, logFile)
				headerWritten = true
			}
			if err != nil {
				logger.Warn("failed to write evaluation log", "error", err)
			}

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(max(*maxEvals-evalCount, 0)) * avgPerEval
			logger.Info("evaluation",
				"eval", evalCount,
				"max_evals", *maxEvals,
				"fitness", fitness,
				"best", bestFitness,
				"min_separation", row[0].MinSeparation,
				"failed_cases", failed,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return fitness
		},
	}

	logger.Info("starting CMA-ES optimization",
		"params", dim,
		"population", popSize,
		"max_evals", *maxEvals,
		"cases", caseIDs,
		"dt", baseCfg.Simulation.DTS,
	)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		logger.Warn("optimization ended", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		fatal("no evaluation completed")
	}

	logger.Info("optimization complete",
		"evaluations", evalCount,
		"duration", formatDuration(time.Since(startTime)),
		"best_fitness", bestFitness,
		"best_params", params.Named(bestParams),
	)
	for _, r := range evaluator.Best() {
		logger.Info("best case",
			"scenario", r.scenario,
			"min_separation", r.summary.MinSeparation,
			"turn_ticks", r.summary.TurnTicks,
			"deviation", r.deviation,
			"arrived", r.summary.Arrived,
		)
	}

	best := BestResult{
		Fitness:     bestFitness,
		Evaluations: evalCount,
		Cases:       caseIDs,
		Params:      params.Named(bestParams),
	}
	data, err := json.MarshalIndent(best, "", "  ")
	if err != nil {
		fatal("failed to marshal best params", "error", err)
	}
	jsonPath := filepath.Join(*outputDir, "best_params.json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		fatal("failed to write best params", "error", err)
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, bestParams)
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		logger.Warn("failed to write best config", "error", err)
	}
	logger.Info("results saved", "params", jsonPath, "config", configOutPath, "log", logPath)
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

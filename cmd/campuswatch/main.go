package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tfalade/campuswatch/internal/artifact"
	"github.com/tfalade/campuswatch/internal/config"
	"github.com/tfalade/campuswatch/internal/logging"
	"github.com/tfalade/campuswatch/internal/pipeline"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file (optional)")
		incidents  = flag.String("incidents", "", "incident CSV path (overrides config)")
		survey     = flag.String("survey", "", "survey CSV path (overrides config)")
		out        = flag.String("out", "", "artifact output directory (overrides config)")
		seed       = flag.Uint64("seed", 0, "random seed (overrides config, 0 keeps configured value)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "campuswatch: %v\n", err)
		os.Exit(1)
	}
	if *incidents != "" {
		cfg.Data.IncidentsPath = *incidents
	}
	if *survey != "" {
		cfg.Data.SurveyPath = *survey
	}
	if *out != "" {
		cfg.Output.Dir = *out
	}
	if *seed != 0 {
		cfg.Model.Seed = *seed
	}

	logging.Init(cfg.Logging.Format, logging.ParseLevel(cfg.Logging.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := artifact.New(cfg.Output.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "campuswatch: %v\n", err)
		os.Exit(1)
	}

	res, err := pipeline.New(cfg, store).Run(ctx)
	if err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			fmt.Fprintf(os.Stderr, "campuswatch: stage %s failed: %v\n", stageErr.Stage, stageErr.Err)
		} else {
			fmt.Fprintf(os.Stderr, "campuswatch: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("run %s complete\n", res.RunID)
	fmt.Printf("  incidents analysed: %d (%s)\n", res.Incidents, res.IncidentSource)
	fmt.Printf("  survey responses:   %d (%s)\n", res.Surveys, res.SurveySource)
	if res.Metrics != nil {
		fmt.Printf("  classifier AUC:     %.3f\n", res.Metrics.AUC)
	}
	fmt.Printf("  prescriptions:      %d\n", len(res.Prescriptions))
	fmt.Printf("  report:             %s\n", res.ReportPath)
}

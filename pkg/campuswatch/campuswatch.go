package campuswatch

import (
	"context"
	"fmt"

	"github.com/tfalade/campuswatch/internal/artifact"
	"github.com/tfalade/campuswatch/internal/config"
	"github.com/tfalade/campuswatch/internal/dataset"
	"github.com/tfalade/campuswatch/internal/logging"
	"github.com/tfalade/campuswatch/internal/pipeline"
)

// Analyzer runs the campus security analysis pipeline.
// Construct with New; each Run writes a fresh artifact set.
type Analyzer struct {
	cfg config.Config
}

// Result summarizes one completed analysis run.
type Result struct {
	RunID string

	// Row counts after preprocessing.
	Incidents int
	Surveys   int

	// True when the corresponding input file was unavailable and synthetic
	// data was generated instead.
	SyntheticIncidents bool
	SyntheticSurvey    bool

	// Held-out classifier metrics.
	Accuracy float64
	AUC      float64

	Prescriptions []Prescription

	ModelPath  string
	ReportPath string
}

// Prescription is one prioritized security recommendation.
type Prescription struct {
	Finding         string
	Priority        string
	Recommendations []string
}

// New creates an Analyzer. Options override the YAML file, which overrides
// built-in defaults.
func New(opts ...Option) (*Analyzer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("campuswatch: %w", err)
	}
	if o.incidentsPath != "" {
		cfg.Data.IncidentsPath = o.incidentsPath
	}
	if o.surveyPath != "" {
		cfg.Data.SurveyPath = o.surveyPath
	}
	if o.outputDir != "" {
		cfg.Output.Dir = o.outputDir
	}
	if o.seedSet {
		cfg.Model.Seed = o.seed
	}
	if o.logLevel != "" || o.logFormat != "" {
		cfg.Logging.Level = orDefault(o.logLevel, cfg.Logging.Level)
		cfg.Logging.Format = orDefault(o.logFormat, cfg.Logging.Format)
	}
	logging.Init(cfg.Logging.Format, logging.ParseLevel(cfg.Logging.Level))

	return &Analyzer{cfg: cfg}, nil
}

// Run executes the full pipeline and returns the run summary. Artifacts
// (charts, the persisted model, the PDF report and a run manifest) are
// written under the configured output directory.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	store, err := artifact.New(a.cfg.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("campuswatch: %w", err)
	}
	res, err := pipeline.New(a.cfg, store).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("campuswatch: %w", err)
	}
	return resultFromRun(res), nil
}

// resultFromRun converts the internal pipeline result to the public type.
func resultFromRun(res *pipeline.Result) *Result {
	out := &Result{
		RunID:              res.RunID,
		Incidents:          res.Incidents,
		Surveys:            res.Surveys,
		SyntheticIncidents: res.IncidentSource == dataset.SourceSynthetic,
		SyntheticSurvey:    res.SurveySource == dataset.SourceSynthetic,
		ModelPath:          res.ModelPath,
		ReportPath:         res.ReportPath,
	}
	if res.Metrics != nil {
		out.Accuracy = res.Metrics.Accuracy
		out.AUC = res.Metrics.AUC
	}
	for _, p := range res.Prescriptions {
		out.Prescriptions = append(out.Prescriptions, Prescription{
			Finding:         p.Finding,
			Priority:        p.Priority.String(),
			Recommendations: p.Recommendations,
		})
	}
	return out
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

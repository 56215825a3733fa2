// Package pipeline runs the full analysis as a fixed sequence of stages:
// load, preprocess, explore, train, prescribe, report. Each stage consumes
// the previous stage's output; a failure is attributed to its stage and
// stops the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tfalade/campuswatch/internal/artifact"
	"github.com/tfalade/campuswatch/internal/classify"
	"github.com/tfalade/campuswatch/internal/config"
	"github.com/tfalade/campuswatch/internal/dataset"
	"github.com/tfalade/campuswatch/internal/eda"
	"github.com/tfalade/campuswatch/internal/model"
	"github.com/tfalade/campuswatch/internal/preprocess"
	"github.com/tfalade/campuswatch/internal/prescribe"
	"github.com/tfalade/campuswatch/internal/report"
)

// Stage identifies one pipeline step.
type Stage string

const (
	StageLoad       Stage = "load"
	StagePreprocess Stage = "preprocess"
	StageExplore    Stage = "explore"
	StageTrain      Stage = "train"
	StagePrescribe  Stage = "prescribe"
	StageReport     Stage = "report"
)

// StageError attributes a failure to the stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("pipeline: stage %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Result summarizes a completed run.
type Result struct {
	RunID          string               `json:"run_id"`
	IncidentSource dataset.SourceKind   `json:"incident_source"`
	SurveySource   dataset.SourceKind   `json:"survey_source"`
	Incidents      int                  `json:"incidents"`
	Surveys        int                  `json:"surveys"`
	Stats          preprocess.Stats     `json:"preprocess_stats"`
	Charts         int                  `json:"charts"`
	FailedCharts   int                  `json:"failed_charts"`
	Metrics        *classify.Metrics    `json:"metrics,omitempty"`
	Prescriptions  []model.Prescription `json:"-"`
	RuleIDs        []string             `json:"rules_fired"`
	ModelPath      string               `json:"model_path"`
	ReportPath     string               `json:"report_path"`
}

// Pipeline wires the stages over a shared configuration and artifact store.
type Pipeline struct {
	cfg   config.Config
	store *artifact.Store
}

// New creates a Pipeline writing artifacts into store.
func New(cfg config.Config, store *artifact.Store) *Pipeline {
	return &Pipeline{cfg: cfg, store: store}
}

// Run executes every stage in order. The context is checked between stages;
// individual stages are CPU and local-disk bound and do not block on it.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: p.store.RunID()}
	start := time.Now()

	// Load. Never fails: missing input falls back to synthetic data.
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageLoad, Err: err}
	}
	loader := dataset.NewLoader(p.cfg.Data, p.cfg.Model.Seed)
	incTable := loader.Incidents()
	svTable := loader.Survey()
	res.IncidentSource = incTable.Source
	res.SurveySource = svTable.Source

	// Preprocess.
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StagePreprocess, Err: err}
	}
	pp := preprocess.New(p.cfg.Preprocess, p.cfg.Survey)
	incidents, stats := pp.Incidents(incTable)
	surveys, err := pp.Surveys(svTable)
	if err != nil {
		return nil, &StageError{Stage: StagePreprocess, Err: err}
	}
	res.Incidents = len(incidents)
	res.Surveys = len(surveys)
	res.Stats = stats
	slog.Info("preprocessing complete",
		"incidents", len(incidents), "surveys", len(surveys),
		"dropped_premise", stats.DroppedPremise, "proxy_fallback", stats.ProxyFallback)

	// Explore.
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageExplore, Err: err}
	}
	trainer := classify.NewTrainer(p.cfg.Model)
	agg := eda.Aggregate(incidents, trainer.HighRisk())
	svAgg := eda.AggregateSurvey(surveys)
	renderer := eda.NewRenderer(p.store.Plots())

	charts := renderer.IncidentCharts(agg)
	charts = append(charts, renderer.SurveyCharts(svAgg)...)

	// Train.
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageTrain, Err: err}
	}
	m, metrics, err := trainer.Train(incidents)
	if err != nil {
		return nil, &StageError{Stage: StageTrain, Err: err}
	}
	if err := classify.Save(p.store.ModelPath(), m); err != nil {
		return nil, &StageError{Stage: StageTrain, Err: err}
	}
	p.store.Record(filepath.Join(artifact.ModelsDir, artifact.ModelFile), "model")
	if err := p.store.WriteJSON(filepath.Join(artifact.ModelsDir, artifact.MetricsFile), "metrics", metrics); err != nil {
		return nil, &StageError{Stage: StageTrain, Err: err}
	}
	res.Metrics = &metrics
	res.ModelPath = p.store.ModelPath()
	slog.Info("classifier trained",
		"model_id", m.ID, "accuracy", metrics.Accuracy, "auc", metrics.AUC,
		"train_rows", metrics.TrainRows, "test_rows", metrics.TestRows)

	charts = append(charts, renderer.ROCCurve(metrics.FPR, metrics.TPR, metrics.AUC))
	charts = append(charts, renderer.FeatureImportance(classify.FeatureNames(), m.FeatureImportances()))

	// Prescribe.
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StagePrescribe, Err: err}
	}
	insights := prescribe.Insights{
		Incidents:    agg,
		Survey:       svAgg,
		FeatureNames: classify.FeatureNames(),
		Importances:  m.FeatureImportances(),
	}
	prescriptions := prescribe.NewEngine(p.cfg.Rules).Evaluate(insights)
	res.Prescriptions = prescriptions
	for _, pr := range prescriptions {
		res.RuleIDs = append(res.RuleIDs, pr.RuleID)
	}
	charts = append(charts, renderer.PrescriptionPriorities(prioritySeries(prescriptions)))
	slog.Info("prescriptions generated", "rules", res.RuleIDs)

	res.Charts = len(charts)
	for _, c := range charts {
		if c.Err != nil {
			res.FailedCharts++
			slog.Warn("chart rendering failed", "chart", c.Name, "error", c.Err)
			continue
		}
		p.store.Record(filepath.Join(artifact.PlotsDir, c.Name), "chart")
	}

	// Report.
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageReport, Err: err}
	}
	if err := p.writeReport(res, charts, agg, svAgg, prescriptions); err != nil {
		return nil, &StageError{Stage: StageReport, Err: err}
	}
	res.ReportPath = p.store.ReportPath()
	p.store.Record(filepath.Join(artifact.ReportsDir, artifact.ReportFile), "report")

	if err := p.store.WriteManifest(res); err != nil {
		return nil, &StageError{Stage: StageReport, Err: err}
	}
	slog.Info("run complete", "run_id", res.RunID, "elapsed", time.Since(start))
	return res, nil
}

func (p *Pipeline) writeReport(res *Result, charts []eda.Chart, agg eda.Aggregates, svAgg eda.SurveyAggregates, prescriptions []model.Prescription) error {
	f, err := os.Create(p.store.ReportPath())
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	in := report.Input{
		RunID:          res.RunID,
		GeneratedAt:    time.Now(),
		IncidentSource: res.IncidentSource,
		SurveySource:   res.SurveySource,
		Stats:          res.Stats,
		Incidents:      agg,
		Survey:         svAgg,
		Charts:         charts,
		Metrics:        res.Metrics,
		Prescriptions:  prescriptions,
	}
	if err := report.NewBuilder().Build(f, in); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func prioritySeries(prescriptions []model.Prescription) ([]string, []float64) {
	labels := make([]string, len(prescriptions))
	values := make([]float64, len(prescriptions))
	for i, p := range prescriptions {
		labels[i] = p.RuleID
		values[i] = float64(p.Priority)
	}
	return labels, values
}

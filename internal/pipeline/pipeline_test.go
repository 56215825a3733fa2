package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tfalade/campuswatch/internal/artifact"
	"github.com/tfalade/campuswatch/internal/config"
	"github.com/tfalade/campuswatch/internal/dataset"
	"github.com/tfalade/campuswatch/internal/preprocess"
)

// testConfig points both inputs at missing files so the run exercises the
// synthetic fallback, and shrinks the forest to keep the test quick.
func testConfig(dir string) config.Config {
	cfg := config.Default()
	cfg.Data.IncidentsPath = filepath.Join(dir, "missing_incidents.csv")
	cfg.Data.SurveyPath = filepath.Join(dir, "missing_survey.csv")
	cfg.Data.SyntheticIncidents = 400
	cfg.Data.SyntheticResponses = 30
	cfg.Output.Dir = dir
	cfg.Model.Trees = 15
	cfg.Model.MaxDepth = 8
	cfg.Model.MinLeaf = 2
	return cfg
}

func runPipeline(t *testing.T, cfg config.Config) (*Result, *artifact.Store) {
	t.Helper()
	store, err := artifact.New(cfg.Output.Dir)
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}
	res, err := New(cfg, store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res, store
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	res, store := runPipeline(t, testConfig(dir))

	if res.IncidentSource != dataset.SourceSynthetic || res.SurveySource != dataset.SourceSynthetic {
		t.Errorf("expected synthetic sources, got %s/%s", res.IncidentSource, res.SurveySource)
	}
	if res.Incidents == 0 || res.Surveys != 30 {
		t.Errorf("unexpected row counts: incidents=%d surveys=%d", res.Incidents, res.Surveys)
	}
	if res.Metrics == nil || res.Metrics.TestRows == 0 {
		t.Fatalf("expected evaluation metrics, got %+v", res.Metrics)
	}
	if len(res.Prescriptions) == 0 {
		t.Error("expected at least the baseline prescription")
	}
	if res.FailedCharts != 0 {
		t.Errorf("%d charts failed to render", res.FailedCharts)
	}

	for _, path := range []string{
		store.ModelPath(),
		store.MetricsPath(),
		store.ReportPath(),
		filepath.Join(dir, artifact.ManifestFile),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact missing: %v", err)
		}
	}

	plots, err := os.ReadDir(store.Plots())
	if err != nil || len(plots) < 10 {
		t.Errorf("expected the full chart set in %s, got %d (%v)", store.Plots(), len(plots), err)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	a, _ := runPipeline(t, testConfig(t.TempDir()))
	b, _ := runPipeline(t, testConfig(t.TempDir()))

	if a.Incidents != b.Incidents || a.Surveys != b.Surveys {
		t.Errorf("row counts differ across identical seeds: %+v vs %+v", a, b)
	}
	if a.Metrics.Accuracy != b.Metrics.Accuracy || a.Metrics.AUC != b.Metrics.AUC {
		t.Errorf("metrics differ across identical seeds")
	}
	if len(a.RuleIDs) != len(b.RuleIDs) {
		t.Fatalf("fired rules differ: %v vs %v", a.RuleIDs, b.RuleIDs)
	}
	for i := range a.RuleIDs {
		if a.RuleIDs[i] != b.RuleIDs[i] {
			t.Fatalf("fired rules differ: %v vs %v", a.RuleIDs, b.RuleIDs)
		}
	}
}

func TestRunCancelledContext(t *testing.T) {
	dir := t.TempDir()
	store, err := artifact.New(dir)
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New(testConfig(dir), store).Run(ctx)
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageLoad {
		t.Errorf("cancellation should surface at the first stage, got %s", stageErr.Stage)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected wrapped context.Canceled, got %v", err)
	}
}

func TestRunSurveySchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	// A real survey file whose headers cannot constitute the canonical set
	// once the age mapping is removed.
	cfg.Data.SurveyPath = filepath.Join(dir, "survey.csv")
	if err := os.WriteFile(cfg.Data.SurveyPath, []byte("Gender\nFemale\n"), 0o644); err != nil {
		t.Fatalf("write survey: %v", err)
	}
	delete(cfg.Survey.Rename, "Age")

	store, err := artifact.New(dir)
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}
	_, err = New(cfg, store).Run(context.Background())
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StagePreprocess {
		t.Fatalf("expected preprocess stage failure, got %v", err)
	}
	if !errors.Is(err, preprocess.ErrSchemaMismatch) {
		t.Errorf("expected wrapped ErrSchemaMismatch, got %v", err)
	}
}

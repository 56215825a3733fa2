// Package dataset loads the two tabular inputs of the pipeline: incident
// records and survey responses. Each load fails closed: a missing or
// malformed file yields a seeded synthetic dataset with the same schema, so
// downstream stages never special-case absent input. The returned tables
// carry an explicit SourceKind so callers can tell which path was taken.
package dataset

import (
	"log/slog"

	"github.com/tfalade/campuswatch/internal/config"
	"github.com/tfalade/campuswatch/internal/model"
)

// SourceKind records whether a table came from disk or the synthetic generator.
type SourceKind string

const (
	SourceReal      SourceKind = "real"
	SourceSynthetic SourceKind = "synthetic"
)

// IncidentTable is the raw incident dataset handed to the preprocessor.
type IncidentTable struct {
	Source SourceKind
	Rows   []model.RawIncident
}

// SurveyTable is the raw survey dataset: source column headers and one
// header→value map per response. Renaming to canonical columns happens in
// the preprocessor.
type SurveyTable struct {
	Source  SourceKind
	Columns []string
	Rows    []map[string]string
}

// Loader reads the configured input files with synthetic fallback.
type Loader struct {
	cfg  config.DataConfig
	seed uint64
}

// NewLoader creates a Loader. The seed drives the synthetic generators only;
// real file loads are unaffected by it.
func NewLoader(cfg config.DataConfig, seed uint64) *Loader {
	return &Loader{cfg: cfg, seed: seed}
}

// Incidents loads the incident dataset. Never fails: a missing or malformed
// file is logged and replaced by a synthetic dataset.
func (l *Loader) Incidents() IncidentTable {
	rows, err := readIncidentsCSV(l.cfg.IncidentsPath)
	if err != nil {
		slog.Warn("incident file unavailable, generating synthetic data",
			"path", l.cfg.IncidentsPath, "rows", l.cfg.SyntheticIncidents, "error", err)
		return IncidentTable{
			Source: SourceSynthetic,
			Rows:   syntheticIncidents(l.cfg.SyntheticIncidents, l.seed),
		}
	}
	slog.Info("loaded incident records", "path", l.cfg.IncidentsPath, "rows", len(rows))
	return IncidentTable{Source: SourceReal, Rows: rows}
}

// Survey loads the survey dataset. Never fails: a missing or malformed file
// is logged and replaced by a synthetic dataset.
func (l *Loader) Survey() SurveyTable {
	cols, rows, err := readSurveyCSV(l.cfg.SurveyPath)
	if err != nil {
		slog.Warn("survey file unavailable, generating synthetic responses",
			"path", l.cfg.SurveyPath, "rows", l.cfg.SyntheticResponses, "error", err)
		cols, rows = syntheticSurvey(l.cfg.SyntheticResponses, l.seed)
		return SurveyTable{Source: SourceSynthetic, Columns: cols, Rows: rows}
	}
	slog.Info("loaded survey responses", "path", l.cfg.SurveyPath, "rows", len(rows))
	return SurveyTable{Source: SourceReal, Columns: cols, Rows: rows}
}

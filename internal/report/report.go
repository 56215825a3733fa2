// Package report compiles the analysis results into a PDF. Pages are
// described with pdfcpu's create JSON grammar and rendered through the pdfcpu
// API, so the report needs no external PDF tooling.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tfalade/campuswatch/internal/classify"
	"github.com/tfalade/campuswatch/internal/dataset"
	"github.com/tfalade/campuswatch/internal/eda"
	"github.com/tfalade/campuswatch/internal/model"
	"github.com/tfalade/campuswatch/internal/preprocess"
)

// Input carries everything the report renders.
type Input struct {
	RunID       string
	GeneratedAt time.Time

	IncidentSource dataset.SourceKind
	SurveySource   dataset.SourceKind

	Stats     preprocess.Stats
	Incidents eda.Aggregates
	Survey    eda.SurveyAggregates

	// Charts in render order. Missing or failed charts become labeled
	// placeholders in the PDF rather than aborting the build.
	Charts []eda.Chart

	// Metrics is nil when classifier training was skipped or failed.
	Metrics *classify.Metrics

	Prescriptions []model.Prescription
}

// Builder compiles report PDFs.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build writes the complete PDF report to w.
func (b *Builder) Build(w io.Writer, in Input) error {
	doc := compile(in)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("report: marshal descriptor: %w", err)
	}
	conf := pdfmodel.NewDefaultConfiguration()
	if err := api.Create(nil, bytes.NewReader(data), w, conf); err != nil {
		return fmt.Errorf("report: render pdf: %w", err)
	}
	return nil
}

package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tfalade/campuswatch/internal/classify"
	"github.com/tfalade/campuswatch/internal/dataset"
	"github.com/tfalade/campuswatch/internal/eda"
	"github.com/tfalade/campuswatch/internal/model"
	"github.com/tfalade/campuswatch/internal/preprocess"
)

func sampleInput() Input {
	incidents := []model.Incident{
		{Category: model.CategoryTheftRobbery, Severity: 2, Hour: 22, Weekday: 6, IsNight: true, IsWeekend: true, TimeOfDay: model.TimeNight, Premise: "CAMPUS"},
		{Category: model.CategoryAssaultViolence, Severity: 3, Hour: 9, Weekday: 2, TimeOfDay: model.TimeMorning, Premise: "SCHOOL"},
	}
	highRisk := map[model.RiskCategory]bool{
		model.CategoryTheftRobbery:    true,
		model.CategoryAssaultViolence: true,
	}
	return Input{
		RunID:          "run-test",
		GeneratedAt:    time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		IncidentSource: dataset.SourceReal,
		SurveySource:   dataset.SourceSynthetic,
		Stats:          preprocess.Stats{Input: 10, Kept: 2, DroppedPremise: 8},
		Incidents:      eda.Aggregate(incidents, highRisk),
		Survey: eda.AggregateSurvey([]model.SurveyResponse{
			{HadIncident: "Yes", HadIncidentScore: 1, SecurityRating: 2, PatrolVisible: "No"},
		}),
		Metrics: &classify.Metrics{TrainRows: 80, TestRows: 20, Accuracy: 0.9, AUC: 0.95},
		Prescriptions: []model.Prescription{
			{RuleID: "night-concentration", Finding: "Night clustering detected.", Priority: model.PriorityHigh,
				Recommendations: []string{"Shift patrols to night hours."}},
		},
	}
}

func docText(doc createDoc) string {
	var sb strings.Builder
	for _, p := range doc.Pages {
		for _, t := range p.Content.Text {
			sb.WriteString(t.Value)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func TestCompileSectionContent(t *testing.T) {
	doc := compile(sampleInput())
	if doc.Paper != "A4" || doc.Origin != "upperLeft" {
		t.Errorf("unexpected geometry: %s %s", doc.Paper, doc.Origin)
	}
	if len(doc.Pages) < 4 {
		t.Fatalf("expected a multi-page report, got %d pages", len(doc.Pages))
	}

	text := docText(doc)
	for _, want := range []string{
		"Campus Security Analysis Report",
		"run-test",
		"Executive Summary",
		"Data and Methodology",
		"Incident Analysis",
		"Student Survey",
		"Risk Classifier Evaluation",
		"Prescriptions",
		"Conclusion",
		"Night clustering detected.",
		"Shift patrols to night hours.",
		"synthetic (input file unavailable)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report text missing %q", want)
		}
	}
	if !strings.Contains(text, "AUC 0.950") {
		t.Errorf("metrics line missing, got: %q", text)
	}
}

func TestCompileMissingChartsBecomePlaceholders(t *testing.T) {
	in := sampleInput()
	in.Charts = nil

	doc := compile(in)
	text := docText(doc)
	if !strings.Contains(text, "[chart unavailable:") {
		t.Error("missing charts should surface as labeled placeholders")
	}
	for _, p := range doc.Pages {
		if len(p.Content.Image) != 0 {
			t.Fatal("no images should be embedded when no charts rendered")
		}
	}
}

func TestCompileEmbedsRenderedCharts(t *testing.T) {
	in := sampleInput()
	in.Charts = []eda.Chart{
		{Name: eda.ChartCategories, Title: "Categories", Path: "/tmp/plots/01_category_counts.png"},
		{Name: eda.ChartROC, Title: "ROC", Err: errors.New("render failed")},
	}

	doc := compile(in)
	var images int
	for _, p := range doc.Pages {
		images += len(p.Content.Image)
	}
	if images != 1 {
		t.Fatalf("expected exactly one embedded image, got %d", images)
	}
	if !strings.Contains(docText(doc), "[chart unavailable: ROC]") {
		t.Error("failed chart should fall back to a placeholder")
	}
}

func TestCompileSkippedTraining(t *testing.T) {
	in := sampleInput()
	in.Metrics = nil
	text := docText(compile(in))
	if !strings.Contains(text, "training was skipped") {
		t.Error("skipped training should be stated in the report")
	}
}

package eda

import (
	"fmt"
	"image/color"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/tfalade/campuswatch/internal/model"
)

// Fixed chart file names. The report compiler references charts by these
// names and renders a labeled placeholder for any that are missing.
const (
	ChartCategories    = "01_category_counts.png"
	ChartByHour        = "02_incidents_by_hour.png"
	ChartByWeekday     = "03_incidents_by_weekday.png"
	ChartByPremise     = "04_incidents_by_premise.png"
	ChartSeverity      = "05_severity_breakdown.png"
	ChartTimeOfDay     = "06_time_of_day.png"
	ChartSurveyHad     = "07_survey_incident_experience.png"
	ChartSurveyRating  = "08_survey_effectiveness.png"
	ChartSurveyWhere   = "09_survey_locations.png"
	ChartSurveySuggest = "10_survey_suggestions.png"
	ChartPatrol        = "11_patrol_visibility.png"
	ChartDayHourHeat   = "12_day_hour_heatmap.png"
	ChartROC           = "13_roc_curve.png"
	ChartImportance    = "14_feature_importance.png"
	ChartPriorities    = "15_prescription_priorities.png"
)

var (
	fillBlue   = color.RGBA{R: 0x2e, G: 0x86, B: 0xab, A: 0xff}
	fillNavy   = color.RGBA{R: 0x1a, G: 0x3a, B: 0x5c, A: 0xff}
	fillOrange = color.RGBA{R: 0xf1, G: 0x8f, B: 0x01, A: 0xff}
)

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Chart describes one rendered (or attempted) chart artifact.
type Chart struct {
	Name        string
	Title       string
	Path        string
	Placeholder bool  // rendered without data
	Err         error // non-nil when rendering failed entirely
}

// Renderer writes chart images into a single directory.
type Renderer struct {
	dir string
}

// NewRenderer creates a Renderer targeting dir (expected to exist).
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// IncidentCharts renders the incident-side charts (01-06 and the day×hour
// heat map). Empty aggregates yield placeholder charts, never an error that
// stops the caller.
func (r *Renderer) IncidentCharts(agg Aggregates) []Chart {
	var charts []Chart

	catLabels, catValues := categorySeries(agg)
	charts = append(charts, r.hbar(ChartCategories, "Incident Category Distribution", catLabels, catValues, fillNavy))

	hourLabels := make([]string, 24)
	hourValues := make([]float64, 24)
	for h := 0; h < 24; h++ {
		hourLabels[h] = fmt.Sprintf("%d", h)
		hourValues[h] = float64(agg.ByHour[h])
	}
	if agg.TimedCount == 0 {
		hourValues = nil
	}
	charts = append(charts, r.bar(ChartByHour, "Incidents by Hour of Day", hourLabels, hourValues, fillBlue))

	dayValues := make([]float64, 7)
	for d := 0; d < 7; d++ {
		dayValues[d] = float64(agg.ByWeekday[d])
	}
	if agg.TimedCount == 0 {
		dayValues = nil
	}
	charts = append(charts, r.bar(ChartByWeekday, "Incidents by Day of Week", weekdayNames, dayValues, fillBlue))

	premLabels, premValues := topCounts(agg.ByPremise, 8)
	charts = append(charts, r.hbar(ChartByPremise, "Incidents by Premise", premLabels, premValues, fillNavy))

	sevLabels := []string{"Low Risk", "Medium Risk", "High Risk"}
	sevValues := []float64{float64(agg.BySeverity[1]), float64(agg.BySeverity[2]), float64(agg.BySeverity[3])}
	if agg.Total == 0 {
		sevValues = nil
	}
	charts = append(charts, r.bar(ChartSeverity, "Incident Severity Breakdown", sevLabels, sevValues, fillOrange))

	todLabels := make([]string, 0, 5)
	todValues := make([]float64, 0, 5)
	for _, b := range model.TimeBuckets() {
		todLabels = append(todLabels, string(b))
		todValues = append(todValues, float64(agg.ByTimeOfDay[b]))
	}
	if agg.TimedCount == 0 {
		todValues = nil
	}
	charts = append(charts, r.bar(ChartTimeOfDay, "Incidents by Time of Day", todLabels, todValues, fillBlue))

	charts = append(charts, r.heatmap(ChartDayHourHeat, "Incidents by Day of Week and Hour", agg))
	return charts
}

// SurveyCharts renders the survey-side charts (07-11).
func (r *Renderer) SurveyCharts(agg SurveyAggregates) []Chart {
	var charts []Chart

	hadLabels, hadValues := topCounts(agg.HadIncident, 4)
	charts = append(charts, r.bar(ChartSurveyHad, "Students Who Experienced an Incident", hadLabels, hadValues, fillNavy))

	rateLabels := []string{"1", "2", "3", "4", "5"}
	rateValues := make([]float64, 5)
	var any bool
	for i := 1; i <= 5; i++ {
		rateValues[i-1] = float64(agg.Ratings[i])
		if agg.Ratings[i] > 0 {
			any = true
		}
	}
	if !any {
		rateValues = nil
	}
	charts = append(charts, r.bar(ChartSurveyRating, "Perceived Security Effectiveness (1-5)", rateLabels, rateValues, fillBlue))

	locLabels, locValues := topCounts(agg.Locations, 8)
	charts = append(charts, r.hbar(ChartSurveyWhere, "Where Incidents Occurred (Survey)", locLabels, locValues, fillNavy))

	sugLabels, sugValues := topCounts(agg.Suggestions, 8)
	charts = append(charts, r.hbar(ChartSurveySuggest, "Student Suggestions for Improved Safety", sugLabels, sugValues, fillNavy))

	patLabels, patValues := topCounts(agg.Patrol, 3)
	charts = append(charts, r.bar(ChartPatrol, "Patrol Visibility (Survey)", patLabels, patValues, fillOrange))
	return charts
}

// ROCCurve renders the classifier ROC chart (13).
func (r *Renderer) ROCCurve(fpr, tpr []float64, auc float64) Chart {
	name := ChartROC
	title := fmt.Sprintf("ROC Curve (AUC = %.3f)", auc)
	if len(fpr) == 0 || len(fpr) != len(tpr) {
		return r.placeholder(name, title)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate"

	pts := make(plotter.XYs, len(fpr))
	for i := range fpr {
		pts[i].X = fpr[i]
		pts[i].Y = tpr[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return Chart{Name: name, Title: title, Err: fmt.Errorf("eda: roc line: %w", err)}
	}
	line.Color = fillNavy
	line.Width = vg.Points(2)

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return Chart{Name: name, Title: title, Err: fmt.Errorf("eda: roc diagonal: %w", err)}
	}
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(line, diag)
	return r.save(p, name, title, false)
}

// FeatureImportance renders the importance ranking chart (14).
func (r *Renderer) FeatureImportance(names []string, scores []float64) Chart {
	return r.hbar(ChartImportance, "Feature Importances", names, scores, fillNavy)
}

// PrescriptionPriorities renders the fired-rule priority chart (15).
func (r *Renderer) PrescriptionPriorities(findings []string, priorities []float64) Chart {
	return r.hbar(ChartPriorities, "Risk Findings by Priority", findings, priorities, fillOrange)
}

func (r *Renderer) bar(name, title string, labels []string, values []float64, fill color.Color) Chart {
	return r.barChart(name, title, labels, values, fill, false)
}

func (r *Renderer) hbar(name, title string, labels []string, values []float64, fill color.Color) Chart {
	return r.barChart(name, title, labels, values, fill, true)
}

func (r *Renderer) barChart(name, title string, labels []string, values []float64, fill color.Color, horizontal bool) Chart {
	if len(values) == 0 || allZero(values) {
		return r.placeholder(name, title)
	}

	p := plot.New()
	p.Title.Text = title

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(22))
	if err != nil {
		return Chart{Name: name, Title: title, Err: fmt.Errorf("eda: chart %s: %w", name, err)}
	}
	bars.Color = fill
	bars.LineStyle.Width = 0
	bars.Horizontal = horizontal
	p.Add(bars)
	if horizontal {
		p.NominalY(labels...)
	} else {
		p.NominalX(labels...)
	}
	return r.save(p, name, title, false)
}

func (r *Renderer) heatmap(name, title string, agg Aggregates) Chart {
	if agg.TimedCount == 0 {
		return r.placeholder(name, title)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Hour of Day"
	p.Y.Label.Text = "Day of Week"

	h := plotter.NewHeatMap(dayHourGrid{agg.DayHour}, palette.Heat(12, 1))
	p.Add(h)
	return r.save(p, name, title, false)
}

// placeholder renders an empty chart carrying only the title, so the report
// has a stable image to embed even without data.
func (r *Renderer) placeholder(name, title string) Chart {
	p := plot.New()
	p.Title.Text = title + " (no data)"
	return r.save(p, name, title, true)
}

func (r *Renderer) save(p *plot.Plot, name, title string, placeholder bool) Chart {
	path := filepath.Join(r.dir, name)
	if err := p.Save(8*vg.Inch, 4.5*vg.Inch, path); err != nil {
		return Chart{Name: name, Title: title, Placeholder: placeholder, Err: fmt.Errorf("eda: save %s: %w", name, err)}
	}
	return Chart{Name: name, Title: title, Path: path, Placeholder: placeholder}
}

// dayHourGrid adapts the 7×24 tally to plotter.GridXYZ.
type dayHourGrid struct {
	counts [7][24]int
}

func (g dayHourGrid) Dims() (c, r int)   { return 24, 7 }
func (g dayHourGrid) Z(c, r int) float64 { return float64(g.counts[r][c]) }
func (g dayHourGrid) X(c int) float64    { return float64(c) }
func (g dayHourGrid) Y(r int) float64    { return float64(r) }

func categorySeries(agg Aggregates) ([]string, []float64) {
	if agg.Total == 0 {
		return nil, nil
	}
	labels := make([]string, 0, len(model.Categories()))
	values := make([]float64, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		labels = append(labels, string(c))
		values = append(values, float64(agg.ByCategory[c]))
	}
	return labels, values
}

// topCounts returns the n most frequent keys (descending, ties by key) and
// their counts as a plottable series.
func topCounts[K comparable](m map[K]int, n int) ([]string, []float64) {
	type kv struct {
		key   string
		count int
	}
	entries := make([]kv, 0, len(m))
	for k, v := range m {
		entries = append(entries, kv{fmt.Sprint(k), v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	labels := make([]string, len(entries))
	values := make([]float64, len(entries))
	for i, e := range entries {
		labels[i] = e.key
		values[i] = float64(e.count)
	}
	return labels, values
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

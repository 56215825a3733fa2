package report

import (
	"fmt"
	"strconv"

	"github.com/tfalade/campuswatch/internal/dataset"
	"github.com/tfalade/campuswatch/internal/eda"
)

// pdfcpu create-JSON descriptor types. Only the subset of the grammar the
// report needs is modeled here.
type createDoc struct {
	Paper  string          `json:"paper"`
	Origin string          `json:"origin"`
	Pages  map[string]page `json:"pages"`
}

type page struct {
	Content content `json:"content"`
}

type content struct {
	Text  []textBox  `json:"text,omitempty"`
	Image []imageBox `json:"image,omitempty"`
}

type textBox struct {
	Value    string     `json:"value"`
	Position [2]float64 `json:"position"`
	Font     font       `json:"font"`
	Width    float64    `json:"width,omitempty"`
}

type font struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

type imageBox struct {
	Src      string     `json:"src"`
	Position [2]float64 `json:"position"`
	Width    float64    `json:"width,omitempty"`
}

// A4 geometry in PDF points, origin at the upper left.
const (
	pageWidth  = 595.0
	pageHeight = 842.0
	margin     = 56.0
	textWidth  = pageWidth - 2*margin

	lineHeight  = 16.0
	headingGap  = 26.0
	chartWidth  = 460.0
	chartHeight = 260.0 // chartWidth at the renderer's 16:9 aspect
)

const (
	fontBody    = "Helvetica"
	fontBold    = "Helvetica-Bold"
	sizeTitle   = 24.0
	sizeHeading = 15.0
	sizeBody    = 10.5
)

// docBuilder accumulates pages with a simple downward text cursor.
type docBuilder struct {
	pages   []page
	current content
	y       float64
}

func (d *docBuilder) newPage() {
	if d.y > 0 {
		d.pages = append(d.pages, page{Content: d.current})
	}
	d.current = content{}
	d.y = margin
}

// need starts a fresh page unless h points still fit on the current one.
func (d *docBuilder) need(h float64) {
	if d.y+h > pageHeight-margin {
		d.newPage()
	}
}

func (d *docBuilder) text(value string, f font, advance float64) {
	d.current.Text = append(d.current.Text, textBox{
		Value:    value,
		Position: [2]float64{margin, d.y},
		Font:     f,
		Width:    textWidth,
	})
	d.y += advance
}

func (d *docBuilder) title(s string) { d.text(s, font{fontBold, sizeTitle}, headingGap+12) }

func (d *docBuilder) line(s string) {
	d.need(lineHeight)
	d.text(s, font{fontBody, sizeBody}, lineHeight)
}

func (d *docBuilder) bullet(s string) { d.line("  - " + s) }

func (d *docBuilder) gap() { d.y += lineHeight / 2 }

func (d *docBuilder) heading(s string) {
	d.need(headingGap + 3*lineHeight)
	d.text(s, font{fontBold, sizeHeading}, headingGap)
}

// chart embeds a rendered chart, or a labeled placeholder line when the
// image never materialized.
func (d *docBuilder) chart(c eda.Chart, ok bool) {
	if !ok || c.Err != nil || c.Path == "" {
		d.line(fmt.Sprintf("[chart unavailable: %s]", c.Title))
		return
	}
	d.need(chartHeight + lineHeight)
	d.current.Image = append(d.current.Image, imageBox{
		Src:      c.Path,
		Position: [2]float64{margin, d.y},
		Width:    chartWidth,
	})
	d.y += chartHeight + lineHeight
}

func (d *docBuilder) build() createDoc {
	d.pages = append(d.pages, page{Content: d.current})
	pages := make(map[string]page, len(d.pages))
	for i, p := range d.pages {
		pages[strconv.Itoa(i+1)] = p
	}
	return createDoc{Paper: "A4", Origin: "upperLeft", Pages: pages}
}

// compile lays out the full report in fixed section order.
func compile(in Input) createDoc {
	d := &docBuilder{}
	d.newPage()

	charts := make(map[string]eda.Chart, len(in.Charts))
	for _, c := range in.Charts {
		charts[c.Name] = c
	}
	useChart := func(name string) {
		c, ok := charts[name]
		d.chart(c, ok)
	}

	// Cover.
	d.title("Campus Security Analysis Report")
	d.line(fmt.Sprintf("Run %s", in.RunID))
	d.line(fmt.Sprintf("Generated %s", in.GeneratedAt.Format("2 January 2006 15:04 MST")))
	d.gap()
	d.line(fmt.Sprintf("Incident data source: %s", sourceLabel(in.IncidentSource)))
	d.line(fmt.Sprintf("Survey data source: %s", sourceLabel(in.SurveySource)))

	// Executive summary.
	d.heading("Executive Summary")
	top, share := in.Incidents.TopCategory()
	d.line(fmt.Sprintf("%d campus incidents were analysed alongside %d survey responses.",
		in.Incidents.Total, in.Survey.Total))
	if in.Incidents.Total > 0 {
		d.line(fmt.Sprintf("The most frequent incident category is %s (%.0f%% of records).", top, 100*share))
		d.line(fmt.Sprintf("%.0f%% of incidents fall into high-risk categories.", 100*in.Incidents.HighRiskShare()))
	}
	if ph := in.Incidents.PeakHour(); ph >= 0 {
		d.line(fmt.Sprintf("Incidents peak around %02d:00; %.0f%% of timed incidents occur at night.",
			ph, 100*in.Incidents.NightShare()))
	}
	d.line(fmt.Sprintf("%d prescriptions were generated from the detected risk patterns.", len(in.Prescriptions)))

	// Methodology.
	d.heading("Data and Methodology")
	d.line(fmt.Sprintf("Raw incident rows: %d. Rows after campus filtering: %d.", in.Stats.Input, in.Stats.Kept))
	d.line(fmt.Sprintf("Dropped by premise filter: %d. Unparsable timestamps: %d.",
		in.Stats.DroppedPremise, in.Stats.Unparsable))
	if in.Stats.ProxyFallback {
		d.line("Too few campus-specific rows were found; the full dataset is used as a proxy.")
	}
	d.line("Incidents are bucketed into risk categories by crime-type keywords and")
	d.line("enriched with hour, weekday, weekend and night features. A random-forest")
	d.line("classifier is trained to separate high-risk from low-risk incidents.")

	// Incident findings.
	d.newPage()
	d.heading("Incident Analysis")
	for _, name := range []string{
		eda.ChartCategories, eda.ChartByHour, eda.ChartByWeekday,
		eda.ChartByPremise, eda.ChartSeverity, eda.ChartTimeOfDay, eda.ChartDayHourHeat,
	} {
		useChart(name)
	}

	// Survey findings.
	d.newPage()
	d.heading("Student Survey")
	if in.Survey.Total > 0 {
		d.line(fmt.Sprintf("%.0f%% of respondents experienced a security incident in the last year.",
			100*in.Survey.IncidentRate))
		if in.Survey.AvgRating > 0 {
			d.line(fmt.Sprintf("Average perceived security effectiveness: %.1f / 5.", in.Survey.AvgRating))
		}
		d.line(fmt.Sprintf("%.0f%% report that security patrols are not visible in their area.",
			100*in.Survey.PatrolHidden))
	} else {
		d.line("No survey responses were available for this run.")
	}
	for _, name := range []string{
		eda.ChartSurveyHad, eda.ChartSurveyRating, eda.ChartSurveyWhere,
		eda.ChartSurveySuggest, eda.ChartPatrol,
	} {
		useChart(name)
	}

	// Model evaluation.
	d.newPage()
	d.heading("Risk Classifier Evaluation")
	if in.Metrics != nil {
		m := in.Metrics
		d.line(fmt.Sprintf("Trained on %d incidents, evaluated on %d held-out incidents.",
			m.TrainRows, m.TestRows))
		d.line(fmt.Sprintf("Accuracy %.3f, precision %.3f, recall %.3f, F1 %.3f, AUC %.3f.",
			m.Accuracy, m.Precision, m.Recall, m.F1, m.AUC))
		d.line(fmt.Sprintf("Confusion matrix: TN=%d FP=%d FN=%d TP=%d.",
			m.Confusion[0][0], m.Confusion[0][1], m.Confusion[1][0], m.Confusion[1][1]))
	} else {
		d.line("Classifier training was skipped: the dataset could not support a binary fit.")
	}
	useChart(eda.ChartROC)
	useChart(eda.ChartImportance)

	// Prescriptions.
	d.newPage()
	d.heading("Prescriptions")
	for i, p := range in.Prescriptions {
		d.need(float64(3+len(p.Recommendations)) * lineHeight)
		d.line(fmt.Sprintf("%d. [%s] %s", i+1, p.Priority, p.Finding))
		for _, rec := range p.Recommendations {
			d.bullet(rec)
		}
		d.gap()
	}
	useChart(eda.ChartPriorities)

	// Conclusion.
	d.heading("Conclusion")
	d.line("Patterns in the incident record and the survey point to concrete, targeted")
	d.line("interventions. The prescriptions above are ordered by priority; revisiting")
	d.line("the analysis as new data arrives will keep them current.")

	return d.build()
}

func sourceLabel(k dataset.SourceKind) string {
	if k == dataset.SourceSynthetic {
		return "synthetic (input file unavailable)"
	}
	return "file"
}

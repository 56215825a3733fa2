// Package preprocess cleans raw incident and survey tables into the
// canonical schema consumed by the rest of the pipeline: premise filtering,
// crime-type bucketing into the fixed risk categories, calendar and
// time-of-day feature extraction, and survey column renaming.
package preprocess

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/tfalade/campuswatch/internal/config"
	"github.com/tfalade/campuswatch/internal/dataset"
	"github.com/tfalade/campuswatch/internal/model"
)

// ErrSchemaMismatch reports a canonical column that cannot be constituted
// from the configured rename mapping or the source columns.
var ErrSchemaMismatch = errors.New("canonical column missing")

// Timestamp layouts accepted for the incident date field, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006 03:04:05 PM",
	"2006-01-02 15:04:05",
}

// Stats summarizes what preprocessing did to the incident table.
type Stats struct {
	Input          int
	Kept           int
	DroppedPremise int
	Unparsable     int // rows with null time features
	ProxyFallback  bool
}

// Preprocessor applies the configured cleaning rules.
type Preprocessor struct {
	premises  []string
	buckets   []bucket
	minCampus int
	nightFrom int
	nightTo   int
	rename    map[string]string
}

type bucket struct {
	category model.RiskCategory
	keywords []string
}

// New creates a Preprocessor from the preprocess and survey configuration.
func New(pc config.PreprocessConfig, sc config.SurveyConfig) *Preprocessor {
	p := &Preprocessor{
		minCampus: pc.MinCampusRows,
		nightFrom: pc.NightStartHour,
		nightTo:   pc.NightEndHour,
		rename:    sc.Rename,
	}
	for _, prem := range pc.PremiseAllowlist {
		p.premises = append(p.premises, normalize(prem))
	}
	for _, entry := range pc.CategoryKeywords {
		b := bucket{category: model.RiskCategory(entry.Category)}
		for _, kw := range entry.Keywords {
			b.keywords = append(b.keywords, normalize(kw))
		}
		p.buckets = append(p.buckets, b)
	}
	return p
}

// Incidents filters, buckets and enriches the raw incident table.
// An empty input yields an empty, correctly-schemaed output.
func (p *Preprocessor) Incidents(tbl dataset.IncidentTable) ([]model.Incident, Stats) {
	stats := Stats{Input: len(tbl.Rows)}

	campus := make([]model.RawIncident, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		if p.matchesPremise(row.Premise) {
			campus = append(campus, row)
		}
	}
	stats.DroppedPremise = len(tbl.Rows) - len(campus)

	rows := campus
	campusSpecific := true
	if len(campus) < p.minCampus && len(tbl.Rows) > len(campus) {
		// Too few campus records to analyze: keep the full dataset as an
		// urban-crime proxy, flagged as not campus-specific.
		slog.Info("few campus-premise records, using full dataset as proxy",
			"campus_rows", len(campus), "total_rows", len(tbl.Rows))
		rows = tbl.Rows
		campusSpecific = false
		stats.DroppedPremise = 0
		stats.ProxyFallback = true
	}

	out := make([]model.Incident, 0, len(rows))
	for _, row := range rows {
		inc := p.enrich(row)
		inc.CampusSpecific = campusSpecific
		if !inc.HasTimeFeatures() {
			stats.Unparsable++
		}
		out = append(out, inc)
	}
	stats.Kept = len(out)
	return out, stats
}

// Bucket maps a raw crime-type string to exactly one risk category.
// Unmatched values fall into CategoryOther.
func (p *Preprocessor) Bucket(rawType string) model.RiskCategory {
	s := normalize(rawType)
	if s == "" {
		return model.CategoryOther
	}
	for _, b := range p.buckets {
		for _, kw := range b.keywords {
			if strings.Contains(s, kw) {
				return b.category
			}
		}
	}
	return model.CategoryOther
}

func (p *Preprocessor) matchesPremise(premise string) bool {
	s := normalize(premise)
	for _, want := range p.premises {
		if strings.Contains(s, want) {
			return true
		}
	}
	return false
}

func (p *Preprocessor) enrich(row model.RawIncident) model.Incident {
	inc := model.Incident{
		Premise:   row.Premise,
		CrimeType: row.CrimeType,
		Area:      row.Area,
		VictimAge: parseAge(row.VictimAge),
		VictimSex: row.VictimSex,
		Hour:      -1,
		Weekday:   -1,
		TimeOfDay: model.TimeUnknown,
	}
	inc.Category = p.Bucket(row.CrimeType)
	inc.Severity = inc.Category.Severity()

	ts, ok := parseDate(row.DateOccurred)
	if !ok {
		return inc
	}
	inc.Occurred = ts
	inc.Weekday = int(ts.Weekday())
	inc.IsWeekend = ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday

	hour, ok := parseHour(row.TimeOccurred, row.DateOccurred, ts)
	if !ok {
		return inc
	}
	inc.Hour = hour
	inc.IsNight = p.isNight(hour)
	inc.TimeOfDay = timeOfDay(hour)
	return inc
}

// isNight applies the configured night window, which may wrap midnight
// (default: 20:00 through 05:59).
func (p *Preprocessor) isNight(hour int) bool {
	if p.nightFrom > p.nightTo {
		return hour >= p.nightFrom || hour < p.nightTo
	}
	return hour >= p.nightFrom && hour < p.nightTo
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseHour prefers the HHMM time-occurred field; when absent it falls back
// to the clock embedded in the date field, if its layout carried one.
func parseHour(timeOcc, dateOcc string, ts time.Time) (int, bool) {
	timeOcc = strings.TrimSpace(timeOcc)
	if timeOcc != "" {
		if n, err := strconv.Atoi(timeOcc); err == nil {
			h := n / 100
			if h >= 0 && h <= 23 {
				return h, true
			}
		}
		return 0, false
	}
	if strings.Contains(dateOcc, ":") {
		return ts.Hour(), true
	}
	return 0, false
}

func parseAge(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 100 {
		return -1
	}
	return n
}

func timeOfDay(hour int) model.TimeOfDay {
	switch {
	case hour < 6:
		return model.TimeLateNight
	case hour < 12:
		return model.TimeMorning
	case hour < 17:
		return model.TimeAfternoon
	case hour < 21:
		return model.TimeEvening
	default:
		return model.TimeNight
	}
}

// normalize applies NFKC unicode normalization, trims and upper-cases,
// so keyword and premise matching is insensitive to case and compatibility forms.
func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(s)))
}

// missingColumnError builds the stage-failure error for a canonical column
// that neither the rename mapping nor the source can provide.
func missingColumnError(col string) error {
	return fmt.Errorf("preprocess: %w: %s", ErrSchemaMismatch, col)
}

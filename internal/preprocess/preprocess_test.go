package preprocess

import (
	"errors"
	"strings"
	"testing"

	"github.com/tfalade/campuswatch/internal/config"
	"github.com/tfalade/campuswatch/internal/dataset"
	"github.com/tfalade/campuswatch/internal/model"
	"github.com/tfalade/campuswatch/internal/preprocess/testdata"
)

func newTestPreprocessor() *Preprocessor {
	cfg := config.Default()
	cfg.Preprocess.MinCampusRows = 1
	return New(cfg.Preprocess, cfg.Survey)
}

func rawIncident(date, tm, premise, crime string) model.RawIncident {
	return model.RawIncident{
		DateOccurred: date,
		TimeOccurred: tm,
		Premise:      premise,
		CrimeType:    crime,
	}
}

func TestBucketCorpus(t *testing.T) {
	p := newTestPreprocessor()
	entries, err := testdata.LoadCorpus()
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}
	for _, e := range entries {
		got := p.Bucket(e.Raw)
		if string(got) != e.ExpectedCategory {
			t.Errorf("Bucket(%q) = %q, want %q (%s)", e.Raw, got, e.ExpectedCategory, e.Description)
		}
	}
}

func TestBucketTotality(t *testing.T) {
	p := newTestPreprocessor()
	known := make(map[model.RiskCategory]bool)
	for _, c := range model.Categories() {
		known[c] = true
	}
	for _, raw := range []string{"", "???", "ARSON", "theft", "Assault", "x"} {
		if got := p.Bucket(raw); !known[got] {
			t.Errorf("Bucket(%q) = %q, not a known category", raw, got)
		}
	}
}

func TestIncidentsPremiseFilter(t *testing.T) {
	p := newTestPreprocessor()
	tbl := dataset.IncidentTable{Rows: []model.RawIncident{
		rawIncident("2023-04-12", "2130", "SCHOOL INTERIOR", "BURGLARY"),
		rawIncident("2023-04-12", "0915", "Liquor Store", "ROBBERY"),
		rawIncident("2023-04-13", "1200", "College/University", "VANDALISM"),
	}}

	out, stats := p.Incidents(tbl)
	if len(out) != 2 {
		t.Fatalf("expected 2 campus rows, got %d", len(out))
	}
	if stats.DroppedPremise != 1 {
		t.Errorf("expected 1 dropped row, got %d", stats.DroppedPremise)
	}
	if stats.Input != 3 || stats.Kept != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	for _, inc := range out {
		if !inc.CampusSpecific {
			t.Errorf("campus-filtered rows should be campus specific")
		}
	}
}

func TestIncidentsNeverAddRows(t *testing.T) {
	p := newTestPreprocessor()
	for _, n := range []int{0, 1, 5} {
		rows := make([]model.RawIncident, n)
		for i := range rows {
			rows[i] = rawIncident("2023-01-01", "1200", "CAMPUS", "THEFT")
		}
		out, _ := p.Incidents(dataset.IncidentTable{Rows: rows})
		if len(out) > n {
			t.Fatalf("output rows %d exceed input rows %d", len(out), n)
		}
	}
}

func TestIncidentsProxyFallback(t *testing.T) {
	cfg := config.Default()
	cfg.Preprocess.MinCampusRows = 10
	p := New(cfg.Preprocess, cfg.Survey)

	tbl := dataset.IncidentTable{Rows: []model.RawIncident{
		rawIncident("2023-04-12", "2130", "SCHOOL INTERIOR", "BURGLARY"),
		rawIncident("2023-04-12", "0915", "STREET", "ROBBERY"),
		rawIncident("2023-04-13", "1200", "PARK", "VANDALISM"),
	}}

	out, stats := p.Incidents(tbl)
	if !stats.ProxyFallback {
		t.Fatal("expected proxy fallback with too few campus rows")
	}
	if len(out) != 3 {
		t.Fatalf("proxy fallback should keep all rows, got %d", len(out))
	}
	for _, inc := range out {
		if inc.CampusSpecific {
			t.Error("proxy rows must not be campus specific")
		}
	}
}

func TestTimeFeatures(t *testing.T) {
	p := newTestPreprocessor()
	tests := []struct {
		date, tm  string
		hour      int
		weekday   int
		isNight   bool
		isWeekend bool
		bucket    model.TimeOfDay
	}{
		// 2023-04-12 is a Wednesday (weekday 3).
		{"2023-04-12", "2130", 21, 3, true, false, model.TimeNight},
		{"2023-04-12", "0915", 9, 3, false, false, model.TimeMorning},
		{"2023-04-12", "0200", 2, 3, true, false, model.TimeLateNight},
		// 2023-04-15 is a Saturday (weekday 6).
		{"2023-04-15", "1400", 14, 6, false, true, model.TimeAfternoon},
		{"2023-04-15", "1830", 18, 6, false, true, model.TimeEvening},
		// Alternate timestamp layout, hour taken from the embedded clock.
		{"04/12/2023 09:30:00 PM", "", 21, 3, true, false, model.TimeNight},
	}
	for _, tt := range tests {
		out, _ := p.Incidents(dataset.IncidentTable{Rows: []model.RawIncident{
			rawIncident(tt.date, tt.tm, "CAMPUS", "THEFT"),
		}})
		inc := out[0]
		if inc.Hour != tt.hour || inc.Weekday != tt.weekday ||
			inc.IsNight != tt.isNight || inc.IsWeekend != tt.isWeekend || inc.TimeOfDay != tt.bucket {
			t.Errorf("(%q,%q): got hour=%d weekday=%d night=%v weekend=%v bucket=%q, want %+v",
				tt.date, tt.tm, inc.Hour, inc.Weekday, inc.IsNight, inc.IsWeekend, inc.TimeOfDay, tt)
		}
	}
}

func TestUnparsableTimestampKeepsRow(t *testing.T) {
	p := newTestPreprocessor()
	out, stats := p.Incidents(dataset.IncidentTable{Rows: []model.RawIncident{
		rawIncident("not a date", "9999", "CAMPUS", "THEFT"),
	}})
	if len(out) != 1 {
		t.Fatalf("unparsable timestamp must not drop the row, got %d rows", len(out))
	}
	inc := out[0]
	if inc.HasTimeFeatures() {
		t.Error("expected null time features")
	}
	if inc.Hour != -1 || inc.Weekday != -1 || inc.TimeOfDay != model.TimeUnknown {
		t.Errorf("expected null time features, got %+v", inc)
	}
	if stats.Unparsable != 1 {
		t.Errorf("expected 1 unparsable row in stats, got %d", stats.Unparsable)
	}
	if inc.Category != model.CategoryTheftRobbery {
		t.Errorf("category must still be derived, got %q", inc.Category)
	}
}

func TestNightWindow(t *testing.T) {
	cfg := config.Default()
	cfg.Preprocess.NightStartHour = 22
	cfg.Preprocess.NightEndHour = 5
	p := New(cfg.Preprocess, cfg.Survey)

	for hour, want := range map[int]bool{21: false, 22: true, 23: true, 0: true, 4: true, 5: false, 12: false} {
		if got := p.isNight(hour); got != want {
			t.Errorf("isNight(%d) = %v, want %v", hour, got, want)
		}
	}
}

func TestIncidentsEmptyInput(t *testing.T) {
	p := newTestPreprocessor()
	out, stats := p.Incidents(dataset.IncidentTable{})
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d rows", len(out))
	}
	if stats.Input != 0 || stats.Kept != 0 {
		t.Errorf("unexpected stats for empty input: %+v", stats)
	}
}

func TestSurveysRenameAndEncode(t *testing.T) {
	p := newTestPreprocessor()
	tbl := dataset.SurveyTable{
		Columns: []string{"Age", "Gender", "Have you experienced a security incident on campus in the past 12 months?", "Are campus security patrols or vigilantes visible in your area?", "How effective do you think campus security is?", "Ignore me"},
		Rows: []map[string]string{{
			"Age":    "18-20",
			"Gender": "Female",
			"Have you experienced a security incident on campus in the past 12 months?": "Yes",
			"Are campus security patrols or vigilantes visible in your area?":           "Sometimes",
			"How effective do you think campus security is?":                            "4",
			"Ignore me": "dropped",
		}},
	}

	out, err := p.Surveys(tbl)
	if err != nil {
		t.Fatalf("Surveys: %v", err)
	}
	r := out[0]
	if r.Age != "18-20" || r.Gender != "Female" {
		t.Errorf("rename failed: %+v", r)
	}
	if r.HadIncidentScore != 1 {
		t.Errorf("expected had-incident score 1, got %v", r.HadIncidentScore)
	}
	if r.PatrolVisibleScore != 0.5 {
		t.Errorf("expected patrol score 0.5, got %v", r.PatrolVisibleScore)
	}
	if r.SecurityRating != 4 {
		t.Errorf("expected rating 4, got %d", r.SecurityRating)
	}
	// Unmapped canonical columns are created empty.
	if r.Residence != "" || r.Suggestion != "" {
		t.Errorf("absent canonical columns should be empty, got %+v", r)
	}
}

func TestSurveysCanonicalPassthrough(t *testing.T) {
	p := newTestPreprocessor()
	tbl := dataset.SurveyTable{
		Columns: []string{model.ColAge, model.ColHadIncident},
		Rows: []map[string]string{{
			model.ColAge:         "21-23",
			model.ColHadIncident: "no",
		}},
	}
	out, err := p.Surveys(tbl)
	if err != nil {
		t.Fatalf("Surveys: %v", err)
	}
	if out[0].Age != "21-23" || out[0].HadIncidentScore != 0 {
		t.Errorf("canonical passthrough failed: %+v", out[0])
	}
}

func TestSurveysSchemaMismatch(t *testing.T) {
	cfg := config.Default()
	delete(cfg.Survey.Rename, "Age")
	p := New(cfg.Preprocess, cfg.Survey)

	tbl := dataset.SurveyTable{Columns: []string{"Gender"}}
	_, err := p.Surveys(tbl)
	if err == nil {
		t.Fatal("expected schema mismatch error")
	}
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), model.ColAge) {
		t.Errorf("error should name the missing column, got %q", err.Error())
	}
}

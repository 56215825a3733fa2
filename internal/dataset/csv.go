package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tfalade/campuswatch/internal/model"
)

// Candidate source headers for each incident field, checked in order after
// normalization (trimmed, upper-cased, spaces replaced with underscores).
var incidentHeaderCandidates = map[string][]string{
	"date":    {"DATE_OCC", "DATE_OCCURRED", "DATE", "OCCURRED"},
	"time":    {"TIME_OCC", "TIME_OCCURRED", "TIME"},
	"premise": {"PREMIS_DESC", "PREMISE_DESC", "PREMISE", "LOCATION_TYPE"},
	"crime":   {"CRM_CD_DESC", "CRIME_DESC", "CRIME_TYPE", "OFFENSE"},
	"area":    {"AREA_NAME", "AREA", "DISTRICT"},
	"age":     {"VICT_AGE", "VICTIM_AGE"},
	"sex":     {"VICT_SEX", "VICTIM_SEX"},
}

// readIncidentsCSV parses an incident CSV into raw records. The header row
// is matched against known column name candidates; a file without a date
// and a crime-type column is treated as malformed.
func readIncidentsCSV(path string) ([]model.RawIncident, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header of %s: %w", path, err)
	}

	index := make(map[string]int)
	for i, h := range header {
		index[normalizeHeader(h)] = i
	}
	cols := make(map[string]int)
	for field, candidates := range incidentHeaderCandidates {
		cols[field] = -1
		for _, c := range candidates {
			if i, ok := index[c]; ok {
				cols[field] = i
				break
			}
		}
	}
	if cols["date"] < 0 || cols["crime"] < 0 {
		return nil, fmt.Errorf("dataset: %s lacks a date or crime-type column", path)
	}

	var rows []model.RawIncident
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
		}
		rows = append(rows, model.RawIncident{
			DateOccurred: field(rec, cols["date"]),
			TimeOccurred: field(rec, cols["time"]),
			Premise:      field(rec, cols["premise"]),
			CrimeType:    field(rec, cols["crime"]),
			Area:         field(rec, cols["area"]),
			VictimAge:    field(rec, cols["age"]),
			VictimSex:    field(rec, cols["sex"]),
		})
	}
	return rows, nil
}

// readSurveyCSV parses a survey export as-is: original headers, one
// header→value map per row. Column renaming is the preprocessor's job.
func readSurveyCSV(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: read header of %s: %w", path, err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("dataset: parse %s: %w", path, err)
		}
		row := make(map[string]string, len(cols))
		for i, col := range cols {
			row[col] = field(rec, i)
		}
		rows = append(rows, row)
	}
	return cols, rows, nil
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(h)), " ", "_")
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

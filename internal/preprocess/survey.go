package preprocess

import (
	"strconv"
	"strings"

	"github.com/tfalade/campuswatch/internal/dataset"
	"github.com/tfalade/campuswatch/internal/model"
)

// Surveys renames source columns to the canonical set, encodes categorical
// answers, and returns one SurveyResponse per row. Source columns outside
// the rename mapping are dropped; canonical columns absent from the source
// are created empty. A canonical column that the mapping cannot constitute
// at all is a schema mismatch.
func (p *Preprocessor) Surveys(tbl dataset.SurveyTable) ([]model.SurveyResponse, error) {
	if err := p.checkSurveySchema(tbl.Columns); err != nil {
		return nil, err
	}

	out := make([]model.SurveyResponse, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		canon := p.renameRow(row)
		out = append(out, encodeResponse(canon))
	}
	return out, nil
}

// checkSurveySchema verifies the invariant that canonical columns are a
// superset of what downstream stages reference: every canonical column must
// be a rename target or already present in the source header. With an empty
// source (synthetic fallback always carries canonical headers) this only
// trips when the configured mapping has been edited down.
func (p *Preprocessor) checkSurveySchema(sourceCols []string) error {
	available := make(map[string]bool)
	for _, dst := range p.rename {
		available[dst] = true
	}
	canonical := make(map[string]bool)
	for _, col := range model.CanonicalSurveyColumns() {
		canonical[col] = true
	}
	for _, col := range sourceCols {
		if canonical[col] {
			available[col] = true
		}
	}
	for _, col := range model.CanonicalSurveyColumns() {
		if !available[col] {
			return missingColumnError(col)
		}
	}
	return nil
}

// renameRow maps one source row to canonical column names. Already-canonical
// source columns pass through; everything else unmapped is dropped.
func (p *Preprocessor) renameRow(row map[string]string) map[string]string {
	canonical := make(map[string]bool)
	for _, col := range model.CanonicalSurveyColumns() {
		canonical[col] = true
	}
	canon := make(map[string]string, len(canonical))
	for src, val := range row {
		if dst, ok := p.rename[src]; ok {
			canon[dst] = val
		} else if canonical[src] {
			canon[src] = val
		}
	}
	return canon
}

func encodeResponse(canon map[string]string) model.SurveyResponse {
	r := model.SurveyResponse{
		Age:              canon[model.ColAge],
		Gender:           canon[model.ColGender],
		Level:            canon[model.ColLevel],
		Residence:        canon[model.ColResidence],
		HadIncident:      canon[model.ColHadIncident],
		IncidentType:     canon[model.ColIncidentType],
		IncidentLocation: canon[model.ColIncidentLocation],
		IncidentTime:     canon[model.ColIncidentTime],
		PatrolVisible:    canon[model.ColPatrolVisible],
		Suggestion:       canon[model.ColSuggestion],
		SecurityRating:   -1,
	}

	if n, err := strconv.Atoi(strings.TrimSpace(canon[model.ColSecurityRating])); err == nil && n >= 1 && n <= 5 {
		r.SecurityRating = n
	}

	switch strings.ToLower(strings.TrimSpace(r.HadIncident)) {
	case "yes":
		r.HadIncidentScore = 1
	case "no":
		r.HadIncidentScore = 0
	default:
		r.HadIncidentScore = -1
	}

	switch strings.ToLower(strings.TrimSpace(r.PatrolVisible)) {
	case "yes":
		r.PatrolVisibleScore = 1
	case "sometimes":
		r.PatrolVisibleScore = 0.5
	case "no":
		r.PatrolVisibleScore = 0
	default:
		r.PatrolVisibleScore = -1
	}
	return r
}

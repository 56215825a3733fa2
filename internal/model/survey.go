package model

// Canonical survey column names. The rename mapping in the configuration
// must target these; anything else is a schema mismatch.
const (
	ColAge              = "age"
	ColGender           = "gender"
	ColLevel            = "level"
	ColResidence        = "residence"
	ColHadIncident      = "had_incident"
	ColIncidentType     = "incident_type"
	ColIncidentLocation = "incident_location"
	ColIncidentTime     = "incident_time"
	ColPatrolVisible    = "patrol_visible"
	ColSecurityRating   = "security_rating"
	ColSuggestion       = "suggestion"
)

// CanonicalSurveyColumns returns every canonical survey column name.
func CanonicalSurveyColumns() []string {
	return []string{
		ColAge, ColGender, ColLevel, ColResidence,
		ColHadIncident, ColIncidentType, ColIncidentLocation, ColIncidentTime,
		ColPatrolVisible, ColSecurityRating, ColSuggestion,
	}
}

// SurveyResponse is one respondent's form submission after column renaming
// and response encoding.
type SurveyResponse struct {
	Age              string
	Gender           string
	Level            string
	Residence        string
	HadIncident      string
	IncidentType     string
	IncidentLocation string
	IncidentTime     string
	PatrolVisible    string
	SecurityRating   int // 1-5, -1 when missing or unparsable
	Suggestion       string

	// Encoded responses. -1 when the answer is missing or unrecognized.
	HadIncidentScore   float64 // yes=1, no=0
	PatrolVisibleScore float64 // yes=1, sometimes=0.5, no=0
}

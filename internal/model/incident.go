package model

import "time"

// RiskCategory is one of the five fixed incident buckets plus Other.
type RiskCategory string

const (
	CategoryTheftRobbery      RiskCategory = "THEFT/ROBBERY"
	CategoryAssaultViolence   RiskCategory = "ASSAULT/VIOLENCE"
	CategorySexualMisconduct  RiskCategory = "SEXUAL HARASSMENT/ASSAULT"
	CategoryVandalismTrespass RiskCategory = "VANDALISM/TRESPASSING"
	CategoryDrugRelated       RiskCategory = "DRUG-RELATED"
	CategoryOther             RiskCategory = "OTHER"
)

// Categories returns every risk category in fixed display order.
// The order doubles as the categorical encoding used by the classifier.
func Categories() []RiskCategory {
	return []RiskCategory{
		CategoryTheftRobbery,
		CategoryAssaultViolence,
		CategorySexualMisconduct,
		CategoryVandalismTrespass,
		CategoryDrugRelated,
		CategoryOther,
	}
}

// Severity maps a risk category to a 1 (low) to 3 (high) severity score.
func (c RiskCategory) Severity() int {
	switch c {
	case CategoryAssaultViolence, CategorySexualMisconduct:
		return 3
	case CategoryTheftRobbery, CategoryDrugRelated:
		return 2
	default:
		return 1
	}
}

// TimeOfDay is a coarse bucket over the hour an incident occurred.
type TimeOfDay string

const (
	TimeLateNight TimeOfDay = "Late Night" // 00:00-05:59
	TimeMorning   TimeOfDay = "Morning"    // 06:00-11:59
	TimeAfternoon TimeOfDay = "Afternoon"  // 12:00-16:59
	TimeEvening   TimeOfDay = "Evening"    // 17:00-20:59
	TimeNight     TimeOfDay = "Night"      // 21:00-23:59
	TimeUnknown   TimeOfDay = "Unknown"
)

// TimeBuckets returns the known time-of-day buckets in chronological order.
func TimeBuckets() []TimeOfDay {
	return []TimeOfDay{TimeMorning, TimeAfternoon, TimeEvening, TimeNight, TimeLateNight}
}

// RawIncident is the intermediate type produced by dataset sources and
// consumed by the preprocessor. All fields are kept as raw strings so that
// real CSV rows and synthetic rows flow through identical code.
type RawIncident struct {
	DateOccurred string // e.g. "2023-04-12" or "04/12/2023 12:00:00 AM"
	TimeOccurred string // HHMM on a 24h clock, e.g. "2130"
	Premise      string
	CrimeType    string
	Area         string
	VictimAge    string
	VictimSex    string
}

// Incident is a cleaned, feature-enriched incident record.
// Immutable after preprocessing.
type Incident struct {
	Occurred  time.Time
	Premise   string
	CrimeType string
	Area      string
	VictimAge int // -1 when unknown
	VictimSex string

	Category RiskCategory
	Severity int

	// Time features. Hour and Weekday are -1 and TimeOfDay is TimeUnknown
	// when the timestamp could not be parsed.
	Hour      int // 0-23
	Weekday   int // 0=Sunday .. 6=Saturday
	IsWeekend bool
	IsNight   bool
	TimeOfDay TimeOfDay

	// CampusSpecific is false when the record survived only via the
	// proxy-data fallback rather than the premise filter.
	CampusSpecific bool
}

// HasTimeFeatures reports whether the incident's timestamp was parsable.
func (i Incident) HasTimeFeatures() bool {
	return i.Hour >= 0
}

package dataset

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tfalade/campuswatch/internal/model"
)

// Synthetic sampling tables. Weights are statistically plausible defaults
// for an urban crime feed, tuned so the demo pipeline produces non-trivial
// category and time-of-day structure.
var (
	synCrimeTypes = []string{
		"THEFT FROM MOTOR VEHICLE", "BURGLARY", "ASSAULT WITH DEADLY WEAPON",
		"BATTERY - SIMPLE ASSAULT", "VANDALISM - FELONY", "SEX OFFENDER",
		"ROBBERY", "VEHICLE - STOLEN", "DRUG/NARCOTIC", "TRESPASSING",
	}
	synCrimeWeights = []float64{0.18, 0.12, 0.10, 0.10, 0.08, 0.07, 0.10, 0.10, 0.10, 0.05}

	synPremises = []string{
		"SCHOOL INTERIOR", "SCHOOL EXTERIOR", "COLLEGE/UNIVERSITY",
		"PARKING LOT", "STREET", "SIDEWALK", "PARK",
	}
	synPremiseWeights = []float64{0.20, 0.20, 0.15, 0.15, 0.10, 0.10, 0.10}

	synAreas = []string{"North", "South", "East", "West", "Central"}

	// Hourly incidence curve: quiet early morning, steady daytime, evening peak.
	synHourWeights = []float64{
		0.01, 0.01, 0.01, 0.01, 0.01, 0.02, 0.03, 0.05, 0.06, 0.06,
		0.06, 0.06, 0.05, 0.05, 0.05, 0.05, 0.05, 0.06, 0.07, 0.07,
		0.06, 0.05, 0.03, 0.02,
	}
)

// syntheticIncidents generates n raw incident rows from the sampling tables
// above. Deterministic for a given seed.
func syntheticIncidents(n int, seed uint64) []model.RawIncident {
	src := rand.NewPCG(seed, seed+1)

	crimeDist := distuv.NewCategorical(synCrimeWeights, src)
	premiseDist := distuv.NewCategorical(synPremiseWeights, src)
	hourDist := distuv.NewCategorical(synHourWeights, src)
	areaDist := distuv.NewCategorical(uniformWeights(len(synAreas)), src)
	sexDist := distuv.NewCategorical([]float64{0.5, 0.5}, src)

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	dateDist := distuv.Uniform{Min: 0, Max: end.Sub(start).Seconds(), Src: src}
	ageDist := distuv.Uniform{Min: 17, Max: 65, Src: src}

	sexes := []string{"M", "F"}
	rows := make([]model.RawIncident, n)
	for i := range rows {
		day := start.Add(time.Duration(dateDist.Rand()) * time.Second)
		hour := int(hourDist.Rand())
		rows[i] = model.RawIncident{
			DateOccurred: day.Format("2006-01-02"),
			TimeOccurred: fmt.Sprintf("%02d00", hour),
			Premise:      synPremises[int(premiseDist.Rand())],
			CrimeType:    synCrimeTypes[int(crimeDist.Rand())],
			Area:         synAreas[int(areaDist.Rand())],
			VictimAge:    fmt.Sprintf("%d", int(ageDist.Rand())),
			VictimSex:    sexes[int(sexDist.Rand())],
		}
	}
	return rows
}

// Survey sampling tables, mirroring the structure of the expected form export.
var (
	synAgeBands       = []string{"18-20", "21-23", "24-26", "27+"}
	synAgeWeights     = []float64{0.40, 0.35, 0.15, 0.10}
	synGenders        = []string{"Male", "Female", "Other"}
	synGenderWeights  = []float64{0.45, 0.50, 0.05}
	synLevels         = []string{"100", "200", "300", "400", "500"}
	synResidences     = []string{"On-campus", "Off-campus"}
	synResWeights     = []float64{0.55, 0.45}
	synHadIncident    = []string{"Yes", "No"}
	synHadWeights     = []float64{0.60, 0.40}
	synIncidentTypes  = []string{"Theft", "Physical assault", "Sexual harassment", "Vandalism", "Drug-related", "None"}
	synLocations      = []string{"Hostel", "Parking lot", "Library", "Lecture hall", "Sports field", "Campus gate"}
	synIncidentTimes  = []string{"Morning", "Afternoon", "Evening", "Night", "Late Night"}
	synPatrol         = []string{"Yes", "No", "Sometimes"}
	synPatrolWeights  = []float64{0.20, 0.50, 0.30}
	synSuggestions    = []string{"More lighting", "Increase patrols", "Install CCTV", "Emergency call points", "Better access control", "Student escort service"}
)

// syntheticSurvey generates n survey rows keyed by canonical column names.
// Deterministic for a given seed.
func syntheticSurvey(n int, seed uint64) ([]string, []map[string]string) {
	src := rand.NewPCG(seed, seed+2)

	age := distuv.NewCategorical(synAgeWeights, src)
	gender := distuv.NewCategorical(synGenderWeights, src)
	level := distuv.NewCategorical(uniformWeights(len(synLevels)), src)
	residence := distuv.NewCategorical(synResWeights, src)
	had := distuv.NewCategorical(synHadWeights, src)
	itype := distuv.NewCategorical(uniformWeights(len(synIncidentTypes)), src)
	loc := distuv.NewCategorical(uniformWeights(len(synLocations)), src)
	itime := distuv.NewCategorical(uniformWeights(len(synIncidentTimes)), src)
	patrol := distuv.NewCategorical(synPatrolWeights, src)
	rating := distuv.NewCategorical(uniformWeights(5), src)
	sugg := distuv.NewCategorical(uniformWeights(len(synSuggestions)), src)

	cols := model.CanonicalSurveyColumns()
	rows := make([]map[string]string, n)
	for i := range rows {
		rows[i] = map[string]string{
			model.ColAge:              synAgeBands[int(age.Rand())],
			model.ColGender:           synGenders[int(gender.Rand())],
			model.ColLevel:            synLevels[int(level.Rand())],
			model.ColResidence:        synResidences[int(residence.Rand())],
			model.ColHadIncident:      synHadIncident[int(had.Rand())],
			model.ColIncidentType:     synIncidentTypes[int(itype.Rand())],
			model.ColIncidentLocation: synLocations[int(loc.Rand())],
			model.ColIncidentTime:     synIncidentTimes[int(itime.Rand())],
			model.ColPatrolVisible:    synPatrol[int(patrol.Rand())],
			model.ColSecurityRating:   fmt.Sprintf("%d", int(rating.Rand())+1),
			model.ColSuggestion:       synSuggestions[int(sugg.Rand())],
		}
	}
	return cols, rows
}

func uniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

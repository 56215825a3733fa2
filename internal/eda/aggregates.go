// Package eda computes the descriptive aggregates of the cleaned datasets
// and renders the fixed chart set used by the report.
package eda

import (
	"github.com/tfalade/campuswatch/internal/model"
)

// Aggregates holds the incident-side descriptive statistics.
// Time-based tallies only count rows with parsed timestamps.
type Aggregates struct {
	Total       int
	ByCategory  map[model.RiskCategory]int
	ByHour      [24]int
	ByWeekday   [7]int
	ByPremise   map[string]int
	ByTimeOfDay map[model.TimeOfDay]int
	BySeverity  map[int]int
	DayHour     [7][24]int

	HighRiskCount int
	NightCount    int
	TimedCount    int // rows with time features

	WeekendTotal, WeekendHighRisk int
	WeekdayTotal, WeekdayHighRisk int
}

// Aggregate tallies the incident set. highRisk marks which categories count
// toward the high-risk rates.
func Aggregate(incidents []model.Incident, highRisk map[model.RiskCategory]bool) Aggregates {
	agg := Aggregates{
		Total:       len(incidents),
		ByCategory:  make(map[model.RiskCategory]int),
		ByPremise:   make(map[string]int),
		ByTimeOfDay: make(map[model.TimeOfDay]int),
		BySeverity:  make(map[int]int),
	}
	for _, inc := range incidents {
		agg.ByCategory[inc.Category]++
		agg.BySeverity[inc.Severity]++
		if inc.Premise != "" {
			agg.ByPremise[inc.Premise]++
		}
		hr := highRisk[inc.Category]
		if hr {
			agg.HighRiskCount++
		}
		if !inc.HasTimeFeatures() {
			continue
		}
		agg.TimedCount++
		agg.ByHour[inc.Hour]++
		agg.ByTimeOfDay[inc.TimeOfDay]++
		if inc.Weekday >= 0 && inc.Weekday < 7 {
			agg.ByWeekday[inc.Weekday]++
			agg.DayHour[inc.Weekday][inc.Hour]++
		}
		if inc.IsNight {
			agg.NightCount++
		}
		if inc.IsWeekend {
			agg.WeekendTotal++
			if hr {
				agg.WeekendHighRisk++
			}
		} else {
			agg.WeekdayTotal++
			if hr {
				agg.WeekdayHighRisk++
			}
		}
	}
	return agg
}

// CategoryShare returns the fraction of incidents in the given category.
func (a Aggregates) CategoryShare(c model.RiskCategory) float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.ByCategory[c]) / float64(a.Total)
}

// TopCategory returns the most frequent category and its share.
// Ties resolve to the earliest category in fixed order.
func (a Aggregates) TopCategory() (model.RiskCategory, float64) {
	best := model.CategoryOther
	bestN := -1
	for _, c := range model.Categories() {
		if n := a.ByCategory[c]; n > bestN {
			best, bestN = c, n
		}
	}
	return best, a.CategoryShare(best)
}

// PeakHour returns the hour with the most incidents, or -1 when no row has
// time features.
func (a Aggregates) PeakHour() int {
	if a.TimedCount == 0 {
		return -1
	}
	peak, peakN := 0, -1
	for h, n := range a.ByHour {
		if n > peakN {
			peak, peakN = h, n
		}
	}
	return peak
}

// NightShare returns the fraction of timed incidents inside the night window.
func (a Aggregates) NightShare() float64 {
	if a.TimedCount == 0 {
		return 0
	}
	return float64(a.NightCount) / float64(a.TimedCount)
}

// HighRiskShare returns the fraction of incidents in a high-risk category.
func (a Aggregates) HighRiskShare() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.HighRiskCount) / float64(a.Total)
}

// WeekendRiskRate and WeekdayRiskRate return the high-risk fraction within
// weekend and weekday incidents respectively.
func (a Aggregates) WeekendRiskRate() float64 { return ratio(a.WeekendHighRisk, a.WeekendTotal) }

func (a Aggregates) WeekdayRiskRate() float64 { return ratio(a.WeekdayHighRisk, a.WeekdayTotal) }

// SurveyAggregates holds the survey-side descriptive statistics.
type SurveyAggregates struct {
	Total        int
	HadIncident  map[string]int
	Ratings      map[int]int
	Locations    map[string]int
	Suggestions  map[string]int
	Patrol       map[string]int
	IncidentRate float64 // share answering yes
	AvgRating    float64 // mean of valid 1-5 ratings, 0 when none
	PatrolHidden float64 // share answering no
}

// AggregateSurvey tallies the survey responses.
func AggregateSurvey(responses []model.SurveyResponse) SurveyAggregates {
	agg := SurveyAggregates{
		Total:       len(responses),
		HadIncident: make(map[string]int),
		Ratings:     make(map[int]int),
		Locations:   make(map[string]int),
		Suggestions: make(map[string]int),
		Patrol:      make(map[string]int),
	}
	var yes, patrolNo, ratingSum, ratingN int
	for _, r := range responses {
		if r.HadIncident != "" {
			agg.HadIncident[r.HadIncident]++
		}
		if r.HadIncidentScore == 1 {
			yes++
		}
		if r.SecurityRating >= 1 {
			agg.Ratings[r.SecurityRating]++
			ratingSum += r.SecurityRating
			ratingN++
		}
		if r.IncidentLocation != "" {
			agg.Locations[r.IncidentLocation]++
		}
		if r.Suggestion != "" {
			agg.Suggestions[r.Suggestion]++
		}
		if r.PatrolVisible != "" {
			agg.Patrol[r.PatrolVisible]++
		}
		if r.PatrolVisibleScore == 0 {
			patrolNo++
		}
	}
	if agg.Total > 0 {
		agg.IncidentRate = float64(yes) / float64(agg.Total)
		agg.PatrolHidden = float64(patrolNo) / float64(agg.Total)
	}
	if ratingN > 0 {
		agg.AvgRating = float64(ratingSum) / float64(ratingN)
	}
	return agg
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

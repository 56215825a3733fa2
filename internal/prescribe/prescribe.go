// Package prescribe turns the descriptive and model findings into concrete
// security recommendations. A fixed rule catalog is evaluated against the
// aggregated insights; every rule whose predicate holds contributes one
// prescription, and the result is ordered by priority.
package prescribe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tfalade/campuswatch/internal/config"
	"github.com/tfalade/campuswatch/internal/eda"
	"github.com/tfalade/campuswatch/internal/model"
)

// Insights is everything the rule catalog can condition on.
type Insights struct {
	Incidents eda.Aggregates
	Survey    eda.SurveyAggregates

	// Classifier outputs. Empty when training was skipped or failed.
	FeatureNames []string
	Importances  []float64
}

// Rule is one entry in the catalog. A rule fires when its predicate holds,
// producing a prescription with the rule's recommendations.
type Rule struct {
	ID              string
	Priority        model.Priority
	When            func(in Insights, cfg config.RulesConfig) bool
	Finding         func(in Insights, cfg config.RulesConfig) string
	Recommendations []string
}

// Engine evaluates the rule catalog with configured thresholds.
type Engine struct {
	cfg   config.RulesConfig
	rules []Rule
}

// NewEngine creates an Engine over the built-in catalog.
func NewEngine(cfg config.RulesConfig) *Engine {
	return &Engine{cfg: cfg, rules: catalog()}
}

// Evaluate runs every rule and returns the fired prescriptions, highest
// priority first. Ties keep catalog order. When nothing fires, a single
// baseline prescription is returned so the report never goes out empty.
func (e *Engine) Evaluate(in Insights) []model.Prescription {
	var out []model.Prescription
	for _, r := range e.rules {
		if !r.When(in, e.cfg) {
			continue
		}
		out = append(out, model.Prescription{
			RuleID:          r.ID,
			Finding:         r.Finding(in, e.cfg),
			Priority:        r.Priority,
			Recommendations: r.Recommendations,
		})
	}
	if len(out) == 0 {
		return []model.Prescription{baseline()}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// TopFeatures returns the k most important model features, descending.
func (in Insights) TopFeatures(k int) []string {
	if len(in.FeatureNames) == 0 || len(in.FeatureNames) != len(in.Importances) {
		return nil
	}
	order := make([]int, len(in.FeatureNames))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return in.Importances[order[i]] > in.Importances[order[j]] })
	if k > len(order) {
		k = len(order)
	}
	names := make([]string, k)
	for i := 0; i < k; i++ {
		names[i] = in.FeatureNames[order[i]]
	}
	return names
}

func baseline() model.Prescription {
	return model.Prescription{
		RuleID:   "baseline",
		Finding:  "No specific risk pattern detected in the current data.",
		Priority: model.PriorityLow,
		Recommendations: []string{
			"Maintain current security operations and patrol schedules.",
			"Continue collecting incident and survey data for future analysis.",
		},
	}
}

// categoryRule fires when one category dominates the incident mix.
func categoryRule(id string, cat model.RiskCategory, prio model.Priority, recs []string) Rule {
	return Rule{
		ID:       id,
		Priority: prio,
		When: func(in Insights, cfg config.RulesConfig) bool {
			return in.Incidents.Total > 0 && in.Incidents.CategoryShare(cat) >= cfg.CategoryShare
		},
		Finding: func(in Insights, _ config.RulesConfig) string {
			return fmt.Sprintf("%s accounts for %.0f%% of recorded incidents.",
				cat, 100*in.Incidents.CategoryShare(cat))
		},
		Recommendations: recs,
	}
}

func catalog() []Rule {
	rules := []Rule{
		categoryRule("dominant-theft", model.CategoryTheftRobbery, model.PriorityHigh, []string{
			"Install additional CCTV coverage in hostels, libraries and parking areas.",
			"Run an awareness campaign on securing phones, laptops and bags.",
			"Introduce lockers or secure storage at high-traffic study areas.",
		}),
		categoryRule("dominant-assault", model.CategoryAssaultViolence, model.PriorityHigh, []string{
			"Increase uniformed patrol presence at known flashpoints.",
			"Improve lighting along walkways between halls and lecture areas.",
			"Publicize emergency contact points and response procedures.",
		}),
		categoryRule("dominant-sexual", model.CategorySexualMisconduct, model.PriorityHigh, []string{
			"Expand confidential reporting channels and survivor support services.",
			"Run mandatory prevention and bystander-intervention training.",
			"Audit lighting and sight lines on routes students use after dark.",
		}),
		categoryRule("dominant-vandalism", model.CategoryVandalismTrespass, model.PriorityMedium, []string{
			"Harden perimeter access control at frequently trespassed entry points.",
			"Schedule rapid repair of vandalized fixtures to deter repeat damage.",
		}),
		categoryRule("dominant-drug", model.CategoryDrugRelated, model.PriorityMedium, []string{
			"Coordinate with counseling services on substance-abuse outreach.",
			"Target patrols at locations flagged in drug-related reports.",
		}),
		{
			ID:       "night-concentration",
			Priority: model.PriorityHigh,
			When: func(in Insights, cfg config.RulesConfig) bool {
				return in.Incidents.TimedCount > 0 && in.Incidents.NightShare() >= cfg.NightShare
			},
			Finding: func(in Insights, _ config.RulesConfig) string {
				return fmt.Sprintf("%.0f%% of timed incidents fall inside the night window (peak hour %02d:00).",
					100*in.Incidents.NightShare(), in.Incidents.PeakHour())
			},
			Recommendations: []string{
				"Shift patrol rosters to concentrate coverage on night hours.",
				"Extend safe-escort services to cover the full night window.",
				"Audit and repair outdoor lighting across campus.",
			},
		},
		{
			ID:       "weekend-risk",
			Priority: model.PriorityMedium,
			When: func(in Insights, cfg config.RulesConfig) bool {
				wd := in.Incidents.WeekdayRiskRate()
				return wd > 0 && in.Incidents.WeekendRiskRate() >= cfg.WeekendRatio*wd
			},
			Finding: func(in Insights, _ config.RulesConfig) string {
				return fmt.Sprintf("High-risk incidents are %.1fx more frequent on weekends than weekdays.",
					in.Incidents.WeekendRiskRate()/in.Incidents.WeekdayRiskRate())
			},
			Recommendations: []string{
				"Add weekend patrol shifts, especially around social venues.",
				"Coordinate with event organizers on security for weekend gatherings.",
			},
		},
		{
			ID:       "patrol-invisible",
			Priority: model.PriorityMedium,
			When: func(in Insights, cfg config.RulesConfig) bool {
				return in.Survey.Total > 0 && in.Survey.PatrolHidden >= cfg.PatrolHiddenRate
			},
			Finding: func(in Insights, _ config.RulesConfig) string {
				return fmt.Sprintf("%.0f%% of surveyed students report never seeing security patrols.",
					100*in.Survey.PatrolHidden)
			},
			Recommendations: []string{
				"Make patrol routes visible and predictable in residential areas.",
				"Publish patrol coverage so students know where and when to expect it.",
			},
		},
		{
			ID:       "low-confidence",
			Priority: model.PriorityMedium,
			When: func(in Insights, cfg config.RulesConfig) bool {
				return in.Survey.AvgRating > 0 && in.Survey.AvgRating < cfg.RatingBelow
			},
			Finding: func(in Insights, _ config.RulesConfig) string {
				return fmt.Sprintf("Average perceived security effectiveness is %.1f out of 5.",
					in.Survey.AvgRating)
			},
			Recommendations: []string{
				"Hold regular town halls between security leadership and students.",
				"Report response times and case outcomes back to the community.",
			},
		},
		{
			ID:       "model-drivers",
			Priority: model.PriorityLow,
			When: func(in Insights, cfg config.RulesConfig) bool {
				return len(in.Importances) > 0 && cfg.TopFeatures > 0
			},
			Finding: func(in Insights, cfg config.RulesConfig) string {
				return fmt.Sprintf("The classifier ranks %s as the strongest risk signals.",
					strings.Join(in.TopFeatures(cfg.TopFeatures), ", "))
			},
			Recommendations: []string{
				"Weight patrol planning by the model's strongest risk signals.",
				"Re-train the classifier as new incident data accumulates.",
			},
		},
	}
	return rules
}

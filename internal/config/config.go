package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tfalade/campuswatch/internal/model"
)

// Config holds all campuswatch configuration.
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Output     OutputConfig     `yaml:"output"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Survey     SurveyConfig     `yaml:"survey"`
	Model      ModelConfig      `yaml:"model"`
	Rules      RulesConfig      `yaml:"rules"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DataConfig locates the two input files and sizes the synthetic fallback.
type DataConfig struct {
	IncidentsPath      string `yaml:"incidents_path"`
	SurveyPath         string `yaml:"survey_path"`
	SyntheticIncidents int    `yaml:"synthetic_incidents"`
	SyntheticResponses int    `yaml:"synthetic_responses"`
}

// OutputConfig holds the artifact root directory.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// CategoryKeywords maps raw crime-type keywords to one risk category.
// Entries are checked in order; the first category with a matching keyword wins.
type CategoryKeywords struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// PreprocessConfig holds the filtering and feature extraction knobs.
type PreprocessConfig struct {
	PremiseAllowlist []string           `yaml:"premise_allowlist"`
	CategoryKeywords []CategoryKeywords `yaml:"category_keywords"`

	// MinCampusRows is the proxy-data threshold: when fewer rows survive
	// the premise filter, the full dataset is kept instead and rows are
	// marked as not campus-specific.
	MinCampusRows int `yaml:"min_campus_rows"`

	// Night window: hours >= NightStartHour or < NightEndHour count as night.
	NightStartHour int `yaml:"night_start_hour"`
	NightEndHour   int `yaml:"night_end_hour"`
}

// SurveyConfig maps source survey column headers to canonical names.
type SurveyConfig struct {
	Rename map[string]string `yaml:"rename"`
}

// ModelConfig holds classifier training settings.
type ModelConfig struct {
	Seed               uint64   `yaml:"seed"`
	TestRatio          float64  `yaml:"test_ratio"`
	Trees              int      `yaml:"trees"`
	MaxDepth           int      `yaml:"max_depth"`
	MinLeaf            int      `yaml:"min_leaf"`
	HighRiskCategories []string `yaml:"high_risk_categories"`
}

// RulesConfig holds the prescription trigger thresholds.
type RulesConfig struct {
	CategoryShare    float64 `yaml:"category_share"`
	NightShare       float64 `yaml:"night_share"`
	WeekendRatio     float64 `yaml:"weekend_ratio"`
	PatrolHiddenRate float64 `yaml:"patrol_hidden_rate"`
	RatingBelow      float64 `yaml:"rating_below"`
	TopFeatures      int     `yaml:"top_features"`
}

// LoggingConfig selects log level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the built-in configuration. Every value can be overridden
// by the YAML file or a CAMPUSWATCH_* environment variable.
func Default() Config {
	return Config{
		Data: DataConfig{
			IncidentsPath:      "data/raw/crime_data.csv",
			SurveyPath:         "data/raw/survey_data.csv",
			SyntheticIncidents: 5000,
			SyntheticResponses: 40,
		},
		Output: OutputConfig{Dir: "out"},
		Preprocess: PreprocessConfig{
			PremiseAllowlist: []string{"SCHOOL", "COLLEGE", "UNIVERSITY", "CAMPUS"},
			CategoryKeywords: []CategoryKeywords{
				{Category: string(model.CategoryTheftRobbery), Keywords: []string{"THEFT", "BURGLARY", "STOLEN", "ROBBERY", "PICKPOCKET"}},
				{Category: string(model.CategoryAssaultViolence), Keywords: []string{"ASSAULT", "BATTERY", "FIGHT", "ATTACK", "AGGRAVATED"}},
				{Category: string(model.CategorySexualMisconduct), Keywords: []string{"SEX", "RAPE", "HARASS", "MOLEST", "INDECENT"}},
				{Category: string(model.CategoryVandalismTrespass), Keywords: []string{"VANDAL", "DAMAGE", "TRESPASS", "GRAFFITI"}},
				{Category: string(model.CategoryDrugRelated), Keywords: []string{"DRUG", "NARCO", "SUBSTANCE"}},
			},
			MinCampusRows:  100,
			NightStartHour: 20,
			NightEndHour:   6,
		},
		Survey: SurveyConfig{
			Rename: map[string]string{
				"Age":           model.ColAge,
				"Gender":        model.ColGender,
				"Current level": model.ColLevel,
				"Residence":     model.ColResidence,
				"Have you experienced a security incident on campus in the past 12 months?": model.ColHadIncident,
				"If yes, what type of incident?":                                            model.ColIncidentType,
				"Where did the incident(s) occur?":                                          model.ColIncidentLocation,
				"Time of day of incident(s)":                                                model.ColIncidentTime,
				"Are campus security patrols or vigilantes visible in your area?":           model.ColPatrolVisible,
				"How effective do you think campus security is?":                            model.ColSecurityRating,
				"What measures will make you feel safer?":                                   model.ColSuggestion,
			},
		},
		Model: ModelConfig{
			Seed:      42,
			TestRatio: 0.2,
			Trees:     150,
			MaxDepth:  12,
			MinLeaf:   10,
			HighRiskCategories: []string{
				string(model.CategoryTheftRobbery),
				string(model.CategoryAssaultViolence),
				string(model.CategorySexualMisconduct),
				string(model.CategoryDrugRelated),
			},
		},
		Rules: RulesConfig{
			CategoryShare:    0.5,
			NightShare:       0.4,
			WeekendRatio:     1.1,
			PatrolHiddenRate: 0.5,
			RatingBelow:      3.0,
			TopFeatures:      3,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration: defaults, overlaid with the YAML file at
// path (if non-empty), overlaid with CAMPUSWATCH_* environment variables.
// The result is validated before being returned.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.Data.IncidentsPath = getenv("CAMPUSWATCH_INCIDENTS", cfg.Data.IncidentsPath)
	cfg.Data.SurveyPath = getenv("CAMPUSWATCH_SURVEY", cfg.Data.SurveyPath)
	cfg.Output.Dir = getenv("CAMPUSWATCH_OUT", cfg.Output.Dir)
	cfg.Model.Seed = getenvUint64("CAMPUSWATCH_SEED", cfg.Model.Seed)
	cfg.Logging.Level = getenv("CAMPUSWATCH_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getenv("CAMPUSWATCH_LOG_FORMAT", cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and that every mapping targets a known
// canonical column or category.
func (c Config) Validate() error {
	if c.Model.TestRatio <= 0 || c.Model.TestRatio >= 1 {
		return fmt.Errorf("config: test_ratio must be in (0,1), got %v", c.Model.TestRatio)
	}
	if c.Model.Trees <= 0 {
		return fmt.Errorf("config: trees must be positive, got %d", c.Model.Trees)
	}
	if c.Preprocess.NightStartHour < 0 || c.Preprocess.NightStartHour > 23 ||
		c.Preprocess.NightEndHour < 0 || c.Preprocess.NightEndHour > 23 {
		return fmt.Errorf("config: night hours must be 0-23, got start=%d end=%d",
			c.Preprocess.NightStartHour, c.Preprocess.NightEndHour)
	}

	canonical := make(map[string]bool)
	for _, col := range model.CanonicalSurveyColumns() {
		canonical[col] = true
	}
	for src, dst := range c.Survey.Rename {
		if !canonical[dst] {
			return fmt.Errorf("config: rename %q targets unknown canonical column %q", src, dst)
		}
	}

	known := make(map[string]bool)
	for _, cat := range model.Categories() {
		known[string(cat)] = true
	}
	for _, entry := range c.Preprocess.CategoryKeywords {
		if !known[entry.Category] {
			return fmt.Errorf("config: category_keywords references unknown category %q", entry.Category)
		}
	}
	for _, cat := range c.Model.HighRiskCategories {
		if !known[cat] {
			return fmt.Errorf("config: high_risk_categories references unknown category %q", cat)
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvUint64(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

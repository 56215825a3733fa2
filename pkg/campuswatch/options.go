package campuswatch

type options struct {
	configPath    string
	incidentsPath string
	surveyPath    string
	outputDir     string
	seed          uint64
	seedSet       bool
	logLevel      string
	logFormat     string
}

// Option configures an Analyzer.
type Option func(*options)

// WithConfigFile loads settings from a YAML file before applying the other
// options.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithIncidentsFile sets the incident CSV path.
func WithIncidentsFile(path string) Option {
	return func(o *options) { o.incidentsPath = path }
}

// WithSurveyFile sets the survey CSV path.
func WithSurveyFile(path string) Option {
	return func(o *options) { o.surveyPath = path }
}

// WithOutputDir sets the artifact output directory. Default: "out".
func WithOutputDir(dir string) Option {
	return func(o *options) { o.outputDir = dir }
}

// WithSeed pins the random seed used for synthetic data and training.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seedSet = true
	}
}

// WithLogging sets the slog level ("debug", "info", "warn", "error") and
// handler format ("text" or "json").
func WithLogging(level, format string) Option {
	return func(o *options) {
		o.logLevel = level
		o.logFormat = format
	}
}

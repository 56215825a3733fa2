package classify

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/tfalade/campuswatch/internal/classify/forest"
	"github.com/tfalade/campuswatch/internal/config"
	"github.com/tfalade/campuswatch/internal/model"
)

// ErrDegenerateTrainingData reports a training set the classifier cannot be
// fitted on: no usable rows, or every row carrying the same label.
var ErrDegenerateTrainingData = errors.New("degenerate training data")

// Metrics holds the held-out evaluation of a fitted model.
type Metrics struct {
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	AUC       float64 `json:"auc"`

	// Confusion[actual][predicted] over the test set.
	Confusion [2][2]int `json:"confusion"`

	// ROC curve points, aligned pairwise. Empty when the test split carries
	// a single class.
	FPR []float64 `json:"fpr"`
	TPR []float64 `json:"tpr"`
}

// Model is a fitted, persistable classifier.
type Model struct {
	ID                 string         `json:"id"`
	SchemaVersion      int            `json:"schema_version"`
	CreatedAt          time.Time      `json:"created_at"`
	FeatureNames       []string       `json:"feature_names"`
	HighRiskCategories []string       `json:"high_risk_categories"`
	Forest             *forest.Forest `json:"forest"`
}

// PredictProba returns the high-risk probability for one feature vector.
func (m *Model) PredictProba(x []float64) float64 { return m.Forest.PredictProba(x) }

// Predict returns 1 when the incident is classified high-risk.
func (m *Model) Predict(x []float64) int { return m.Forest.Predict(x) }

// FeatureImportances returns normalized Gini importances aligned with
// FeatureNames.
func (m *Model) FeatureImportances() []float64 { return m.Forest.Importances }

// Trainer fits the high-risk classifier from configured hyperparameters.
type Trainer struct {
	cfg      config.ModelConfig
	highRisk map[model.RiskCategory]bool
}

// NewTrainer creates a Trainer from the model configuration.
func NewTrainer(cfg config.ModelConfig) *Trainer {
	highRisk := make(map[model.RiskCategory]bool, len(cfg.HighRiskCategories))
	for _, c := range cfg.HighRiskCategories {
		highRisk[model.RiskCategory(c)] = true
	}
	return &Trainer{cfg: cfg, highRisk: highRisk}
}

// HighRisk returns the configured high-risk category set.
func (t *Trainer) HighRisk() map[model.RiskCategory]bool { return t.highRisk }

// Train fits a forest on a stratified split of the incidents and evaluates it
// on the held-out portion. Fails with ErrDegenerateTrainingData when the
// incidents cannot support a binary fit.
func (t *Trainer) Train(incidents []model.Incident) (*Model, Metrics, error) {
	X, y := Matrix(incidents, t.highRisk)
	if len(X) == 0 {
		return nil, Metrics{}, fmt.Errorf("classify: %w: no rows with time features", ErrDegenerateTrainingData)
	}

	trainIdx, testIdx := t.split(y)

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = X[idx]
		trainY[i] = y[idx]
	}

	f, err := forest.Fit(trainX, trainY, forest.Config{
		Trees:    t.cfg.Trees,
		MaxDepth: t.cfg.MaxDepth,
		MinLeaf:  t.cfg.MinLeaf,
		Seed:     t.cfg.Seed,
	})
	if err != nil {
		if errors.Is(err, forest.ErrSingleClass) {
			return nil, Metrics{}, fmt.Errorf("classify: %w: %v", ErrDegenerateTrainingData, err)
		}
		return nil, Metrics{}, fmt.Errorf("classify: fit: %w", err)
	}

	m := &Model{
		ID:                 uuid.NewString(),
		SchemaVersion:      schemaVersion,
		CreatedAt:          time.Now().UTC(),
		FeatureNames:       FeatureNames(),
		HighRiskCategories: t.cfg.HighRiskCategories,
		Forest:             f,
	}

	metrics := evaluate(m, X, y, testIdx)
	metrics.TrainRows = len(trainIdx)
	metrics.TestRows = len(testIdx)
	return m, metrics, nil
}

// split partitions row indices into train and test, stratified by label so
// both classes appear on both sides whenever the data allows it.
func (t *Trainer) split(y []int) (train, test []int) {
	rng := rand.New(rand.NewPCG(t.cfg.Seed, t.cfg.Seed^0x9e3779b97f4a7c15))

	var byClass [2][]int
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	for _, class := range byClass {
		rng.Shuffle(len(class), func(i, j int) {
			class[i], class[j] = class[j], class[i]
		})
		nTest := int(float64(len(class)) * t.cfg.TestRatio)
		if nTest == 0 && len(class) > 1 {
			nTest = 1
		}
		test = append(test, class[:nTest]...)
		train = append(train, class[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// evaluate scores the model over the test indices.
func evaluate(m *Model, X [][]float64, y []int, testIdx []int) Metrics {
	var metrics Metrics
	if len(testIdx) == 0 {
		return metrics
	}

	scores := make([]float64, len(testIdx))
	classes := make([]bool, len(testIdx))
	for i, idx := range testIdx {
		scores[i] = m.PredictProba(X[idx])
		classes[i] = y[idx] == 1
		pred := 0
		if scores[i] >= 0.5 {
			pred = 1
		}
		metrics.Confusion[y[idx]][pred]++
	}

	tp := metrics.Confusion[1][1]
	tn := metrics.Confusion[0][0]
	fp := metrics.Confusion[0][1]
	fn := metrics.Confusion[1][0]

	metrics.Accuracy = ratio(tp+tn, len(testIdx))
	metrics.Precision = ratio(tp, tp+fp)
	metrics.Recall = ratio(tp, tp+fn)
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}

	// stat.ROC needs scores sorted ascending with labels kept aligned.
	if hasBothClasses(classes) {
		order := make([]int, len(scores))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(i, j int) bool { return scores[order[i]] < scores[order[j]] })
		sortedScores := make([]float64, len(order))
		sortedClasses := make([]bool, len(order))
		for i, o := range order {
			sortedScores[i] = scores[o]
			sortedClasses[i] = classes[o]
		}
		tpr, fpr, _ := stat.ROC(nil, sortedScores, sortedClasses, nil)
		metrics.TPR = tpr
		metrics.FPR = fpr
		metrics.AUC = integrate.Trapezoidal(fpr, tpr)
	}
	return metrics
}

func hasBothClasses(classes []bool) bool {
	var pos, neg bool
	for _, c := range classes {
		if c {
			pos = true
		} else {
			neg = true
		}
	}
	return pos && neg
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

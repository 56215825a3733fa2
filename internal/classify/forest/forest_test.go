package forest

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"
)

// separableSet builds a two-feature dataset where class 1 lives above x0=0.5
// with a little noise, so any reasonable forest should learn it.
func separableSet(n int, seed uint64) ([][]float64, []int) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		x0 := rng.Float64()
		x1 := rng.Float64()
		X[i] = []float64{x0, x1}
		if x0 > 0.5 {
			y[i] = 1
		}
	}
	return X, y
}

func TestFitRejectsSingleClass(t *testing.T) {
	X := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	y := []int{1, 1, 1}
	if _, err := Fit(X, y, Config{Trees: 5}); !errors.Is(err, ErrSingleClass) {
		t.Fatalf("expected ErrSingleClass, got %v", err)
	}
	if _, err := Fit(nil, nil, Config{Trees: 5}); !errors.Is(err, ErrSingleClass) {
		t.Fatalf("expected ErrSingleClass for empty set, got %v", err)
	}
}

func TestFitRejectsMismatchedLabels(t *testing.T) {
	X := [][]float64{{1}, {2}}
	if _, err := Fit(X, []int{0}, Config{Trees: 5}); err == nil {
		t.Fatal("expected error for mismatched rows and labels")
	}
	if _, err := Fit(X, []int{0, 2}, Config{Trees: 5}); err == nil {
		t.Fatal("expected error for non-binary label")
	}
}

func TestFitLearnsSeparableData(t *testing.T) {
	X, y := separableSet(400, 7)
	f, err := Fit(X, y, Config{Trees: 25, MaxDepth: 8, MinLeaf: 2, Seed: 42})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	var correct int
	for i := range X {
		if f.Predict(X[i]) == y[i] {
			correct++
		}
	}
	if acc := float64(correct) / float64(len(X)); acc < 0.95 {
		t.Errorf("training accuracy %.3f below 0.95", acc)
	}

	// The split feature carries essentially all the signal.
	if f.Importances[0] < f.Importances[1] {
		t.Errorf("expected feature 0 to dominate importances, got %v", f.Importances)
	}
}

func TestFitIsDeterministic(t *testing.T) {
	X, y := separableSet(120, 3)
	cfg := Config{Trees: 10, MaxDepth: 6, MinLeaf: 2, Seed: 99}

	a, err := Fit(X, y, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	b, err := Fit(X, y, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed must produce identical forests")
	}

	cfg.Seed = 100
	c, err := Fit(X, y, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if reflect.DeepEqual(a, c) {
		t.Fatal("different seeds should produce different forests")
	}
}

func TestPredictProbaBounds(t *testing.T) {
	X, y := separableSet(100, 11)
	f, err := Fit(X, y, Config{Trees: 10, MaxDepth: 5, MinLeaf: 2, Seed: 1})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for _, x := range X {
		p := f.PredictProba(x)
		if p < 0 || p > 1 {
			t.Fatalf("probability %v out of [0,1]", p)
		}
	}
}

func TestImportancesSumToOne(t *testing.T) {
	X, y := separableSet(150, 5)
	f, err := Fit(X, y, Config{Trees: 15, MaxDepth: 6, MinLeaf: 2, Seed: 8})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	var sum float64
	for _, v := range f.Importances {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("importances sum to %v, want 1", sum)
	}
}

func TestJSONRoundTripPreservesPredictions(t *testing.T) {
	X, y := separableSet(100, 21)
	f, err := Fit(X, y, Config{Trees: 8, MaxDepth: 6, MinLeaf: 2, Seed: 4})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var loaded Forest
	if err := json.Unmarshal(raw, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, x := range X {
		if f.PredictProba(x) != loaded.PredictProba(x) {
			t.Fatal("loaded forest predicts differently")
		}
	}
}

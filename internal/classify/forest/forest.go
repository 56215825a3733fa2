// Package forest implements a small random-forest classifier for binary
// targets: bootstrap-sampled CART trees with Gini splitting, feature
// subsampling, and probability averaging. Training is deterministic for a
// given seed, and fitted forests serialize to JSON.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// ErrSingleClass reports training data whose target has fewer than two classes.
var ErrSingleClass = errors.New("training data has a single class")

// Config holds the forest hyperparameters.
type Config struct {
	Trees    int    `json:"trees"`
	MaxDepth int    `json:"max_depth"`
	MinLeaf  int    `json:"min_leaf"`
	Seed     uint64 `json:"seed"`
}

// Node is one decision node. Feature is -1 on leaves, where Prob holds the
// positive-class probability.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Prob      float64 `json:"prob"`
}

// Tree is a single fitted decision tree; Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is a fitted ensemble.
type Forest struct {
	Config      Config    `json:"config"`
	NumFeatures int       `json:"num_features"`
	Trees       []Tree    `json:"trees"`
	Importances []float64 `json:"importances"`
}

// Fit trains a forest on X (rows of feature vectors) and binary labels y.
func Fit(X [][]float64, y []int, cfg Config) (*Forest, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("forest: %w: empty training set", ErrSingleClass)
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("forest: %d rows but %d labels", len(X), len(y))
	}
	var pos int
	for _, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("forest: label %d is not binary", label)
		}
		pos += label
	}
	if pos == 0 || pos == len(y) {
		return nil, fmt.Errorf("forest: %w", ErrSingleClass)
	}

	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 1
	}

	numFeatures := len(X[0])
	mtry := max(1, int(math.Sqrt(float64(numFeatures))))

	f := &Forest{
		Config:      cfg,
		NumFeatures: numFeatures,
		Trees:       make([]Tree, cfg.Trees),
		Importances: make([]float64, numFeatures),
	}

	for t := 0; t < cfg.Trees; t++ {
		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(t)+1))
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.IntN(len(X))
		}
		b := &builder{
			X: X, y: y, cfg: cfg, rng: rng,
			mtry: mtry, total: len(sample), importances: f.Importances,
		}
		b.grow(sample, 0)
		f.Trees[t] = Tree{Nodes: b.nodes}
	}

	// Normalize accumulated impurity decreases to sum to one.
	var sum float64
	for _, v := range f.Importances {
		sum += v
	}
	if sum > 0 {
		for i := range f.Importances {
			f.Importances[i] /= sum
		}
	}
	return f, nil
}

// PredictProba returns the mean positive-class probability across trees.
func (f *Forest) PredictProba(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Predict returns the majority-probability class label.
func (f *Forest) Predict(x []float64) int {
	if f.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Prob
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// builder grows one tree over a bootstrap sample.
type builder struct {
	X           [][]float64
	y           []int
	cfg         Config
	rng         *rand.Rand
	mtry        int
	total       int
	nodes       []Node
	importances []float64
}

// grow appends the subtree for the given sample rows and returns its node index.
func (b *builder) grow(rows []int, depth int) int {
	var pos int
	for _, r := range rows {
		pos += b.y[r]
	}
	prob := float64(pos) / float64(len(rows))

	idx := len(b.nodes)
	if depth >= b.cfg.MaxDepth || len(rows) < 2*b.cfg.MinLeaf || pos == 0 || pos == len(rows) {
		b.nodes = append(b.nodes, Node{Feature: -1, Prob: prob})
		return idx
	}

	feature, threshold, decrease, ok := b.bestSplit(rows, prob)
	if !ok {
		b.nodes = append(b.nodes, Node{Feature: -1, Prob: prob})
		return idx
	}
	b.importances[feature] += decrease * float64(len(rows)) / float64(b.total)

	var left, right []int
	for _, r := range rows {
		if b.X[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	b.nodes = append(b.nodes, Node{Feature: feature, Threshold: threshold})
	li := b.grow(left, depth+1)
	ri := b.grow(right, depth+1)
	b.nodes[idx].Left = li
	b.nodes[idx].Right = ri
	return idx
}

// bestSplit scans a random feature subset for the threshold with the best
// Gini impurity decrease, honoring the min-leaf constraint.
func (b *builder) bestSplit(rows []int, parentProb float64) (feature int, threshold, decrease float64, ok bool) {
	parentGini := gini(parentProb)
	n := len(rows)

	perm := b.rng.Perm(len(b.X[0]))
	bestDecrease := 0.0
	for _, feat := range perm[:b.mtry] {
		sorted := make([]int, n)
		copy(sorted, rows)
		sortByFeature(sorted, b.X, feat)

		var leftPos int
		totalPos := 0
		for _, r := range sorted {
			totalPos += b.y[r]
		}
		for i := 0; i < n-1; i++ {
			leftPos += b.y[sorted[i]]
			// Skip non-boundaries between equal feature values.
			if b.X[sorted[i]][feat] == b.X[sorted[i+1]][feat] {
				continue
			}
			nl := i + 1
			nr := n - nl
			if nl < b.cfg.MinLeaf || nr < b.cfg.MinLeaf {
				continue
			}
			gl := gini(float64(leftPos) / float64(nl))
			gr := gini(float64(totalPos-leftPos) / float64(nr))
			d := parentGini - (float64(nl)*gl+float64(nr)*gr)/float64(n)
			if d > bestDecrease {
				bestDecrease = d
				feature = feat
				threshold = (b.X[sorted[i]][feat] + b.X[sorted[i+1]][feat]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, bestDecrease, ok
}

func gini(p float64) float64 {
	return 1 - p*p - (1-p)*(1-p)
}

// sortByFeature orders rows by feature value, tie-breaking on row index so
// splits are reproducible.
func sortByFeature(rows []int, X [][]float64, feat int) {
	slices.SortFunc(rows, func(a, b int) int {
		va, vb := X[a][feat], X[b][feat]
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		default:
			return a - b
		}
	})
}

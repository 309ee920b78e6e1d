package predict

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/carbocation/neoantigen"
	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/floats"
)

// Tree is one decision tree in scikit-learn's array layout: node i splits on
// Feature[i] at Threshold[i], sending x[Feature[i]] <= Threshold[i] to
// ChildrenLeft[i] and everything else to ChildrenRight[i]. Leaves have a left
// child of -1. Value[i] holds the class weights at node i.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Forest is a random forest classifier exported from training together with
// the feature order and the category lists used to encode it.
type Forest struct {
	Features []string `json:"features"`
	Classes  []string `json:"classes"`

	// PositiveClass indexes Classes; nil means 1
	PositiveClass *int `json:"positive_class,omitempty"`

	// Categories maps each categorical feature to its classes in code order
	Categories map[string][]string `json:"categories,omitempty"`

	Trees []Tree `json:"trees"`
}

// LoadForest reads a JSON forest from a local or gs:// path.
func LoadForest(ctx context.Context, path string, client *storage.Client) (*Forest, error) {
	data, err := neoantigen.ReadAll(ctx, path, client)
	if err != nil {
		return nil, err
	}

	f := &Forest{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	if err := f.Validate(); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return f, nil
}

// Validate checks that every tree is internally consistent with the forest.
func (f *Forest) Validate() error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	if len(f.Features) == 0 {
		return fmt.Errorf("forest has no features")
	}
	if len(f.Classes) < 2 {
		return fmt.Errorf("forest needs at least 2 classes, has %d", len(f.Classes))
	}
	if pos := f.positive(); pos < 0 || pos >= len(f.Classes) {
		return fmt.Errorf("positive class %d out of range", pos)
	}

	for ti, t := range f.Trees {
		n := len(t.ChildrenLeft)
		if n == 0 || len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
			return fmt.Errorf("tree %d: node arrays differ in length", ti)
		}

		for i := 0; i < n; i++ {
			if len(t.Value[i]) != len(f.Classes) {
				return fmt.Errorf("tree %d node %d: %d values for %d classes", ti, i, len(t.Value[i]), len(f.Classes))
			}
			if t.ChildrenLeft[i] < 0 {
				continue
			}
			if t.ChildrenLeft[i] <= i || t.ChildrenLeft[i] >= n || t.ChildrenRight[i] <= i || t.ChildrenRight[i] >= n {
				return fmt.Errorf("tree %d node %d: child out of range", ti, i)
			}
			if t.Feature[i] < 0 || t.Feature[i] >= len(f.Features) {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, i, t.Feature[i])
			}
		}
	}

	return nil
}

func (f *Forest) positive() int {
	if f.PositiveClass == nil {
		return 1
	}

	return *f.PositiveClass
}

// FeatureNames returns the columns the forest expects, in order.
func (f *Forest) FeatureNames() []string {
	return f.Features
}

// CategoryLists returns the encodings stored with the forest.
func (f *Forest) CategoryLists() map[string][]string {
	return f.Categories
}

// Probability returns the mean over trees of the positive class share at the
// leaf x falls in.
func (f *Forest) Probability(x []float64) float64 {
	pos := f.positive()

	probs := make([]float64, len(f.Trees))
	for i, t := range f.Trees {
		leaf := t.Value[t.leaf(x)]
		if total := floats.Sum(leaf); total > 0 {
			probs[i] = leaf[pos] / total
		}
	}

	return floats.Sum(probs) / float64(len(probs))
}

func (t Tree) leaf(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] >= 0 {
		// Training compared float32 copies of the features
		if float64(float32(x[t.Feature[node]])) <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}

	return node
}

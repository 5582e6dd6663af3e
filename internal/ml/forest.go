package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ForestConfig controls random forest training.
type ForestConfig struct {
	Trees int
	Seed  int64
	// MaxFeatures is the number of features considered per split; 0 means sqrt(features).
	MaxFeatures int
	// Parallelism caps concurrent tree fits; 0 means GOMAXPROCS.
	Parallelism int
	// Run executes one tree fit. Nil runs it on the calling goroutine.
	Run Runner
}

// Runner executes fn, typically on a bounded pool.
type Runner func(ctx context.Context, fn func(context.Context) error) error

// Forest is a bagged ensemble of classification trees. Prediction averages the trees' class
// distributions.
type Forest struct {
	trees   []*Tree
	classes []int
}

// FitForest trains a forest on x and y. Each tree gets its own seed drawn from cfg.Seed before
// any tree is fit, so the result does not depend on scheduling.
func FitForest(ctx context.Context, x [][]float64, y []int, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("ml: need matching non-empty inputs, got %d rows and %d labels", len(x), len(y))
	}
	if cfg.Trees <= 0 {
		return nil, errors.New("ml: forest needs at least one tree")
	}

	classes, encoded := encodeClasses(y)
	nFeatures := len(x[0])
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(nFeatures)))
	}
	maxFeatures = max(1, min(maxFeatures, nFeatures))

	seeder := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Trees)
	for i := range seeds {
		seeds[i] = seeder.Int63()
	}

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	trees := make([]*Tree, cfg.Trees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fit := func(context.Context) error {
				rng := rand.New(rand.NewSource(seeds[i]))
				samples := make([]int, len(x))
				for j := range samples {
					samples[j] = rng.Intn(len(x))
				}
				trees[i] = fitTree(x, encoded, samples, len(classes), maxFeatures, rng)
				return nil
			}
			if cfg.Run == nil {
				return fit(gctx)
			}
			return cfg.Run(gctx, fit)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{trees: trees, classes: classes}, nil
}

// PredictProba returns the averaged class distribution for row, ordered like Classes.
func (f *Forest) PredictProba(row []float64) []float64 {
	out := make([]float64, len(f.classes))
	for _, t := range f.trees {
		for i, p := range t.predictProba(row) {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(f.trees))
	}
	return out
}

// Predict returns the most probable class label. Ties go to the smaller label.
func (f *Forest) Predict(row []float64) int {
	proba := f.PredictProba(row)
	best := 0
	for i, p := range proba {
		if p > proba[best] {
			best = i
		}
	}
	return f.classes[best]
}

// Classes returns the sorted class labels seen during training.
func (f *Forest) Classes() []int {
	return append([]int(nil), f.classes...)
}

// Size returns the number of trees.
func (f *Forest) Size() int {
	return len(f.trees)
}

func encodeClasses(y []int) ([]int, []int) {
	seen := make(map[int]struct{})
	for _, v := range y {
		seen[v] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Ints(classes)

	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	encoded := make([]int, len(y))
	for i, v := range y {
		encoded[i] = index[v]
	}
	return classes, encoded
}

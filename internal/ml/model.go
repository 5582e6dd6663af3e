package ml

import (
	"context"
	"fmt"
	"time"

	"github.com/Skufu/glucorisk/internal/dataset"
	"github.com/Skufu/glucorisk/internal/patient"
)

const (
	// GenderColumn is the gender column of the raw feature rows.
	GenderColumn = 0
	// SmokingColumn is the smoking_history column after gender encoding. With the three gender
	// categories of the dataset (Female, Male, Other) the gender indicators shift smoking_history
	// from index 4 to 6.
	SmokingColumn = 6
)

// Config holds the fixed training parameters.
type Config struct {
	TrainSize  float64
	SplitSeed  int64
	Trees      int
	ForestSeed int64
	// Parallelism and Run bound tree fitting; see ForestConfig.
	Parallelism int
	Run         Runner
}

// DefaultConfig is a 90/10 split with seed 0 and ten trees with seed 0.
func DefaultConfig() Config {
	return Config{
		TrainSize:  0.9,
		SplitSeed:  0,
		Trees:      10,
		ForestSeed: 0,
	}
}

// Model bundles the fitted encoders with the forest. It is never mutated after Train returns.
type Model struct {
	gender      *OneHot
	smoking     *OneHot
	forest      *Forest
	fingerprint string
	trainedAt   time.Time
	accuracy    float64
}

// Train encodes the table and fits the forest. Gender is encoded first and the smoking encoder is
// fitted on the already gender-encoded rows; Predict applies the two in the same order.
func Train(ctx context.Context, tbl *dataset.Table, cfg Config) (*Model, error) {
	x, y, err := tbl.Split()
	if err != nil {
		return nil, err
	}

	gender, err := FitOneHot(x, GenderColumn)
	if err != nil {
		return nil, fmt.Errorf("fit gender encoder: %w", err)
	}
	if x, err = gender.Transform(x); err != nil {
		return nil, err
	}

	smoking, err := FitOneHot(x, SmokingColumn)
	if err != nil {
		return nil, fmt.Errorf("fit smoking encoder: %w", err)
	}
	if x, err = smoking.Transform(x); err != nil {
		return nil, err
	}

	matrix, err := toMatrix(x)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := TrainTestSplit(len(matrix), cfg.TrainSize, cfg.SplitSeed)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := subset(matrix, y, trainIdx)

	forest, err := FitForest(ctx, xTrain, yTrain, ForestConfig{
		Trees:       cfg.Trees,
		Seed:        cfg.ForestSeed,
		Parallelism: cfg.Parallelism,
		Run:         cfg.Run,
	})
	if err != nil {
		return nil, err
	}

	xTest, yTest := subset(matrix, y, testIdx)
	return &Model{
		gender:      gender,
		smoking:     smoking,
		forest:      forest,
		fingerprint: tbl.Fingerprint,
		trainedAt:   time.Now(),
		accuracy:    accuracy(forest, xTest, yTest),
	}, nil
}

// Predict classifies one complete record.
func (m *Model) Predict(rec patient.Record) (patient.Outcome, error) {
	row, err := recordRow(rec)
	if err != nil {
		return 0, err
	}
	if row, err = m.gender.TransformRow(row); err != nil {
		return 0, err
	}
	if row, err = m.smoking.TransformRow(row); err != nil {
		return 0, err
	}
	vec, err := toVector(row)
	if err != nil {
		return 0, err
	}
	return patient.Outcome(m.forest.Predict(vec)), nil
}

// Fingerprint identifies the dataset the model was trained on.
func (m *Model) Fingerprint() string { return m.fingerprint }

// TrainedAt is when training finished.
func (m *Model) TrainedAt() time.Time { return m.trainedAt }

// HoldoutAccuracy is the accuracy on the test partition.
func (m *Model) HoldoutAccuracy() float64 { return m.accuracy }

// recordRow lays out rec in dataset column order.
func recordRow(rec patient.Record) ([]dataset.Cell, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return []dataset.Cell{
		dataset.Category(rec.Gender.MustGet()),
		dataset.Number(float64(rec.Age.MustGet())),
		dataset.Number(float64(rec.Hypertension.MustGet())),
		dataset.Number(float64(rec.HeartDisease.MustGet())),
		dataset.Category(rec.SmokingHistory.MustGet()),
		dataset.Number(rec.BMI.MustGet()),
		dataset.Number(rec.HbA1cLevel.MustGet()),
		dataset.Number(rec.BloodGlucoseLevel.MustGet()),
	}, nil
}

func subset(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}

func accuracy(f *Forest, x [][]float64, y []int) float64 {
	if len(x) == 0 {
		return 0
	}
	correct := 0
	for i, row := range x {
		if f.Predict(row) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}

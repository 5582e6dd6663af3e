package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit shuffles n row indices with seed and returns the training and test partitions.
// The training partition holds floor(trainSize*n) rows.
func TrainTestSplit(n int, trainSize float64, seed int64) (train, test []int, err error) {
	if trainSize <= 0 || trainSize >= 1 {
		return nil, nil, fmt.Errorf("ml: train size %v must be in (0, 1)", trainSize)
	}
	nTrain := int(math.Floor(trainSize * float64(n)))
	if nTrain == 0 || nTrain == n {
		return nil, nil, fmt.Errorf("ml: %d rows cannot be split with train size %v", n, trainSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := n - nTrain
	return perm[nTest:], perm[:nTest], nil
}

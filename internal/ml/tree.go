package ml

import (
	"math"
	"math/rand"
	"sort"
)

const leaf = -1

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	proba     []float64
}

// Tree is a CART classification tree grown until its leaves are pure.
type Tree struct {
	nodes    []node
	nClasses int
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	nClasses    int
	maxFeatures int
	rng         *rand.Rand
	nodes       []node
}

// fitTree grows a tree on the rows listed in samples. samples may repeat rows, as produced by
// bootstrap sampling; repeats count as extra weight.
func fitTree(x [][]float64, y []int, samples []int, nClasses, maxFeatures int, rng *rand.Rand) *Tree {
	b := &treeBuilder{
		x:           x,
		y:           y,
		nClasses:    nClasses,
		maxFeatures: maxFeatures,
		rng:         rng,
	}
	b.build(samples)
	return &Tree{nodes: b.nodes, nClasses: nClasses}
}

func (b *treeBuilder) build(samples []int) int {
	counts := make([]float64, b.nClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, node{left: leaf, right: leaf})

	if isPure(counts) || len(samples) < 2 {
		b.nodes[id].proba = normalise(counts)
		return id
	}

	feature, threshold, ok := b.bestSplit(samples, counts)
	if !ok {
		b.nodes[id].proba = normalise(counts)
		return id
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.build(left)
	r := b.build(right)
	b.nodes[id].feature = feature
	b.nodes[id].threshold = threshold
	b.nodes[id].left = l
	b.nodes[id].right = r
	return id
}

// bestSplit draws features in random order and keeps the lowest weighted gini split among the
// first maxFeatures of them. When none of those can split the node, it keeps drawing.
func (b *treeBuilder) bestSplit(samples []int, total []float64) (int, float64, bool) {
	nFeatures := len(b.x[samples[0]])
	order := b.rng.Perm(nFeatures)

	bestFeature, bestThreshold := -1, 0.0
	bestScore := math.Inf(1)
	visited := 0

	sorted := make([]int, len(samples))
	left := make([]float64, b.nClasses)
	right := make([]float64, b.nClasses)

	for _, f := range order {
		if visited >= b.maxFeatures && bestFeature >= 0 {
			break
		}

		copy(sorted, samples)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})
		if b.x[sorted[0]][f] == b.x[sorted[len(sorted)-1]][f] {
			continue
		}
		visited++

		for k := range left {
			left[k] = 0
			right[k] = total[k]
		}

		n := float64(len(sorted))
		for i := 0; i < len(sorted)-1; i++ {
			c := b.y[sorted[i]]
			left[c]++
			right[c]--

			cur, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if cur == next {
				continue
			}

			nl := float64(i + 1)
			score := gini(left)*nl + gini(right)*(n-nl)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// predictProba returns the class distribution of the leaf reached by row.
func (t *Tree) predictProba(row []float64) []float64 {
	i := 0
	for t.nodes[i].left != leaf {
		n := t.nodes[i]
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
	return t.nodes[i].proba
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.left == leaf {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(0)
}

func gini(counts []float64) float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / total
		g -= p * p
	}
	return g
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalise(counts []float64) []float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}

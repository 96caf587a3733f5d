package classify

import (
	"math/rand/v2"
	"slices"
)

// node is a tree node. Leaves have feature -1.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	prob      float64
}

func (n *node) predict(x []float64) float64 {
	for n.feature >= 0 {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.prob
}

type grower struct {
	x        [][]float64
	y        []bool
	maxDepth int
	minSplit int
	mtry     int
	rng      *rand.Rand
	order    []int
}

func (g *grower) grow(idx []int, depth int) *node {
	pos := 0
	for _, i := range idx {
		if g.y[i] {
			pos++
		}
	}
	leaf := &node{feature: -1, prob: float64(pos) / float64(len(idx))}
	if depth >= g.maxDepth || len(idx) < g.minSplit || pos == 0 || pos == len(idx) {
		return leaf
	}

	feature, threshold, ok := g.bestSplit(idx, pos)
	if !ok {
		return leaf
	}
	var left, right []int
	for _, i := range idx {
		if g.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &node{
		feature:   feature,
		threshold: threshold,
		left:      g.grow(left, depth+1),
		right:     g.grow(right, depth+1),
	}
}

// bestSplit scans mtry random features for the threshold with the lowest
// weighted Gini impurity. Thresholds are midpoints between distinct values.
func (g *grower) bestSplit(idx []int, pos int) (int, float64, bool) {
	nf := len(g.x[0])
	features := g.rng.Perm(nf)[:g.mtry]

	n := float64(len(idx))
	best := gini(float64(pos), n)
	bestFeature, bestThreshold, found := -1, 0.0, false

	g.order = append(g.order[:0], idx...)
	for _, f := range features {
		slices.SortFunc(g.order, func(a, b int) int {
			switch va, vb := g.x[a][f], g.x[b][f]; {
			case va < vb:
				return -1
			case va > vb:
				return 1
			}
			return a - b
		})
		leftPos := 0.0
		for k := 0; k < len(g.order)-1; k++ {
			if g.y[g.order[k]] {
				leftPos++
			}
			lo, hi := g.x[g.order[k]][f], g.x[g.order[k+1]][f]
			if lo == hi {
				continue
			}
			nl := float64(k + 1)
			nr := n - nl
			imp := (nl*gini(leftPos, nl) + nr*gini(float64(pos)-leftPos, nr)) / n
			if imp < best-1e-12 {
				best, bestFeature, bestThreshold, found = imp, f, lo+(hi-lo)/2, true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(pos, n float64) float64 {
	p := pos / n
	return 2 * p * (1 - p)
}

package store

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positions(hits []Neighbor) []int {
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.Position
	}
	return out
}

func TestVectorGraph_Search_ExactTiesByPosition(t *testing.T) {
	g := NewVectorGraph([][]float32{{1, 0}, {0, 1}, {2, 0}}, GraphConfig{Metric: MetricCosine, ExactThreshold: 10})

	hits := g.Search([]float32{1, 0}, 3)

	// Cosine ignores magnitude, so 0 and 2 tie and keep position order.
	assert.Equal(t, []int{0, 2, 1}, positions(hits))
	assert.False(t, g.Approximate())
}

func TestVectorGraph_Search_L2UsesMagnitude(t *testing.T) {
	g := NewVectorGraph([][]float32{{1, 0}, {10, 0}}, GraphConfig{Metric: MetricL2, ExactThreshold: 10})

	hits := g.Search([]float32{9, 0}, 1)

	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Position)
	assert.InDelta(t, 1.0, hits[0].Distance, 1e-6)
}

func TestVectorGraph_Search_ApproximateMatchesExact(t *testing.T) {
	// Given: the same vectors indexed exactly and through the graph
	rng := rand.New(rand.NewSource(7))
	vectors := make([][]float32, 300)
	for i := range vectors {
		v := make([]float32, 16)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		vectors[i] = v
	}
	exact := NewVectorGraph(vectors, GraphConfig{Metric: MetricCosine, ExactThreshold: 1000})
	approx := NewVectorGraph(vectors, GraphConfig{
		Metric: MetricCosine, M: 16, EfSearch: 64, Seed: 1, ExactThreshold: 10, Overfetch: 4,
	})
	require.True(t, approx.Approximate())

	// When: querying with a stored vector
	e := exact.Search(vectors[42], 5)
	a := approx.Search(vectors[42], 5)

	// Then: both find the vector itself first
	require.NotEmpty(t, a)
	assert.Equal(t, 42, e[0].Position)
	assert.Equal(t, 42, a[0].Position)
}

func TestVectorGraph_Search_ZeroVectorRanksLast(t *testing.T) {
	// Given: a zero vector stored ahead of real vectors
	g := NewVectorGraph([][]float32{{0, 0}, {0, 1}, {1, 0}}, GraphConfig{Metric: MetricCosine, ExactThreshold: 10})

	// When: searching along the x axis
	hits := g.Search([]float32{1, 0}, 3)

	// Then: order is nearest first and the zero vector has the worst distance
	assert.Equal(t, []int{2, 1, 0}, positions(hits))
	assert.Equal(t, maxCosineDistance, hits[2].Distance)
	for _, h := range hits {
		assert.False(t, math.IsNaN(float64(h.Distance)))
	}
}

func TestVectorGraph_Search_ZeroQueryKeepsPositionOrder(t *testing.T) {
	g := NewVectorGraph([][]float32{{0, 1}, {1, 0}, {2, 2}}, GraphConfig{Metric: MetricCosine, ExactThreshold: 10})

	hits := g.Search([]float32{0, 0}, 3)

	assert.Equal(t, []int{0, 1, 2}, positions(hits))
	assert.InDelta(t, 0.0, distanceToScore(hits[0].Distance, MetricCosine), 1e-6)
}

func TestVectorGraph_Search_Bounds(t *testing.T) {
	g := NewVectorGraph([][]float32{{1, 0}, {0, 1}}, GraphConfig{ExactThreshold: 10})

	assert.Len(t, g.Search([]float32{1, 0}, 10), 2)
	assert.Empty(t, g.Search([]float32{1, 0}, 0))
	assert.Empty(t, NewVectorGraph(nil, GraphConfig{}).Search([]float32{1}, 3))
}

func TestVectorGraph_CopiesInput(t *testing.T) {
	in := [][]float32{{3, 4}}
	g := NewVectorGraph(in, GraphConfig{Metric: MetricCosine, ExactThreshold: 10})

	assert.Equal(t, float32(3), in[0][0])
	assert.Equal(t, 1, g.Len())
}

func TestDistanceToScore(t *testing.T) {
	assert.InDelta(t, 1.0, distanceToScore(0, MetricCosine), 1e-6)
	assert.InDelta(t, 0.0, distanceToScore(2, MetricCosine), 1e-6)
	assert.InDelta(t, 0.5, distanceToScore(1, MetricL2), 1e-6)
}

package store

import (
	"math"
	"math/rand"
	"sort"

	"github.com/coder/hnsw"
)

// VectorGraph answers nearest-neighbour queries over a fixed vector set.
// Small sets are scanned exactly. Larger sets walk an HNSW graph and re-rank
// the candidates by exact distance, so ties always resolve by position.
type VectorGraph struct {
	vectors   [][]float32
	metric    string
	distance  hnsw.DistanceFunc
	graph     *hnsw.Graph[uint64]
	overfetch int
}

// GraphConfig configures a VectorGraph.
type GraphConfig struct {
	Metric         string
	M              int
	EfSearch       int
	Seed           int64
	ExactThreshold int
	Overfetch      int
}

// NewVectorGraph indexes vectors by position. Vectors are copied, and
// normalized to unit length for the cosine metric.
func NewVectorGraph(vectors [][]float32, cfg GraphConfig) *VectorGraph {
	g := &VectorGraph{
		vectors:   make([][]float32, len(vectors)),
		metric:    cfg.Metric,
		overfetch: max(cfg.Overfetch, 1),
	}

	switch cfg.Metric {
	case MetricL2:
		g.distance = orderedDistance(hnsw.EuclideanDistance, float32(math.Inf(1)))
	default:
		g.metric = MetricCosine
		g.distance = orderedDistance(hnsw.CosineDistance, maxCosineDistance)
	}

	for i, v := range vectors {
		vec := make([]float32, len(v))
		copy(vec, v)
		if g.metric == MetricCosine {
			normalizeVectorInPlace(vec)
		}
		g.vectors[i] = vec
	}

	if len(g.vectors) < cfg.ExactThreshold || len(g.vectors) == 0 {
		return g
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = g.distance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25
	graph.Rng = rand.New(rand.NewSource(cfg.Seed))
	for i, vec := range g.vectors {
		graph.Add(hnsw.MakeNode(uint64(i), vec))
	}
	g.graph = graph

	return g
}

// Neighbor is one search hit.
type Neighbor struct {
	Position int
	Distance float32
}

// Search returns the k nearest vectors, nearest first.
func (g *VectorGraph) Search(query []float32, k int) []Neighbor {
	if k <= 0 || len(g.vectors) == 0 {
		return nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	if g.metric == MetricCosine {
		normalizeVectorInPlace(q)
	}

	var candidates []int
	if g.graph == nil {
		candidates = make([]int, len(g.vectors))
		for i := range candidates {
			candidates[i] = i
		}
	} else {
		nodes := g.graph.Search(q, k*g.overfetch)
		candidates = make([]int, 0, len(nodes))
		for _, node := range nodes {
			candidates = append(candidates, int(node.Key))
		}
	}

	dist := make(map[int]float32, len(candidates))
	for _, pos := range candidates {
		dist[pos] = g.distance(q, g.vectors[pos])
	}
	sort.Slice(candidates, func(i, j int) bool {
		di, dj := dist[candidates[i]], dist[candidates[j]]
		if di != dj {
			return di < dj
		}
		return candidates[i] < candidates[j]
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]Neighbor, len(candidates))
	for i, pos := range candidates {
		out[i] = Neighbor{Position: pos, Distance: dist[pos]}
	}
	return out
}

// Len returns the number of indexed vectors.
func (g *VectorGraph) Len() int {
	return len(g.vectors)
}

// Approximate reports whether searches walk the HNSW graph.
func (g *VectorGraph) Approximate() bool {
	return g.graph != nil
}

// maxCosineDistance is the distance between opposite unit vectors.
const maxCosineDistance float32 = 2

// orderedDistance wraps fn so that an undefined result, such as cosine
// against a zero vector, sorts after every defined distance.
func orderedDistance(fn hnsw.DistanceFunc, worst float32) hnsw.DistanceFunc {
	return func(a, b []float32) float32 {
		d := fn(a, b)
		if d != d {
			return worst
		}
		return d
	}
}

// normalizeVectorInPlace normalizes a vector to unit length in place.
func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}

// distanceToScore converts a distance value to a similarity score.
// For cosine distance: score = 1 - distance/2 (distance ranges 0-2)
// For L2 distance: score = 1 / (1 + distance)
func distanceToScore(distance float32, metric string) float32 {
	if metric == MetricL2 {
		return 1.0 / (1.0 + distance)
	}
	return 1.0 - distance/2.0
}

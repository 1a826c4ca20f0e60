package quadtree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/gorustyt/gorvo/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type candidate struct {
	id     int
	distSq float32
}

func lessCandidate(a, b candidate) bool {
	if a.distSq != b.distSq {
		return a.distSq < b.distSq
	}
	return a.id < b.id
}

// kNearest keeps the k nearest offers, ties broken by id.
type kNearest struct {
	self int
	k    int
	kept []candidate
}

func (s *kNearest) bound() float32 {
	if len(s.kept) == s.k {
		return s.kept[len(s.kept)-1].distSq
	}
	return float32(1e30)
}

func (s *kNearest) Offer(id int, distSq, rangeSq float32) float32 {
	if id == s.self || distSq >= rangeSq {
		return s.bound()
	}
	c := candidate{id: id, distSq: distSq}
	if len(s.kept) == s.k {
		if !lessCandidate(c, s.kept[len(s.kept)-1]) {
			return s.bound()
		}
		s.kept = s.kept[:len(s.kept)-1]
	}
	j := sort.Search(len(s.kept), func(j int) bool { return lessCandidate(c, s.kept[j]) })
	s.kept = append(s.kept, candidate{})
	copy(s.kept[j+1:], s.kept[j:])
	s.kept[j] = c
	return s.bound()
}

func bruteForce(points []common.Vec2, self, k int, rangeSq float32) []candidate {
	var all []candidate
	for i, p := range points {
		if i == self {
			continue
		}
		d := p.Sub(points[self])
		if distSq := d.Dot(d); distSq < rangeSq {
			all = append(all, candidate{id: i, distSq: distSq})
		}
	}
	sort.Slice(all, func(a, b int) bool { return lessCandidate(all[a], all[b]) })
	if len(all) > k {
		all = all[:k]
	}
	return all
}

func buildTree(points []common.Vec2, speed float32) *Tree {
	t := New()
	bounds := common.MinMaxRect(points[0][0], points[0][1], points[0][0], points[0][1])
	for _, p := range points {
		bounds = bounds.Encapsulate(p)
	}
	t.SetBounds(bounds)
	for i, p := range points {
		t.Insert(i, p, speed)
	}
	t.CalculateSpeeds()
	return t
}

func TestQueryMatchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	const (
		speed       = 1.5
		timeHorizon = 2
		radius      = 0.5
	)
	for _, n := range []int{1, 10, 200, 1000} {
		points := make([]common.Vec2, n)
		for i := range points {
			points[i] = common.Vec2{rnd.Float32()*100 - 50, rnd.Float32()*100 - 50}
		}
		tree := buildTree(points, speed)
		require.Equal(t, n, tree.Len())

		var rangeRadius float32 = max((speed+speed)*timeHorizon, radius) + radius
		for _, k := range []int{1, 5, 10, 40} {
			for self := range points {
				sink := &kNearest{self: self, k: k}
				tree.Query(points[self], speed, timeHorizon, radius, sink)
				want := bruteForce(points, self, k, rangeRadius*rangeRadius)
				if len(want) == 0 {
					assert.Empty(t, sink.kept, "n=%d k=%d self=%d", n, k, self)
					continue
				}
				assert.Equal(t, want, sink.kept, "n=%d k=%d self=%d", n, k, self)
			}
		}
	}
}

func TestInsertSplitsLeaves(t *testing.T) {
	points := make([]common.Vec2, 0, 64)
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			points = append(points, common.Vec2{float32(x), float32(y)})
		}
	}
	tree := buildTree(points, 1)
	assert.Greater(t, tree.NodeCount(), 1)

	var leafItems int32
	for i, n := range tree.nodes {
		if n.child00 == int32(i) {
			assert.LessOrEqual(t, n.count, int32(LeafSize))
			leafItems += n.count
		} else {
			assert.Equal(t, int32(0), n.count)
			assert.Equal(t, nullIdx, n.head)
		}
	}
	assert.Equal(t, int32(len(points)), leafItems)
}

func TestCoincidentPointsStopAtDepthCap(t *testing.T) {
	points := make([]common.Vec2, 100)
	for i := range points {
		points[i] = common.Vec2{3, 3}
	}
	points[0] = common.Vec2{0, 0}
	points[1] = common.Vec2{4, 4}
	tree := buildTree(points, 0)

	sink := &kNearest{self: 0, k: 200}
	tree.Query(common.Vec2{3, 3}, 0, 1, 1, sink)
	assert.Len(t, sink.kept, 99)
}

func TestCalculateSpeedsTracksSubtreeMaximum(t *testing.T) {
	tree := New()
	tree.SetBounds(common.MinMaxRect(0, 0, 100, 100))
	for i := 0; i < 40; i++ {
		speed := float32(1)
		if i == 17 {
			speed = 9
		}
		tree.Insert(i, common.Vec2{float32(i % 10 * 10), float32(i / 10 * 25)}, speed)
	}
	tree.CalculateSpeeds()
	assert.Equal(t, float32(9), tree.nodes[0].maxSpeed)

	// A slow query near the fast item must still see it through the cached subtree speed.
	sink := &kNearest{self: -1, k: 40}
	far := common.Vec2{70 + 16, 25}
	tree.Query(far, 0, 2, 0.1, sink)
	ids := make([]int, 0, len(sink.kept))
	for _, c := range sink.kept {
		ids = append(ids, c.id)
	}
	assert.Contains(t, ids, 17)
}

func TestClearReusesTree(t *testing.T) {
	tree := buildTree([]common.Vec2{{0, 0}, {1, 1}}, 1)
	tree.Clear()
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 1, tree.NodeCount())

	sink := &kNearest{self: -1, k: 4}
	tree.Query(common.Vec2{}, 1, 1, 1, sink)
	assert.Empty(t, sink.kept)
}

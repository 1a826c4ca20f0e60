package quadtree

import (
	"math"

	"github.com/gorustyt/gorvo/common"
)

const (
	LeafSize = 15 ///< Items a leaf holds before it is split.
	MaxDepth = 10 ///< Leaves at this depth are never split.
)

const nullIdx int32 = -1

// / Receives the candidates found by Tree.Query.
type NeighbourSink interface {
	// / Offers item @p id at squared distance @p distSq from the query point.
	// / @p rangeSq is the squared search radius of the leaf holding the item.
	// / Returns the squared distance beyond which the sink keeps nothing more,
	// / or +Inf while it still accepts anything in range.
	Offer(id int, distSq, rangeSq float32) float32
}

type node struct {
	child00  int32 ///< First of four consecutive children, equal to the node's own index for a leaf.
	head     int32 ///< First item of the leaf, nullIdx when empty.
	count    int32
	maxSpeed float32 ///< Largest speed in the subtree, set by CalculateSpeeds.
}

// / Point quadtree rebuilt from scratch every tick.
// / Items are kept in parallel arrays and linked per leaf through next.
type Tree struct {
	nodes  []node
	bounds common.Rect

	ids    []int
	points []common.Vec2
	speeds []float32
	next   []int32
}

func New() *Tree {
	t := &Tree{}
	t.Clear()
	return t
}

// / Removes all items, keeping the allocated storage.
func (t *Tree) Clear() {
	t.nodes = append(t.nodes[:0], node{child00: 0, head: nullIdx})
	t.ids = t.ids[:0]
	t.points = t.points[:0]
	t.speeds = t.speeds[:0]
	t.next = t.next[:0]
}

// / Sets the region covered by the root. Call after Clear and before inserting.
func (t *Tree) SetBounds(r common.Rect) {
	t.bounds = r
}

func (t *Tree) Bounds() common.Rect { return t.bounds }

// / Number of inserted items.
func (t *Tree) Len() int { return len(t.ids) }

// / Number of allocated nodes.
func (t *Tree) NodeCount() int { return len(t.nodes) }

func (t *Tree) allocChildren() int32 {
	idx := int32(len(t.nodes))
	for c := idx; c < idx+4; c++ {
		t.nodes = append(t.nodes, node{child00: c, head: nullIdx})
	}
	return idx
}

func quadrant(p, center common.Vec2) int32 {
	var q int32
	if p[0] > center[0] {
		q++
	}
	if p[1] > center[1] {
		q += 2
	}
	return q
}

func childRect(r common.Rect, center common.Vec2, q int32) common.Rect {
	if q&1 != 0 {
		r.Min[0] = center[0]
	} else {
		r.Max[0] = center[0]
	}
	if q&2 != 0 {
		r.Min[1] = center[1]
	} else {
		r.Max[1] = center[1]
	}
	return r
}

// / Inserts item @p id at @p p moving with @p speed.
func (t *Tree) Insert(id int, p common.Vec2, speed float32) {
	item := int32(len(t.ids))
	t.ids = append(t.ids, id)
	t.points = append(t.points, p)
	t.speeds = append(t.speeds, speed)
	t.next = append(t.next, nullIdx)

	i := int32(0)
	r := t.bounds
	for depth := 0; ; depth++ {
		if t.nodes[i].child00 == i {
			if t.nodes[i].count < LeafSize || depth >= MaxDepth {
				t.next[item] = t.nodes[i].head
				t.nodes[i].head = item
				t.nodes[i].count++
				return
			}
			t.split(i, r)
		}
		c := r.Center()
		q := quadrant(p, c)
		r = childRect(r, c, q)
		i = t.nodes[i].child00 + q
	}
}

func (t *Tree) split(i int32, r common.Rect) {
	child00 := t.allocChildren()
	t.nodes[i].child00 = child00
	c := r.Center()
	for it := t.nodes[i].head; it != nullIdx; {
		next := t.next[it]
		child := child00 + quadrant(t.points[it], c)
		t.next[it] = t.nodes[child].head
		t.nodes[child].head = it
		t.nodes[child].count++
		it = next
	}
	t.nodes[i].head = nullIdx
	t.nodes[i].count = 0
}

// / Caches the maximum item speed of every subtree. Call once after all inserts.
func (t *Tree) CalculateSpeeds() {
	t.calculateSpeeds(0)
}

func (t *Tree) calculateSpeeds(i int32) float32 {
	var m float32
	if child00 := t.nodes[i].child00; child00 == i {
		for it := t.nodes[i].head; it != nullIdx; it = t.next[it] {
			m = max(m, t.speeds[it])
		}
	} else {
		for c := child00; c < child00+4; c++ {
			m = max(m, t.calculateSpeeds(c))
		}
	}
	t.nodes[i].maxSpeed = m
	return m
}

type query struct {
	p           common.Vec2
	speed       float32
	timeHorizon float32
	radius      float32
	sink        NeighbourSink
	maxRangeSq  float32
}

func (q *query) clamp(radius float32) float32 {
	if q.maxRangeSq < radius*radius {
		return common.Sqrt32(q.maxRangeSq)
	}
	return radius
}

// / Offers every item that an agent at @p p with the given speed, time horizon and radius
// / may have to avoid to @p sink, nearest leaves first where possible.
// / The search radius of a node is max((node max speed + speed) * timeHorizon, radius) + radius,
// / and it shrinks to the distance the sink reports as its worst kept candidate.
func (t *Tree) Query(p common.Vec2, speed, timeHorizon, radius float32, sink NeighbourSink) {
	q := query{
		p:           p,
		speed:       speed,
		timeHorizon: timeHorizon,
		radius:      radius,
		sink:        sink,
		maxRangeSq:  float32(math.Inf(1)),
	}
	t.queryRec(0, t.bounds, &q)
}

func (t *Tree) queryRec(i int32, r common.Rect, q *query) {
	n := t.nodes[i]
	nodeRadius := max((n.maxSpeed+q.speed)*q.timeHorizon, q.radius) + q.radius
	if n.child00 == i {
		rangeSq := nodeRadius * nodeRadius
		for it := n.head; it != nullIdx; it = t.next[it] {
			d := t.points[it].Sub(q.p)
			if v := q.sink.Offer(t.ids[it], d.Dot(d), rangeSq); v < q.maxRangeSq {
				q.maxRangeSq = v
			}
		}
		return
	}

	c := r.Center()
	radius := q.clamp(nodeRadius)
	if q.p[0]-radius <= c[0] {
		if q.p[1]-radius <= c[1] {
			t.queryRec(n.child00, childRect(r, c, 0), q)
			radius = q.clamp(radius)
		}
		if q.p[1]+radius >= c[1] {
			t.queryRec(n.child00+2, childRect(r, c, 2), q)
			radius = q.clamp(radius)
		}
	}
	if q.p[0]+radius >= c[0] {
		if q.p[1]-radius <= c[1] {
			t.queryRec(n.child00+1, childRect(r, c, 1), q)
			radius = q.clamp(radius)
		}
		if q.p[1]+radius >= c[1] {
			t.queryRec(n.child00+3, childRect(r, c, 3), q)
		}
	}
}

package rvo

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorustyt/gorvo/common"
	"go.uber.org/multierr"
)

// ObstacleVertex is one corner of an obstacle. The vertices of an obstacle form a
// loop through Next and Prev, or an open chain when the last Next is nil. The edge
// from a vertex to its Next must be kept on the left side by agents outside of it.
//
// Vertices are owned by the simulator. The first vertex is the handle returned by
// Simulator.AddObstacle. Getters report the state as of the last tick.
type ObstacleVertex struct {
	position common.Vec3
	dir      common.Vec2
	height   float32
	layer    Layer
	ignore   bool
	next     *ObstacleVertex
	prev     *ObstacleVertex
}

func (v *ObstacleVertex) Position() common.Vec3 { return v.position }

// Dir is the normalized direction of the edge to Next in the movement plane, zero at the end of an open chain.
func (v *ObstacleVertex) Dir() common.Vec2 { return v.dir }

func (v *ObstacleVertex) Height() float32 { return v.height }

func (v *ObstacleVertex) Layer() Layer { return v.layer }

// Ignore marks an edge that agents do not avoid, like the back side of a line obstacle.
func (v *ObstacleVertex) Ignore() bool { return v.ignore }

func (v *ObstacleVertex) Next() *ObstacleVertex { return v.next }

func (v *ObstacleVertex) Prev() *ObstacleVertex { return v.prev }

// vertexCount walks the loop or chain starting at v.
func (v *ObstacleVertex) vertexCount() int {
	n := 0
	for vertex := v; vertex != nil; {
		n++
		vertex = vertex.next
		if vertex == v {
			break
		}
	}
	return n
}

// setPositions moves the vertices starting at v and recomputes the edge directions.
func (v *ObstacleVertex) setPositions(positions []common.Vec3, plane MovementPlane) {
	vertex := v
	for i := 0; vertex != nil && i < len(positions); i++ {
		vertex.position = positions[i]
		vertex = vertex.next
		if vertex == v {
			break
		}
	}

	for vertex = v; vertex != nil; {
		if vertex.next == nil {
			vertex.dir = common.Vec2{}
		} else {
			p1, _ := to2D(plane, vertex.position)
			p2, _ := to2D(plane, vertex.next.position)
			vertex.dir = common.Normalized(p2.Sub(p1))
		}
		vertex = vertex.next
		if vertex == v {
			break
		}
	}
}

type obstacleOptions struct {
	matrix mgl32.Mat4
	layer  Layer
	closed bool
}

// ObstacleOption customises Simulator.AddObstacle.
type ObstacleOption func(*obstacleOptions)

// WithMatrix transforms the vertices before they are used.
func WithMatrix(m mgl32.Mat4) ObstacleOption {
	return func(o *obstacleOptions) { o.matrix = m }
}

// WithLayer sets the layer of every edge. The default is DefaultObstacle.
func WithLayer(l Layer) ObstacleOption {
	return func(o *obstacleOptions) { o.layer = l }
}

// WithClosed links the last vertex back to the first. Obstacles are closed by default.
func WithClosed(closed bool) ObstacleOption {
	return func(o *obstacleOptions) { o.closed = closed }
}

func defaultObstacleOptions() obstacleOptions {
	return obstacleOptions{
		matrix: mgl32.Ident4(),
		layer:  DefaultObstacle,
		closed: true,
	}
}

// transformVertices validates vertices and applies m to them.
func transformVertices(vertices []common.Vec3, m mgl32.Mat4) ([]common.Vec3, error) {
	if len(vertices) < 2 {
		return nil, fmt.Errorf("%w: %d vertices, need at least 2", ErrDegenerateObstacle, len(vertices))
	}

	identity := m == mgl32.Ident4()
	out := make([]common.Vec3, len(vertices))
	var err error
	for i, v := range vertices {
		if !identity {
			v = common.TransformPoint(m, v)
		}
		if !common.IsFinite3(v) {
			err = multierr.Append(err, fmt.Errorf("%w: vertex %d is not finite", ErrDegenerateObstacle, i))
		}
		out[i] = v
	}
	return out, err
}

func newObstacle(positions []common.Vec3, height float32, o obstacleOptions, plane MovementPlane) *ObstacleVertex {
	var first, prev *ObstacleVertex
	for range positions {
		v := &ObstacleVertex{
			prev:   prev,
			layer:  o.layer,
			height: height,
		}
		if first == nil {
			first = v
		} else {
			prev.next = v
		}
		prev = v
	}
	if o.closed {
		prev.next = first
		first.prev = prev
	}
	first.setPositions(positions, plane)
	return first
}

// newLineObstacle is a two sided loop a->b->a where only the edge a->b is avoided.
func newLineObstacle(a, b common.Vec3, height float32, plane MovementPlane) *ObstacleVertex {
	first := &ObstacleVertex{layer: DefaultObstacle, height: height}
	second := &ObstacleVertex{layer: DefaultObstacle, height: height, ignore: true}
	first.next, first.prev = second, second
	second.next, second.prev = first, first
	first.setPositions([]common.Vec3{a, b}, plane)
	return first
}

type obstacleRequestKind int

const (
	obstacleAdd obstacleRequestKind = iota
	obstacleUpdate
	obstacleRemove
)

func (k obstacleRequestKind) String() string {
	switch k {
	case obstacleAdd:
		return "add"
	case obstacleUpdate:
		return "update"
	case obstacleRemove:
		return "remove"
	}
	return "unknown"
}

// obstacleRequest is a validated obstacle mutation applied at the start of the next tick.
type obstacleRequest struct {
	kind      obstacleRequestKind
	head      *ObstacleVertex
	positions []common.Vec3
}

func to2D(plane MovementPlane, p common.Vec3) (common.Vec2, float32) {
	if plane == PlaneXY {
		return common.ToXY(p), -p[2]
	}
	return common.ToXZ(p), p[1]
}

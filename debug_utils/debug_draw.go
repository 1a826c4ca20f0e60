package debug_utils

import (
	"math"
)

type DuDebugDrawPrimitives int

const (
	DU_DRAW_POINTS DuDebugDrawPrimitives = iota
	DU_DRAW_LINES
	DU_DRAW_TRIS
	DU_DRAW_QUADS
)

func (p DuDebugDrawPrimitives) String() string {
	switch p {
	case DU_DRAW_POINTS:
		return "points"
	case DU_DRAW_LINES:
		return "lines"
	case DU_DRAW_TRIS:
		return "tris"
	case DU_DRAW_QUADS:
		return "quads"
	}
	return "unknown"
}

// / Primitive sink used by agents to visualise their velocity obstacles.
// / Calls come from the simulation goroutine only.
type DuDebugDraw interface {
	DepthMask(state bool)

	/// Begin drawing primitives.
	///  @param prim [in] primitive type to draw, one of DU_DRAW_*.
	///  @param size [in] size of a primitive, applies to point size and line width only.
	Begin(prim DuDebugDrawPrimitives, size ...float32)

	/// Submit a vertex
	///  @param x,y,z [in] position of the verts.
	///  @param color [in] color of the verts.
	Vertex(x, y, z float32, color Colorb)

	/// End drawing primitives.
	End()
}

const circleSegments = 40

var circleDirs = func() (dir [circleSegments * 2]float32) {
	for i := 0; i < circleSegments; i++ {
		a := float64(i) / circleSegments * math.Pi * 2
		dir[i*2] = float32(math.Cos(a))
		dir[i*2+1] = float32(math.Sin(a))
	}
	return dir
}()

func DuDebugDrawLine(dd DuDebugDraw, x0, y0, z0, x1, y1, z1 float32, col Colorb, lineWidth float32) {
	if dd == nil {
		return
	}
	dd.Begin(DU_DRAW_LINES, lineWidth)
	DuAppendLine(dd, x0, y0, z0, x1, y1, z1, col)
	dd.End()
}

func DuDebugDrawCircle(dd DuDebugDraw, x, y, z,
	r float32, col Colorb, lineWidth float32) {
	if dd == nil {
		return
	}

	dd.Begin(DU_DRAW_LINES, lineWidth)
	DuAppendCircle(dd, x, y, z, r, col)
	dd.End()
}

func DuDebugDrawCircleArc(dd DuDebugDraw, x, y, z, r, a0, a1 float32, col Colorb, lineWidth float32) {
	if dd == nil {
		return
	}
	dd.Begin(DU_DRAW_LINES, lineWidth)
	DuAppendCircleArc(dd, x, y, z, r, a0, a1, col)
	dd.End()
}

func DuDebugDrawCross(dd DuDebugDraw, x, y, z,
	size float32, col Colorb, lineWidth float32) {
	if dd == nil {
		return
	}

	dd.Begin(DU_DRAW_LINES, lineWidth)
	DuAppendCross(dd, x, y, z, size, col)
	dd.End()
}

func DuAppendLine(dd DuDebugDraw, x0, y0, z0, x1, y1, z1 float32, col Colorb) {
	if dd == nil {
		return
	}
	dd.Vertex(x0, y0, z0, col)
	dd.Vertex(x1, y1, z1, col)
}

// / Circle in the XZ plane around (x, y, z).
func DuAppendCircle(dd DuDebugDraw, x, y, z,
	r float32, col Colorb) {
	if dd == nil {
		return
	}
	i := 0
	j := circleSegments - 1
	for i < circleSegments {
		dd.Vertex(x+circleDirs[j*2+0]*r, y, z+circleDirs[j*2+1]*r, col)
		dd.Vertex(x+circleDirs[i*2+0]*r, y, z+circleDirs[i*2+1]*r, col)
		j = i
		i++
	}
}

// / Part of a circle in the XZ plane, from angle @p a0 to @p a1 (radians, counter clockwise from +X).
func DuAppendCircleArc(dd DuDebugDraw, x, y, z, r, a0, a1 float32, col Colorb) {
	if dd == nil {
		return
	}
	if a1 < a0 {
		a0, a1 = a1, a0
	}
	n := int(math.Ceil(float64((a1 - a0) / (2 * math.Pi) * circleSegments)))
	n = max(n, 1)
	px := x + r*float32(math.Cos(float64(a0)))
	pz := z + r*float32(math.Sin(float64(a0)))
	for i := 1; i <= n; i++ {
		a := float64(a0 + (a1-a0)*float32(i)/float32(n))
		qx := x + r*float32(math.Cos(a))
		qz := z + r*float32(math.Sin(a))
		dd.Vertex(px, y, pz, col)
		dd.Vertex(qx, y, qz, col)
		px, pz = qx, qz
	}
}

func DuAppendCross(dd DuDebugDraw, x, y, z,
	s float32, col Colorb) {
	if dd == nil {
		return
	}
	dd.Vertex(x-s, y, z, col)
	dd.Vertex(x+s, y, z, col)
	dd.Vertex(x, y-s, z, col)
	dd.Vertex(x, y+s, z, col)
	dd.Vertex(x, y, z-s, col)
	dd.Vertex(x, y, z+s, col)
}

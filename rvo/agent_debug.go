package rvo

import (
	"math"

	"github.com/gorustyt/gorvo/common"
	"github.com/gorustyt/gorvo/debug_utils"
)

// agentDebug draws velocity space geometry of one agent in the XZ plane,
// translated to the agent's position.
type agentDebug struct {
	dd     debug_utils.DuDebugDraw
	origin common.Vec2
}

func (d *agentDebug) line(a, b common.Vec2, col debug_utils.Colorb) {
	a = a.Add(d.origin)
	b = b.Add(d.origin)
	debug_utils.DuDebugDrawLine(d.dd, a[0], 0, a[1], b[0], 0, b[1], col, 1)
}

func (d *agentDebug) cross(p common.Vec2, col debug_utils.Colorb, size float32) {
	p = p.Add(d.origin)
	debug_utils.DuDebugDrawCross(d.dd, p[0], 0, p[1], size, col, 1)
}

func (d *agentDebug) circle(center common.Vec2, radius float32, col debug_utils.Colorb) {
	c := center.Add(d.origin)
	debug_utils.DuDebugDrawCircle(d.dd, c[0], 0, c[1], radius, col, 1)
}

// vo draws the cap of an agent obstacle around center and its two tangent rays,
// as seen from apex.
func (d *agentDebug) vo(center common.Vec2, radius float32, apex common.Vec2) {
	toApex := apex.Sub(center)
	alpha := math.Atan2(float64(toApex[1]), float64(toApex[0]))
	var delta float64
	if gamma := float64(radius / toApex.Len()); gamma <= 1 {
		delta = math.Abs(math.Acos(gamma))
	}

	c := center.Add(d.origin)
	debug_utils.DuDebugDrawCircleArc(d.dd, c[0], 0, c[1], radius, float32(alpha-delta), float32(alpha+delta), debug_utils.ColorBlack, 1)

	p1 := common.Vec2{float32(math.Cos(alpha - delta)), float32(math.Sin(alpha - delta))}.Mul(radius)
	p2 := common.Vec2{float32(math.Cos(alpha + delta)), float32(math.Sin(alpha + delta))}.Mul(radius)
	d.line(center.Add(p1), center.Add(p1).Add(common.Normalized(common.PerpRight(p1)).Mul(100)), debug_utils.ColorBlack)
	d.line(center.Add(p2), center.Add(p2).Add(common.Normalized(common.PerpLeft(p2)).Mul(100)), debug_utils.ColorBlack)
}

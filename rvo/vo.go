package rvo

import (
	"github.com/gorustyt/gorvo/common"
)

// Velocity obstacles are rebuilt every tick and live in a per worker voBuffer.
// Each gradient method returns the negative gradient of the VO cost function at p
// (unit length) and its value, the distance to the closest edge of the obstacle.
// Both are zero outside the obstacle.

const voScale = 2

// nearFieldVO is used when the agent already overlaps what it avoids.
// It is a single half plane, everything on its right is forbidden.
type nearFieldVO struct {
	line         common.Vec2
	dir          common.Vec2
	weightFactor float32
	weightBonus  float32
}

func (vo *nearFieldVO) gradient(p common.Vec2) (common.Vec2, float32) {
	l1 := common.SignedDistanceFromLine(vo.line, vo.dir, p)
	if l1 >= 0 {
		return common.PerpLeft(vo.dir), l1
	}
	return common.Vec2{}, 0
}

// agentVO is a truncated cone: two tangent half planes, a cutoff line and
// a circular cap around the other agent at the time horizon.
type agentVO struct {
	line1, dir1  common.Vec2
	line2, dir2  common.Vec2
	cutoffLine   common.Vec2
	cutoffDir    common.Vec2
	circleCenter common.Vec2
	radius       float32
	weightFactor float32
}

func (vo *agentVO) gradient(p common.Vec2) (common.Vec2, float32) {
	det3 := common.SignedDistanceFromLine(vo.cutoffLine, vo.cutoffDir, p)
	if det3 <= 0 {
		return common.Vec2{}, 0
	}
	det1 := common.SignedDistanceFromLine(vo.line1, vo.dir1, p)
	det2 := common.SignedDistanceFromLine(vo.line2, vo.dir2, p)
	if det1 < 0 || det2 < 0 {
		return common.Vec2{}, 0
	}

	// Near the cap the closest boundary is the circle.
	if p.Sub(vo.line1).Dot(vo.dir1) > 0 && p.Sub(vo.line2).Dot(vo.dir2) < 0 {
		g, dist := common.NormalizeWithLen(p.Sub(vo.circleCenter))
		return g, vo.radius - dist
	}
	if det1 < det2 {
		return common.PerpLeft(vo.dir1), det1
	}
	return common.PerpLeft(vo.dir2), det2
}

// segmentVO avoids a directed obstacle edge. The agent must stay on the left of
// the segment. Unlike agentVO the cap follows the segment, not a circle.
type segmentVO struct {
	line1, dir1 common.Vec2
	line2, dir2 common.Vec2
	cutoffLine  common.Vec2
	cutoffDir   common.Vec2
	segStart    common.Vec2
	segEnd      common.Vec2
	radius      float32
	weightBonus float32
}

func (vo *segmentVO) gradient(p common.Vec2) (common.Vec2, float32) {
	det3 := common.SignedDistanceFromLine(vo.cutoffLine, vo.cutoffDir, p)
	if det3 <= 0 {
		return common.Vec2{}, 0
	}
	det1 := common.SignedDistanceFromLine(vo.line1, vo.dir1, p)
	det2 := common.SignedDistanceFromLine(vo.line2, vo.dir2, p)
	if det1 < 0 || det2 < 0 {
		return common.Vec2{}, 0
	}

	if p.Sub(vo.line1).Dot(vo.dir1) > 0 && p.Sub(vo.line2).Dot(vo.dir2) < 0 && det3 < vo.radius {
		closest := common.ClosestPointOnSegment(vo.segStart, vo.segEnd, p)
		g, dist := common.NormalizeWithLen(p.Sub(closest))
		return g, vo.radius - dist
	}
	if det3 < det1 && det3 < det2 {
		return common.PerpLeft(vo.cutoffDir), det3
	}
	if det1 < det2 {
		return common.PerpLeft(vo.dir1), det1
	}
	return common.PerpLeft(vo.dir2), det2
}

// scaled turns a raw gradient into the weight used by the optimizer.
func scaled(g common.Vec2, w, weightFactor, weightBonus float32) (common.Vec2, float32) {
	if w > 0 {
		g = g.Mul(voScale * weightFactor)
		w *= voScale * weightFactor
		w += 1 + weightBonus
	}
	return g, w
}

type voBuffer struct {
	nearField []nearFieldVO
	agents    []agentVO
	segments  []segmentVO
}

func (b *voBuffer) clear() {
	b.nearField = b.nearField[:0]
	b.agents = b.agents[:0]
	b.segments = b.segments[:0]
}

func (b *voBuffer) len() int {
	return len(b.nearField) + len(b.agents) + len(b.segments)
}

// addAgent adds the obstacle induced by another agent.
// center is the other agent's position relative to this one, offset shifts the
// obstacle to account for the velocities, radius is the sum of both radii,
// invDt is 1/time horizon and invDeltaTime is 1/tick length.
func (b *voBuffer) addAgent(center, offset common.Vec2, radius, invDt, invDeltaTime float32) {
	centerSq := center.LenSqr()
	weightFactor := 4*common.Exp32(-common.Sqr(centerSq/(radius*radius))) + 1

	centerDir, centerLen := common.NormalizeWithLen(center)
	if centerLen < radius {
		// The 0.001 keeps line away from zero length, which would normalize to a zero dir.
		line := centerDir.Mul((centerLen - radius - 0.001) * 0.3 * invDeltaTime)
		b.nearField = append(b.nearField, nearFieldVO{
			line:         line.Add(offset),
			dir:          common.Normalized(common.PerpRight(line)),
			weightFactor: weightFactor,
		})
		return
	}

	c := center.Mul(invDt)
	r := radius * invDt
	cLen := centerLen * invDt

	cutoffLine := centerDir.Mul(cLen - r + 0.001)
	vo := agentVO{
		cutoffDir:    common.Normalized(common.PerpLeft(cutoffLine)),
		cutoffLine:   cutoffLine.Add(offset),
		circleCenter: c.Add(offset),
		radius:       r,
		weightFactor: weightFactor,
	}

	// Tangent points of the circle as seen from the origin, rotating the
	// direction to the origin by +-acos(r/|c|).
	u := centerDir.Mul(-1)
	k := min(r/cLen, 1)
	s := common.Sqrt32(max(0, 1-k*k))
	t1 := common.Rotate2(u, k, s)
	t2 := common.Rotate2(u, k, -s)
	vo.dir1 = common.PerpRight(t1)
	vo.dir2 = common.PerpRight(t2)
	vo.line1 = t1.Mul(r).Add(vo.circleCenter)
	vo.line2 = t2.Mul(r).Add(vo.circleCenter)
	b.agents = append(b.agents, vo)
}

// addSegment adds the obstacle induced by the directed edge start->end, both
// relative to the agent. The agent must keep the edge on its left.
func (b *voBuffer) addSegment(start, end, offset common.Vec2, radius, invDt, invDeltaTime float32) {
	weightBonus := max(radius, 1) * 40

	closest := common.ClosestPointOnSegment(start, end, common.Vec2{})
	closestDir, closestLen := common.NormalizeWithLen(closest)
	if closestLen <= radius {
		line := closestDir.Mul((closestLen - radius) * 0.3 * invDeltaTime)
		b.nearField = append(b.nearField, nearFieldVO{
			line:         line.Add(offset),
			dir:          common.Normalized(common.PerpRight(line)),
			weightFactor: 1,
			weightBonus:  weightBonus,
		})
		return
	}

	start = start.Mul(invDt)
	end = end.Mul(invDt)
	radius *= invDt

	tangent := common.Normalized(end.Sub(start))
	vo := segmentVO{
		cutoffDir:   tangent,
		cutoffLine:  start.Add(common.PerpLeft(tangent).Mul(radius)).Add(offset),
		segStart:    start,
		segEnd:      end,
		radius:      radius,
		weightBonus: weightBonus,
	}

	startSq := start.LenSqr()
	normal1 := common.ComplexMultiply(start, common.Vec2{radius, common.Sqrt32(max(0, startSq-radius*radius))}).Mul(-1 / startSq)
	endSq := end.LenSqr()
	normal2 := common.ComplexMultiply(end, common.Vec2{radius, -common.Sqrt32(max(0, endSq-radius*radius))}).Mul(-1 / endSq)

	vo.line1 = start.Add(normal1.Mul(radius)).Add(offset)
	vo.line2 = end.Add(normal2.Mul(radius)).Add(offset)
	vo.dir1 = common.PerpRight(normal1)
	vo.dir2 = common.PerpRight(normal2)
	b.segments = append(b.segments, vo)
}

// maxValue is the largest raw cost over all obstacles at p, roughly how far p
// lies inside the deepest obstacle.
func (b *voBuffer) maxValue(p common.Vec2) float32 {
	var value float32
	for i := range b.nearField {
		_, w := b.nearField[i].gradient(p)
		value = max(value, w)
	}
	for i := range b.agents {
		_, w := b.agents[i].gradient(p)
		value = max(value, w)
	}
	for i := range b.segments {
		_, w := b.segments[i].gradient(p)
		value = max(value, w)
	}
	return value
}

// maxScaledGradient returns the scaled gradient of the obstacle with the highest weight at p.
func (b *voBuffer) maxScaledGradient(p common.Vec2) (common.Vec2, float32) {
	var (
		gradient common.Vec2
		value    float32
	)
	for i := range b.nearField {
		vo := &b.nearField[i]
		g, w := vo.gradient(p)
		if g, w = scaled(g, w, vo.weightFactor, vo.weightBonus); w > value {
			gradient, value = g, w
		}
	}
	for i := range b.agents {
		vo := &b.agents[i]
		g, w := vo.gradient(p)
		if g, w = scaled(g, w, vo.weightFactor, 0); w > value {
			gradient, value = g, w
		}
	}
	for i := range b.segments {
		vo := &b.segments[i]
		g, w := vo.gradient(p)
		if g, w = scaled(g, w, 1, vo.weightBonus); w > value {
			gradient, value = g, w
		}
	}
	return gradient, value
}

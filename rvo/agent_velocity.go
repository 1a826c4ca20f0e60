package rvo

import (
	"github.com/gorustyt/gorvo/common"
	"github.com/gorustyt/gorvo/debug_utils"
)

// calculateVelocity computes the avoidance result of the tick from the snapshot.
func (a *Agent) calculateVelocity(ctx *workerContext, t *tickState) {
	w := &a.w
	if w.manual {
		return
	}
	if w.locked {
		a.setResult(w.position, 0)
		return
	}

	var dbg *agentDebug
	if w.debugDraw && t.debugDraw != nil {
		ctx.debug = agentDebug{dd: t.debugDraw, origin: w.position}
		dbg = &ctx.debug
		dbg.circle(common.Vec2{}, w.maxSpeed, debug_utils.ColorMaxSpeed)
		dbg.circle(common.Vec2{}, w.desiredSpeed, debug_utils.ColorDesiredSpeed)
	}

	vos := &ctx.vos
	vos.clear()
	a.generateObstacleVOs(vos, t)
	a.generateNeighbourAgentVOs(vos, t, dbg)

	desiredVelocity, desiredTarget, inside := biasDesiredVelocity(vos, w.desiredVelocity, w.desiredTarget, t.symmetryBreakingBias)
	if !inside {
		// Outside every obstacle the desired velocity is the optimum. Using the target
		// point instead of position+velocity matters when the agent is close to it.
		if dbg != nil {
			dbg.cross(desiredTarget, debug_utils.ColorWhite, 1)
		}
		a.setResult(desiredTarget.Add(w.position), w.desiredSpeed)
		return
	}

	cost := costModel{
		vos:             vos,
		desiredVelocity: desiredVelocity,
		desiredSpeed:    w.desiredSpeed,
		maxSpeed:        w.maxSpeed,
		debug:           dbg,
	}
	result := cost.gradientDescent(w.currentVelocity, desiredVelocity, max(w.radius, 0.2*w.desiredSpeed))
	if dbg != nil {
		dbg.cross(result, debug_utils.ColorWhite, 1)
	}
	a.setResult(w.position.Add(result), min(result.Len(), w.maxSpeed))
}

// generateObstacleVOs adds a segment obstacle for every obstacle edge the agent could
// reach within its obstacle time horizon and that it sees from the outside.
func (a *Agent) generateObstacleVOs(vos *voBuffer, t *tickState) {
	w := &a.w
	reach := w.maxSpeed * w.obstacleTimeHorizon
	invHorizon := 1 / w.obstacleTimeHorizon

	for _, obstacle := range t.obstacles {
		vertex := obstacle
		for {
			if next := vertex.next; next != nil && !vertex.ignore && vertex.layer.Overlaps(w.collidesWith) {
				p1, elevation1 := t.to2D(vertex.position)
				p2, elevation2 := t.to2D(next.position)
				edge := p2.Sub(p1)
				edgeSq := edge.LenSqr()

				// Distance to the infinite line, positive on the outside.
				dist := common.SignedDistanceFromLine(p1, common.Normalized(edge), w.position)
				if edgeSq > 1e-12 && dist >= -0.01 && dist < reach {
					along := w.position.Sub(p1).Dot(edge) / edgeSq
					segmentElevation := common.Lerp(elevation1, elevation2, along)
					closest := common.Lerp2(p1, p2, along)

					if closest.Sub(w.position).LenSqr() < reach*reach &&
						(t.plane == PlaneXY || (w.elevation <= segmentElevation+vertex.height && w.elevation+w.height >= segmentElevation)) {
						vos.addSegment(p2.Sub(w.position), p1.Sub(w.position), common.Vec2{}, w.radius*0.01, invHorizon, 1/t.deltaTime)
					}
				}
			}

			vertex = vertex.next
			if vertex == obstacle || vertex == nil || vertex.next == nil {
				break
			}
		}
	}
}

// avoidanceStrength is the share of the avoidance this agent takes on against other.
func avoidanceStrength(own, other *agentState) float32 {
	switch {
	case other.locked || other.manual:
		return 1
	case other.priority > 0.00001 || own.priority > 0.00001:
		return other.priority / (own.priority + other.priority)
	}
	// Both are zero or negative, assume equal priority.
	return 0.5
}

func (a *Agent) generateNeighbourAgentVOs(vos *voBuffer, t *tickState, dbg *agentDebug) {
	w := &a.w
	invHorizon := 1 / w.agentTimeHorizon

	for _, other := range a.neighbours {
		o := &other.w

		// Agents on different elevation bands cannot collide.
		maxY := min(w.elevation+w.height, o.elevation+o.height)
		minY := max(w.elevation, o.elevation)
		if maxY-minY < 0 {
			continue
		}

		totalRadius := w.radius + o.radius
		center := o.position.Sub(w.position)
		strength := avoidanceStrength(w, o)

		// A neighbour with a higher priority is assumed to keep heading toward its
		// goal, a lower priority one is assumed to keep its current velocity.
		otherOptimal := common.Lerp2(o.currentVelocity, o.desiredVelocity, 2*strength-1)
		offset := common.Lerp2(w.currentVelocity, otherOptimal, strength)

		vos.addAgent(center, offset, totalRadius, invHorizon, 1/t.deltaTime)
		if dbg != nil {
			dbg.vo(center.Mul(invHorizon).Add(offset), totalRadius*invHorizon, offset)
		}
	}
}

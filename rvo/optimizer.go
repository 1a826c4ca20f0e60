package rvo

import (
	"math"

	"github.com/gorustyt/gorvo/common"
	"github.com/gorustyt/gorvo/debug_utils"
)

const (
	// DesiredVelocityWeight scales the pull toward the desired velocity.
	DesiredVelocityWeight = 0.1
	// Must be strictly greater than DesiredVelocityWeight or the agent will not
	// prefer its desired speed over its max speed.
	speedPenaltyWeight = 2 * DesiredVelocityWeight
	MaxSpeedWeight     = 3
	// TraceIterations is the number of gradient steps taken from each seed.
	TraceIterations = 50
)

// costModel is the function minimised in velocity space.
type costModel struct {
	vos             *voBuffer
	desiredVelocity common.Vec2
	desiredSpeed    float32
	maxSpeed        float32
	debug           *agentDebug
}

// evaluateGradient returns the negative gradient of the cost at p and its value.
func (c *costModel) evaluateGradient(p common.Vec2) (common.Vec2, float32) {
	gradient, value := c.vos.maxScaledGradient(p)

	toDesired := c.desiredVelocity.Sub(p)
	if dist := toDesired.Len(); dist > 0.0001 {
		gradient = gradient.Add(toDesired.Mul(DesiredVelocityWeight / dist))
		value += dist * DesiredVelocityWeight
	}

	// Prefer speeds up to the desired speed, and avoid speeds above max speed.
	if sqrSpeed := p.LenSqr(); sqrSpeed > c.desiredSpeed*c.desiredSpeed {
		speed := common.Sqrt32(sqrSpeed)
		dir := p.Mul(1 / speed)
		if speed > c.maxSpeed {
			value += MaxSpeedWeight * (speed - c.maxSpeed)
			gradient = gradient.Sub(dir.Mul(MaxSpeedWeight))
		}
		value += speedPenaltyWeight * (speed - c.desiredSpeed)
		gradient = gradient.Sub(dir.Mul(speedPenaltyWeight))
	}
	return gradient, value
}

// trace follows the normalized gradient from p with a quadratically decaying
// step and returns the lowest cost point it visited.
func (c *costModel) trace(p common.Vec2, stepSize float32) (common.Vec2, float32) {
	bestScore := float32(math.Inf(1))
	bestP := p
	for s := 0; s < TraceIterations; s++ {
		step := common.Sqr(1-float32(s)/TraceIterations) * stepSize

		gradient, value := c.evaluateGradient(p)
		if value < bestScore {
			bestScore = value
			bestP = p
		}

		prev := p
		p = p.Add(common.Normalized(gradient).Mul(step))
		if c.debug != nil {
			c.debug.line(prev, p, debug_utils.DuTransCol(debug_utils.Rainbow(float32(s)*0.1), 160))
		}
	}
	return bestP, bestScore
}

// gradientDescent traces from both seeds and keeps the better result.
func (c *costModel) gradientDescent(seed1, seed2 common.Vec2, stepSize float32) common.Vec2 {
	minima1, score1 := c.trace(seed1, stepSize)
	if c.debug != nil {
		c.debug.cross(minima1, debug_utils.ColorYellow, 0.5)
	}
	minima2, score2 := c.trace(seed2, stepSize)
	if c.debug != nil {
		c.debug.cross(minima2, debug_utils.ColorMagenta, 0.5)
	}
	if score1 < score2 {
		return minima1
	}
	return minima2
}

// biasDesiredVelocity rotates the desired velocity (and the target, relative to the
// agent) clockwise by at most maxBias radians, but only when the desired velocity lies
// inside an obstacle and never further than to its edge. A negative maxBias rotates
// counter clockwise. The rotation is the small angle approximation v + perp(v)*angle.
// It reports whether the desired velocity was inside any obstacle.
func biasDesiredVelocity(vos *voBuffer, desiredVelocity, desiredTarget common.Vec2, maxBias float32) (common.Vec2, common.Vec2, bool) {
	maxValue := vos.maxValue(desiredVelocity)
	inside := maxValue > 0

	magnitude := desiredVelocity.Len()
	if !inside || magnitude < 0.001 || maxBias == 0 {
		return desiredVelocity, desiredTarget, inside
	}

	angle := common.Sign(maxBias) * min(common.Abs(maxBias), maxValue/magnitude)
	desiredVelocity = desiredVelocity.Add(common.PerpRight(desiredVelocity).Mul(angle))
	desiredTarget = desiredTarget.Add(common.PerpRight(desiredTarget).Mul(angle))
	return desiredVelocity, desiredTarget, inside
}

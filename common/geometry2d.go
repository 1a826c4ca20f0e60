package common

import "math"

// / Vectors shorter than this normalize to zero.
const NormalizeEpsilon = 1e-5

// / Returns the unit vector of @p v, or the zero vector when @p v is too short.
func Normalized(v Vec2) Vec2 {
	n, _ := NormalizeWithLen(v)
	return n
}

// / Returns the unit vector of @p v together with the original length.
// / Short vectors return (0,0) and their (tiny) length.
func NormalizeWithLen(v Vec2) (Vec2, float32) {
	l := v.Len()
	if l > NormalizeEpsilon {
		return Vec2{v[0] / l, v[1] / l}, l
	}
	return Vec2{}, l
}

// / Linear interpolation from @p a toward @p b, @p t is clamped to [0, 1].
func Lerp2(a, b Vec2, t float32) Vec2 {
	t = Clamp(t, 0, 1)
	return Vec2{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// / Scalar version of #Lerp2, @p t is clamped to [0, 1].
func Lerp(a, b, t float32) float32 {
	t = Clamp(t, 0, 1)
	return a + (b-a)*t
}

// / Right-hand perpendicular (x, y) -> (y, -x).
func PerpRight(v Vec2) Vec2 {
	return Vec2{v[1], -v[0]}
}

// / Left-hand perpendicular (x, y) -> (-y, x).
func PerpLeft(v Vec2) Vec2 {
	return Vec2{-v[1], v[0]}
}

// / Returns a negative number if @p p lies on the left side of the line through @p a
// / with tangent @p dir. With a unit @p dir this is the signed distance to the line.
func SignedDistanceFromLine(a, dir, p Vec2) float32 {
	return (p[0]-a[0])*dir[1] - dir[0]*(p[1]-a[1])
}

// / Treats the vectors as complex numbers and multiplies them.
func ComplexMultiply(a, b Vec2) Vec2 {
	return Vec2{a[0]*b[0] - a[1]*b[1], a[0]*b[1] + a[1]*b[0]}
}

// / Closest point to @p p on the segment [@p a, @p b].
func ClosestPointOnSegment(a, b, p Vec2) Vec2 {
	dir := b.Sub(a)
	sqrLen := dir.LenSqr()
	if sqrLen <= 1e-12 {
		return a
	}
	t := Clamp(p.Sub(a).Dot(dir)/sqrLen, 0, 1)
	return a.Add(dir.Mul(t))
}

// / Rotates the unit vector @p u by the angle whose cosine and sine are @p c and @p s.
func Rotate2(u Vec2, c, s float32) Vec2 {
	return Vec2{u[0]*c - u[1]*s, u[0]*s + u[1]*c}
}

// / Checks all three components for NaN and infinities.
func IsFinite3(v Vec3) bool {
	return isFinite32(v[0]) && isFinite32(v[1]) && isFinite32(v[2])
}

func isFinite32(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// / Axis aligned rectangle on the simulation plane.
type Rect struct {
	Min, Max Vec2
}

// / Rectangle spanning the two corners.
func MinMaxRect(xmin, ymin, xmax, ymax float32) Rect {
	return Rect{Min: Vec2{xmin, ymin}, Max: Vec2{xmax, ymax}}
}

func (r Rect) Center() Vec2 {
	return Vec2{(r.Min[0] + r.Max[0]) * 0.5, (r.Min[1] + r.Max[1]) * 0.5}
}

// / Grows the rectangle so that it contains @p p.
func (r Rect) Encapsulate(p Vec2) Rect {
	return MinMaxRect(min(r.Min[0], p[0]), min(r.Min[1], p[1]), max(r.Max[0], p[0]), max(r.Max[1], p[1]))
}

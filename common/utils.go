package common

import "github.com/go-gl/mathgl/mgl32"

type Vec3 = mgl32.Vec3
type Vec4 = mgl32.Vec4
type Vec2 = mgl32.Vec2
type Mat4 = mgl32.Mat4

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

type ST interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// / Projects a 3D point onto the XZ plane.
func ToXZ(v Vec3) Vec2 {
	return Vec2{v[0], v[2]}
}

// / Projects a 3D point onto the XY plane.
func ToXY(v Vec3) Vec2 {
	return Vec2{v[0], v[1]}
}

// / Transforms the point @p v by the matrix @p m (w = 1).
func TransformPoint(m Mat4, v Vec3) Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}

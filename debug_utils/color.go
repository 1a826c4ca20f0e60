package debug_utils

type Colorb [4]uint8

func (c Colorb) R() uint8 {
	return c[0]
}

func (c Colorb) G() uint8 {
	return c[1]
}

func (c Colorb) B() uint8 {
	return c[2]
}

func (c Colorb) A() uint8 {
	return c[3]
}

func (c Colorb) Int() uint32 {
	return uint32(c.R()) | (uint32(c.G()) << 8) | (uint32(c.B()) << 16) | (uint32(c.A()) << 24)
}

func (c *Colorb) FromInt(col uint32) {
	c[0] = uint8(col & 0xff)
	c[1] = uint8((col >> 8) & 0xff)
	c[2] = uint8((col >> 16) & 0xff)
	c[3] = uint8((col >> 24) & 0xff)
}

var (
	ColorWhite   = DuRGBA(255, 255, 255, 255)
	ColorBlack   = DuRGBA(0, 0, 0, 255)
	ColorYellow  = DuRGBA(255, 255, 0, 255)
	ColorMagenta = DuRGBA(255, 0, 255, 255)

	ColorMaxSpeed     = DuDarkenCol(ColorWhite)                 ///< Max speed circle of a debugged agent.
	ColorDesiredSpeed = DuLerpCol(ColorWhite, ColorYellow, 128) ///< Desired speed circle of a debugged agent.
)

func DuRGBA[T int | int32 | uint8](r, g, b, a T) Colorb {
	return Colorb{uint8(r), uint8(g), uint8(b), uint8(a)}
}

func DuRGBAf(fr, fg, fb, fa float32) Colorb {
	r := int(fr * 255.0)
	g := int(fg * 255.0)
	b := int(fb * 255.0)
	a := int(fa * 255.0)
	return DuRGBA(r, g, b, a)
}

func DuDarkenCol(col Colorb) (res Colorb) {
	i := col.Int()
	res.FromInt(((i >> 1) & 0x007f7f7f) | (i & 0xff000000))
	return res
}

func DuLerpCol(ca, cb Colorb, u uint8) Colorb {
	lerp := func(a, b uint8) int {
		return (int(a)*(255-int(u)) + int(b)*int(u)) / 255
	}
	return DuRGBA(lerp(ca.R(), cb.R()), lerp(ca.G(), cb.G()), lerp(ca.B(), cb.B()), lerp(ca.A(), cb.A()))
}

func DuTransCol(c Colorb, a uint8) Colorb {
	return Colorb{c.R(), c.G(), c.B(), a}
}

// / Red, then yellow, then white as @p v goes from 0 to 3.
// / Used to tell optimizer iterations apart.
func Rainbow(v float32) Colorb {
	r, g, b := v, float32(0), float32(0)
	if r > 1 {
		g = r - 1
		r = 1
	}
	if g > 1 {
		b = g - 1
		g = 1
	}
	if b > 1 {
		b = 1
	}
	return DuRGBAf(r, g, b, 1)
}

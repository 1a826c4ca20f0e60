package rvo

// Layer is a bitmask used to decide which agents and obstacles avoid each other.
type Layer uint32

const (
	DefaultAgent Layer = 1 << iota
	DefaultObstacle
	Layer2
	Layer3
	Layer4
	Layer5
	Layer6
	Layer7
	Layer8
	Layer9
	Layer10
	Layer11
	Layer12
	Layer13
	Layer14
	Layer15
	Layer16
	Layer17
	Layer18
	Layer19
	Layer20
	Layer21
	Layer22
	Layer23
	Layer24
	Layer25
	Layer26
	Layer27
	Layer28
	Layer29
	Layer30
)

// AllLayers collides with every layer.
const AllLayers = ^Layer(0)

func (l Layer) Overlaps(other Layer) bool {
	return l&other != 0
}

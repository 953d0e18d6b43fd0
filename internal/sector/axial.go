package sector

// Axial is a pointy-top axial hex coordinate with the center at the origin.
type Axial struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Directions holds the axial step of each absolute neighbor direction.
var Directions = [Count]Axial{
	{+1, 0}, {+1, -1}, {0, -1}, {-1, 0}, {-1, +1}, {0, +1},
}

// Add returns a+b in axial space.
func (a Axial) Add(b Axial) Axial { return Axial{a.Q + b.Q, a.R + b.R} }

// Mul scales an axial vector by k.
func (a Axial) Mul(k int) Axial { return Axial{a.Q * k, a.R * k} }

// Step returns the axial coordinate one cell away in absolute direction dir.
func (a Axial) Step(dir int) Axial { return a.Add(Directions[Wrap(dir)]) }

// Distance returns the hex distance between a and b.
func Distance(a, b Axial) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs((-a.Q - a.R) - (-b.Q - b.R))
	return max(dq, dr, ds)
}

// ToAxial places an address on the axial grid: ring steps along the
// sector's direction, then offset steps two directions further round.
func ToAxial(a Address) Axial {
	if a.IsCenter() {
		return Axial{}
	}
	return Directions[Wrap(a.Sector)].Mul(a.Ring).Add(Directions[Wrap(a.Sector+2)].Mul(a.Offset))
}

// FromAxial returns the address at axial coordinate p.
func FromAxial(p Axial) Address {
	ring := Distance(Axial{}, p)
	if ring == 0 {
		return Center
	}
	for s := 0; s < Count; s++ {
		rest := p.Add(Directions[s].Mul(-ring))
		step := Directions[Wrap(s+2)]
		for o := 0; o < ring; o++ {
			if rest == step.Mul(o) {
				return Address{Sector: s, Ring: ring, Offset: o}
			}
		}
	}
	// Every non-origin point lies in exactly one sector wedge.
	panic("sector: axial coordinate outside every sector")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Package hexgrid provides coordinate math for a flat-top hexagonal grid
// addressed with even-column offset coordinates ("even-q" layout): hexes
// in even columns sit half a row lower than hexes in odd columns.
package hexgrid

// Coord identifies a hex by its (column, row) position on the grid.
type Coord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Side identifies one of the six edges of a flat-top hex, numbered 0-5
// clockwise starting at the top edge.
type Side int

const (
	SideTop Side = iota
	SideTopRight
	SideBottomRight
	SideBottom
	SideBottomLeft
	SideTopLeft
)

// Sides lists the six sides in canonical clockwise order. Code that
// scans neighbors in a defined order must iterate this slice, not a map.
var Sides = [6]Side{
	SideTop,
	SideTopRight,
	SideBottomRight,
	SideBottom,
	SideBottomLeft,
	SideTopLeft,
}

// String returns the side name.
func (s Side) String() string {
	switch s {
	case SideTop:
		return "top"
	case SideTopRight:
		return "top-right"
	case SideBottomRight:
		return "bottom-right"
	case SideBottom:
		return "bottom"
	case SideBottomLeft:
		return "bottom-left"
	case SideTopLeft:
		return "top-left"
	default:
		return "invalid"
	}
}

// Neighbor offsets per side, indexed by column parity. Vertical
// neighbors are parity-independent; the four diagonal sides shift rows
// differently because even columns are shoved down half a hex.
var (
	evenColOffsets = [6]Coord{{0, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}}
	oddColOffsets  = [6]Coord{{0, -1}, {1, -1}, {1, 0}, {0, 1}, {-1, 0}, {-1, -1}}
)

// Neighbor returns the coordinate of the hex adjacent to c across the
// given side.
func Neighbor(c Coord, s Side) Coord {
	var d Coord
	if c.Col&1 == 0 {
		d = evenColOffsets[s]
	} else {
		d = oddColOffsets[s]
	}
	return Coord{Col: c.Col + d.Col, Row: c.Row + d.Row}
}

// Neighbors returns the six adjacent coordinates of c in side order.
func (c Coord) Neighbors() [6]Coord {
	var out [6]Coord
	for i, s := range Sides {
		out[i] = Neighbor(c, s)
	}
	return out
}

// Opposite returns the side of the adjacent hex that faces back across
// the same edge. For a flat-top hex this is a half turn regardless of
// column parity.
func Opposite(s Side) Side {
	return (s + 3) % 6
}

// cube converts an even-q offset coordinate to cube coordinates
// (x + y + z = 0). Only used for distance math; adjacency goes through
// the offset tables so the two must stay consistent.
func cube(c Coord) (x, y, z int) {
	x = c.Col
	z = c.Row - (c.Col+(c.Col&1))/2
	y = -x - z
	return
}

// Distance returns the minimum number of hex steps between a and b.
func Distance(a, b Coord) int {
	ax, ay, az := cube(a)
	bx, by, bz := cube(b)
	dx := abs(ax - bx)
	dy := abs(ay - by)
	dz := abs(az - bz)
	if dx >= dy && dx >= dz {
		return dx
	}
	if dy >= dz {
		return dy
	}
	return dz
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

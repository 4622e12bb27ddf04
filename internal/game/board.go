package game

import (
	"encoding/json"
	"sort"

	"hexfront/pkg/hexgrid"
)

// EdgeMask is a 6-bit set of hex sides, bit i corresponding to side i.
// Rivers and roads are edge attributes: the same physical edge is
// recorded on both adjacent hexes, each under its own side index. The
// two copies can disagree after a partial edit, so rules that consult
// a mask accept either hex reporting the feature.
type EdgeMask uint8

// Has reports whether the given side is set.
func (m EdgeMask) Has(s hexgrid.Side) bool {
	return m&(1<<uint(s)) != 0
}

// With returns a copy of the mask with the given side set.
func (m EdgeMask) With(s hexgrid.Side) EdgeMask {
	return m | 1<<uint(s)
}

// Without returns a copy of the mask with the given side cleared.
func (m EdgeMask) Without(s hexgrid.Side) EdgeMask {
	return m &^ (1 << uint(s))
}

// Hex is a single cell of the board.
type Hex struct {
	hexgrid.Coord
	Terrain Terrain  `json:"terrain"`
	Rivers  EdgeMask `json:"rivers,omitempty"`
	Roads   EdgeMask `json:"roads,omitempty"`
}

// Board holds the hex collection and bounds for one map.
// Hexes inside the bounds may be absent; a missing hex is never
// enterable.
type Board struct {
	Width  int
	Height int
	Hexes  map[hexgrid.Coord]*Hex
}

// NewBoard creates an empty board with the given bounds.
func NewBoard(width, height int) *Board {
	return &Board{
		Width:  width,
		Height: height,
		Hexes:  make(map[hexgrid.Coord]*Hex),
	}
}

// InBounds reports whether a coordinate lies inside the board bounds.
func (b *Board) InBounds(c hexgrid.Coord) bool {
	return c.Col >= 0 && c.Col < b.Width && c.Row >= 0 && c.Row < b.Height
}

// HexAt returns the hex at a coordinate, or nil if none exists.
func (b *Board) HexAt(c hexgrid.Coord) *Hex {
	return b.Hexes[c]
}

// SetHex places a hex on the board, replacing any existing hex at the
// same coordinate.
func (b *Board) SetHex(h *Hex) {
	b.Hexes[h.Coord] = h
}

// boardJSON is the serialized form of a Board. Hexes are stored as a
// flat list so the format matches scenario files.
type boardJSON struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Hexes  []*Hex `json:"hexes"`
}

// MarshalJSON encodes the board with hexes in column-major order so
// repeated saves of the same board are byte-identical.
func (b *Board) MarshalJSON() ([]byte, error) {
	out := boardJSON{
		Width:  b.Width,
		Height: b.Height,
		Hexes:  make([]*Hex, 0, len(b.Hexes)),
	}
	for _, h := range b.Hexes {
		out.Hexes = append(out.Hexes, h)
	}
	sort.Slice(out.Hexes, func(i, j int) bool {
		if out.Hexes[i].Col != out.Hexes[j].Col {
			return out.Hexes[i].Col < out.Hexes[j].Col
		}
		return out.Hexes[i].Row < out.Hexes[j].Row
	})
	return json.Marshal(out)
}

// UnmarshalJSON decodes a board from its serialized form.
func (b *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Width = raw.Width
	b.Height = raw.Height
	b.Hexes = make(map[hexgrid.Coord]*Hex, len(raw.Hexes))
	for _, h := range raw.Hexes {
		b.Hexes[h.Coord] = h
	}
	return nil
}

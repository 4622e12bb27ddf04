package scenario

import (
	"fmt"
	"strings"

	"hexfront/internal/game"
	"hexfront/pkg/hexgrid"
)

// terrainGlyphs maps each terrain to its map symbol.
var terrainGlyphs = map[game.Terrain]byte{
	game.TerrainClear:    '.',
	game.TerrainMountain: '^',
	game.TerrainForest:   'f',
	game.TerrainWater:    '~',
	game.TerrainDesert:   'd',
	game.TerrainSwamp:    's',
	game.TerrainTown:     '#',
}

// Debug returns a string visualization of the scenario.
func (d *Document) Debug() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Scenario: %s (%s)\n", d.Name, d.ID))
	sb.WriteString(fmt.Sprintf("Size: %dx%d\n", d.Width, d.Height))
	sb.WriteString(fmt.Sprintf("Units: %d\n\n", len(d.Units)))

	glyph := make(map[hexgrid.Coord]byte, len(d.Hexes))
	counts := make(map[game.Terrain]int)
	riverBits, roadBits := 0, 0
	for _, h := range d.Hexes {
		b, ok := terrainGlyphs[h.Terrain]
		if !ok {
			b = '?'
		}
		glyph[h.Coord] = b
		counts[h.Terrain]++
		for _, s := range hexgrid.Sides {
			if h.Rivers.Has(s) {
				riverBits++
			}
			if h.Roads.Has(s) {
				roadBits++
			}
		}
	}

	// Units draw over terrain.
	for _, u := range d.Units {
		if u.Side == game.PlayerOne {
			glyph[u.Coord] = '1'
		} else {
			glyph[u.Coord] = '2'
		}
	}

	for row := 0; row < d.Height; row++ {
		for col := 0; col < d.Width; col++ {
			b, ok := glyph[hexgrid.Coord{Col: col, Row: row}]
			if !ok {
				b = ' '
			}
			sb.WriteByte(b)
			sb.WriteByte(' ')
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nTerrain:\n")
	for t := game.TerrainClear; t <= game.TerrainTown; t++ {
		if counts[t] > 0 {
			sb.WriteString(fmt.Sprintf("  %-8s %d\n", t.String(), counts[t]))
		}
	}

	// Each physical edge is stamped on both hexes, so halve the bit counts.
	sb.WriteString(fmt.Sprintf("\nRiver edges: %d\nRoad edges: %d\n", riverBits/2, roadBits/2))

	return sb.String()
}

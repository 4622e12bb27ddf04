package scenario

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"hexfront/internal/game"
	"hexfront/pkg/hexgrid"
)

// Options contains settings for scenario generation.
type Options struct {
	Width        int    // Board width: 8-48
	Height       int    // Board height: 6-36
	Seed         int64  // Random seed (0 = derive from clock)
	WaterPercent int    // Rough share of water hexes: 0-40
	Rivers       int    // Rivers to trace: 0-6
	Towns        int    // Towns to place and link with roads: 0-8
	UnitsPerSide int    // Starting units per side: 1-10
	Name         string // Scenario name ("" = pick from the name pool)
}

// DefaultOptions returns a balanced medium-sized setup.
func DefaultOptions() Options {
	return Options{
		Width:        16,
		Height:       12,
		WaterPercent: 12,
		Rivers:       2,
		Towns:        3,
		UnitsPerSide: 5,
	}
}

// Generator builds random scenarios from layered simplex noise.
type Generator struct {
	opts  Options
	seed  int64
	rng   *rand.Rand
	board *game.Board
	elev  map[hexgrid.Coord]float64
	taken map[hexgrid.Coord]bool
}

// NewGenerator creates a scenario generator, clamping options to sane ranges.
func NewGenerator(opts Options) *Generator {
	opts.Width = clamp(opts.Width, 8, 48)
	opts.Height = clamp(opts.Height, 6, 36)
	opts.WaterPercent = clamp(opts.WaterPercent, 0, 40)
	opts.Rivers = clamp(opts.Rivers, 0, 6)
	opts.Towns = clamp(opts.Towns, 0, 8)
	opts.UnitsPerSide = clamp(opts.UnitsPerSide, 1, 10)

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Generator{
		opts:  opts,
		seed:  seed,
		rng:   rand.New(rand.NewSource(seed)),
		elev:  make(map[hexgrid.Coord]float64),
		taken: make(map[hexgrid.Coord]bool),
	}
}

// clamp restricts a value to a range
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Generate creates a complete scenario document. The same options and
// seed always produce the same document.
func (g *Generator) Generate() *Document {
	g.buildTerrain()
	g.traceRivers()
	g.placeTowns()
	units := g.placeUnits()

	return &Document{
		ID:     fmt.Sprintf("gen-%d", g.seed),
		Name:   g.pickName(),
		Width:  g.opts.Width,
		Height: g.opts.Height,
		Hexes:  g.sortedHexes(),
		Units:  units,
	}
}

// buildTerrain derives terrain for every hex from layered elevation
// and moisture noise.
func (g *Generator) buildTerrain() {
	elevNoise := opensimplex.NewNormalized(g.seed)
	moistNoise := opensimplex.NewNormalized(g.seed + 1)

	g.board = game.NewBoard(g.opts.Width, g.opts.Height)
	moist := make(map[hexgrid.Coord]float64, g.opts.Width*g.opts.Height)

	// Sample noise at hex centers. Flat-top hexes advance 3/4 of a hex
	// width per column; even columns sit half a row lower.
	values := make([]float64, 0, g.opts.Width*g.opts.Height)
	g.eachCoord(func(c hexgrid.Coord) {
		x := float64(c.Col) * 0.75
		y := float64(c.Row)
		if c.Col&1 == 0 {
			y += 0.5
		}

		e := octaveNoise(elevNoise, x, y, 4, 0.09, 0.5)
		g.elev[c] = e
		moist[c] = octaveNoise(moistNoise, x, y, 3, 0.07, 0.5)
		values = append(values, e)
	})

	// Flood roughly the lowest WaterPercent of the board.
	seaLevel := -1.0
	if g.opts.WaterPercent > 0 {
		sort.Float64s(values)
		idx := len(values) * g.opts.WaterPercent / 100
		if idx >= len(values) {
			idx = len(values) - 1
		}
		seaLevel = values[idx]
	}

	g.eachCoord(func(c hexgrid.Coord) {
		g.board.SetHex(&game.Hex{
			Coord:   c,
			Terrain: deriveTerrain(g.elev[c], moist[c], seaLevel),
		})
	})
}

// deriveTerrain determines a hex's terrain from its environment.
func deriveTerrain(elev, moist, seaLevel float64) game.Terrain {
	if elev < seaLevel {
		return game.TerrainWater
	}
	if elev > 0.76 {
		return game.TerrainMountain
	}
	if moist > 0.72 && elev < 0.45 {
		return game.TerrainSwamp
	}
	if moist < 0.24 && elev > 0.5 {
		return game.TerrainDesert
	}
	if moist > 0.55 {
		return game.TerrainForest
	}
	return game.TerrainClear
}

// traceRivers runs rivers downhill from high ground, stamping each
// crossed edge on both adjacent hexes.
func (g *Generator) traceRivers() {
	if g.opts.Rivers == 0 {
		return
	}

	// Sources come from the highest quarter of the land.
	var land []hexgrid.Coord
	g.eachCoord(func(c hexgrid.Coord) {
		if g.board.HexAt(c).Terrain != game.TerrainWater {
			land = append(land, c)
		}
	})
	sort.Slice(land, func(i, j int) bool {
		ei, ej := g.elev[land[i]], g.elev[land[j]]
		if ei != ej {
			return ei > ej
		}
		if land[i].Col != land[j].Col {
			return land[i].Col < land[j].Col
		}
		return land[i].Row < land[j].Row
	})

	top := len(land) / 4
	if top < g.opts.Rivers {
		top = g.opts.Rivers
	}
	if top > len(land) {
		top = len(land)
	}
	sources := land[:top]

	g.rng.Shuffle(len(sources), func(i, j int) {
		sources[i], sources[j] = sources[j], sources[i]
	})
	if len(sources) > g.opts.Rivers {
		sources = sources[:g.opts.Rivers]
	}

	for _, src := range sources {
		g.traceRiver(src)
	}
}

// traceRiver follows the steepest descent from a source hex until it
// reaches water or runs out of downhill path.
func (g *Generator) traceRiver(start hexgrid.Coord) {
	current := start
	visited := map[hexgrid.Coord]bool{start: true}

	maxSteps := g.opts.Width + g.opts.Height
	for step := 0; step < maxSteps; step++ {
		if g.board.HexAt(current).Terrain == game.TerrainWater {
			return
		}

		// Find the lowest unvisited neighbor.
		bestSide := hexgrid.Side(-1)
		bestElev := g.elev[current]
		for _, s := range hexgrid.Sides {
			nb := hexgrid.Neighbor(current, s)
			if !g.board.InBounds(nb) || visited[nb] {
				continue
			}
			if e := g.elev[nb]; e < bestElev {
				bestElev = e
				bestSide = s
			}
		}
		if bestSide < 0 {
			return // no downhill path; the river peters out
		}

		next := hexgrid.Neighbor(current, bestSide)
		cur := g.board.HexAt(current)
		nbh := g.board.HexAt(next)
		cur.Rivers = cur.Rivers.With(bestSide)
		nbh.Rivers = nbh.Rivers.With(hexgrid.Opposite(bestSide))

		visited[next] = true
		current = next
	}
}

// placeTowns converts suitable clear hexes into towns and links
// successive towns with roads, west to east.
func (g *Generator) placeTowns() {
	if g.opts.Towns == 0 {
		return
	}

	var sites []hexgrid.Coord
	g.eachCoord(func(c hexgrid.Coord) {
		if g.board.HexAt(c).Terrain == game.TerrainClear {
			sites = append(sites, c)
		}
	})
	g.rng.Shuffle(len(sites), func(i, j int) {
		sites[i], sites[j] = sites[j], sites[i]
	})

	var towns []hexgrid.Coord
	for _, c := range sites {
		if len(towns) == g.opts.Towns {
			break
		}
		tooClose := false
		for _, t := range towns {
			if hexgrid.Distance(c, t) < 3 {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		g.board.HexAt(c).Terrain = game.TerrainTown
		towns = append(towns, c)
	}

	sort.Slice(towns, func(i, j int) bool {
		if towns[i].Col != towns[j].Col {
			return towns[i].Col < towns[j].Col
		}
		return towns[i].Row < towns[j].Row
	})
	for i := 1; i < len(towns); i++ {
		g.traceRoad(towns[i-1], towns[i])
	}
}

// traceRoad lays road edges along a greedy path between two hexes,
// skirting water. An unreachable target leaves a partial road.
func (g *Generator) traceRoad(from, to hexgrid.Coord) {
	current := from
	visited := map[hexgrid.Coord]bool{from: true}

	maxSteps := g.opts.Width * g.opts.Height
	for step := 0; step < maxSteps && current != to; step++ {
		bestSide := hexgrid.Side(-1)
		bestDist := maxDimension * 4
		for _, s := range hexgrid.Sides {
			nb := hexgrid.Neighbor(current, s)
			h := g.board.HexAt(nb)
			if h == nil || !h.Terrain.Passable() || visited[nb] {
				continue
			}
			if d := hexgrid.Distance(nb, to); d < bestDist {
				bestDist = d
				bestSide = s
			}
		}
		if bestSide < 0 {
			return // boxed in; leave the road unfinished
		}

		next := hexgrid.Neighbor(current, bestSide)
		cur := g.board.HexAt(current)
		nbh := g.board.HexAt(next)
		cur.Roads = cur.Roads.With(bestSide)
		nbh.Roads = nbh.Roads.With(hexgrid.Opposite(bestSide))

		visited[next] = true
		current = next
	}
}

// branchPattern is the force mix applied in order: three infantry to
// one cavalry and one artillery.
var branchPattern = []game.Branch{
	game.BranchInfantry,
	game.BranchInfantry,
	game.BranchCavalry,
	game.BranchInfantry,
	game.BranchArtillery,
}

// placeUnits sets up the starting forces: PlayerOne enters from the
// west edge, PlayerTwo from the east.
func (g *Generator) placeUnits() []*game.Unit {
	west := make([]int, g.opts.Width)
	east := make([]int, g.opts.Width)
	for i := 0; i < g.opts.Width; i++ {
		west[i] = i
		east[i] = g.opts.Width - 1 - i
	}

	units := g.placeSide(game.PlayerOne, west)
	units = append(units, g.placeSide(game.PlayerTwo, east)...)
	return units
}

// placeSide fills one side's units onto passable hexes, preferring
// columns near its own edge and rows near the board's vertical center.
func (g *Generator) placeSide(side game.Side, colOrder []int) []*game.Unit {
	rows := make([]int, g.opts.Height)
	for i := range rows {
		rows[i] = i
	}
	mid := g.opts.Height / 2
	sort.Slice(rows, func(i, j int) bool {
		di, dj := abs(rows[i]-mid), abs(rows[j]-mid)
		if di != dj {
			return di < dj
		}
		return rows[i] < rows[j]
	})

	var units []*game.Unit
	for _, col := range colOrder {
		for _, row := range rows {
			if len(units) == g.opts.UnitsPerSide {
				return units
			}
			c := hexgrid.Coord{Col: col, Row: row}
			if g.taken[c] || !g.board.HexAt(c).Terrain.Passable() {
				continue
			}
			g.taken[c] = true

			n := len(units) + 1
			branch := branchPattern[len(units)%len(branchPattern)]
			units = append(units, game.NewUnit(fmt.Sprintf("p%d-%d", side, n), side, branch, c))
		}
	}
	return units
}

// sortedHexes returns the board's hexes in column-major order so the
// same generation always marshals to identical JSON.
func (g *Generator) sortedHexes() []*game.Hex {
	hexes := make([]*game.Hex, 0, g.opts.Width*g.opts.Height)
	g.eachCoord(func(c hexgrid.Coord) {
		hexes = append(hexes, g.board.HexAt(c))
	})
	return hexes
}

// eachCoord visits every board coordinate in column-major order.
// Generation never ranges over the hex map, so output order stays
// deterministic for a given seed.
func (g *Generator) eachCoord(fn func(hexgrid.Coord)) {
	for col := 0; col < g.opts.Width; col++ {
		for row := 0; row < g.opts.Height; row++ {
			fn(hexgrid.Coord{Col: col, Row: row})
		}
	}
}

var namePrefixes = []string{"Crossing at", "Stand at", "Advance on", "Clash at", "March to", "Raid on"}
var namePlaces = []string{"Eastwick", "Blackford", "Holm Ridge", "Ferris Vale", "Northmoor", "Greywater", "Stonebridge", "Ashdown"}

func (g *Generator) pickName() string {
	if g.opts.Name != "" {
		return g.opts.Name
	}
	return namePrefixes[g.rng.Intn(len(namePrefixes))] + " " + namePlaces[g.rng.Intn(len(namePlaces))]
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package game

import (
	"reflect"
	"testing"

	"hexfront/pkg/hexgrid"
)

// Helper to build a board filled with a single terrain type.
func testBoard(width, height int, terrain Terrain) *Board {
	b := NewBoard(width, height)
	for col := 0; col < width; col++ {
		for row := 0; row < height; row++ {
			b.SetHex(&Hex{Coord: hexgrid.Coord{Col: col, Row: row}, Terrain: terrain})
		}
	}
	return b
}

func at(col, row int) hexgrid.Coord {
	return hexgrid.Coord{Col: col, Row: row}
}

func TestMovementRange_StartNeverIncluded(t *testing.T) {
	b := testBoard(7, 7, TerrainClear)
	start := at(3, 3)

	rng := ComputeMovementRange(b, nil, start, 2, BranchInfantry, PlayerOne)

	if _, ok := rng[start]; ok {
		t.Error("Expected start hex to be absent from the range")
	}
	if len(rng) == 0 {
		t.Error("Expected a non-empty range on an open board")
	}
}

func TestMovementRange_UniformClearCostEqualsDistance(t *testing.T) {
	b := testBoard(9, 9, TerrainClear)
	start := at(4, 4)
	allowance := 3

	rng := ComputeMovementRange(b, nil, start, allowance, BranchInfantry, PlayerOne)

	// On uniform clear terrain every step costs 1, so the minimum cost
	// to any hex is exactly its hex distance from the start.
	for c, cost := range rng {
		if want := hexgrid.Distance(start, c); cost != want {
			t.Errorf("Expected cost %d at %v, got %d", want, c, cost)
		}
	}

	// Every in-bounds hex within the allowance must be present. The
	// radius-3 disc holds 37 hexes; minus the start leaves 36.
	for col := 0; col < 9; col++ {
		for row := 0; row < 9; row++ {
			c := at(col, row)
			if c == start {
				continue
			}
			_, ok := rng[c]
			if d := hexgrid.Distance(start, c); d <= allowance && !ok {
				t.Errorf("Expected %v (distance %d) in range", c, d)
			} else if d > allowance && ok {
				t.Errorf("Expected %v (distance %d) outside range", c, d)
			}
		}
	}
	if len(rng) != 36 {
		t.Errorf("Expected 36 reachable hexes, got %d", len(rng))
	}
}

func TestMovementRange_MountainCostsMore(t *testing.T) {
	target := at(3, 2)

	clear := testBoard(6, 6, TerrainClear)
	rngClear := ComputeMovementRange(clear, nil, at(2, 2), 5, BranchInfantry, PlayerOne)

	hills := testBoard(6, 6, TerrainClear)
	hills.HexAt(target).Terrain = TerrainMountain
	rngHills := ComputeMovementRange(hills, nil, at(2, 2), 5, BranchInfantry, PlayerOne)

	if rngClear[target] != 1 {
		t.Errorf("Expected clear hex to cost 1, got %d", rngClear[target])
	}
	if rngHills[target] != 2 {
		t.Errorf("Expected mountain hex to cost 2, got %d", rngHills[target])
	}
}

func TestMovementRange_RoadOverridesTerrainAndRiver(t *testing.T) {
	b := testBoard(6, 6, TerrainClear)
	start := at(2, 2)

	// (3,2) is the top-right neighbor of (2,2). Give the shared edge a
	// road and a river, both recorded only on the start hex, and make
	// the destination expensive.
	b.HexAt(at(3, 2)).Terrain = TerrainMountain
	sh := b.HexAt(start)
	sh.Roads = sh.Roads.With(hexgrid.SideTopRight)
	sh.Rivers = sh.Rivers.With(hexgrid.SideTopRight)

	for _, branch := range []Branch{BranchInfantry, BranchCavalry, BranchArtillery} {
		rng := ComputeMovementRange(b, nil, start, 5, branch, PlayerOne)
		if rng[at(3, 2)] != 1 {
			t.Errorf("Expected road edge to cost 1 for %s, got %d", branch, rng[at(3, 2)])
		}
	}
}

func TestMovementRange_RoadOnDestinationMaskCounts(t *testing.T) {
	b := testBoard(6, 6, TerrainClear)
	start := at(2, 2)

	// (2,1) is the top neighbor of (2,2); its bottom side faces back.
	// Record the road only on the destination hex.
	dst := b.HexAt(at(2, 1))
	dst.Terrain = TerrainSwamp
	dst.Roads = dst.Roads.With(hexgrid.SideBottom)

	rng := ComputeMovementRange(b, nil, start, 5, BranchInfantry, PlayerOne)
	if rng[at(2, 1)] != 1 {
		t.Errorf("Expected road on destination mask to cost 1, got %d", rng[at(2, 1)])
	}
}

func TestMovementRange_WaterImpassable(t *testing.T) {
	b := testBoard(6, 6, TerrainClear)
	water := []hexgrid.Coord{at(3, 2), at(1, 4), at(4, 4)}
	for _, c := range water {
		b.HexAt(c).Terrain = TerrainWater
	}

	rng := ComputeMovementRange(b, nil, at(2, 2), 20, BranchInfantry, PlayerOne)

	for _, c := range water {
		if _, ok := rng[c]; ok {
			t.Errorf("Expected water hex %v to be unreachable", c)
		}
	}
	// Everything else on the board is reachable around the water.
	want := 6*6 - len(water) - 1
	if len(rng) != want {
		t.Errorf("Expected %d reachable hexes, got %d", want, len(rng))
	}
}

func TestMovementRange_EnemyHexExcludedFriendlyAllowed(t *testing.T) {
	b := testBoard(7, 7, TerrainClear)
	start := at(3, 3)
	units := []*Unit{
		NewUnit("e1", PlayerTwo, BranchInfantry, at(5, 3)),
		NewUnit("f1", PlayerOne, BranchInfantry, at(3, 4)),
	}

	rng := ComputeMovementRange(b, units, start, 4, BranchInfantry, PlayerOne)

	if _, ok := rng[at(5, 3)]; ok {
		t.Error("Expected enemy-occupied hex to be excluded from range")
	}
	if cost, ok := rng[at(3, 4)]; !ok || cost != 1 {
		t.Errorf("Expected friendly-occupied hex at cost 1, got %d (present=%v)", cost, ok)
	}
}

// Corridor board for the zone-of-control tests: a single clear row at
// row 1 surrounded by water, with an enemy standing just north of the
// second corridor hex.
//
//	col:    0      1      2      3
//	row 0: water  ENEMY  water  water
//	row 1: start  corridor ...
//	row 2: water  water  water  water
func zocBoard() (*Board, []*Unit) {
	b := testBoard(6, 3, TerrainWater)
	for col := 0; col <= 3; col++ {
		b.HexAt(at(col, 1)).Terrain = TerrainClear
	}
	b.HexAt(at(1, 0)).Terrain = TerrainClear
	units := []*Unit{NewUnit("e1", PlayerTwo, BranchInfantry, at(1, 0))}
	return b, units
}

func TestMovementRange_MustStopTruncatesExpansion(t *testing.T) {
	b, units := zocBoard()

	rng := ComputeMovementRange(b, units, at(0, 1), 10, BranchInfantry, PlayerOne)

	// (1,1) sits next to the enemy with no river between them, so the
	// unit may enter it but not continue to (2,1) or (3,1).
	if cost, ok := rng[at(1, 1)]; !ok || cost != 1 {
		t.Errorf("Expected adjacent-to-enemy hex at cost 1, got %d (present=%v)", cost, ok)
	}
	if _, ok := rng[at(2, 1)]; ok {
		t.Error("Expected hex beyond the stop hex to be unreachable")
	}
	if _, ok := rng[at(3, 1)]; ok {
		t.Error("Expected far corridor hex to be unreachable")
	}
	if len(rng) != 1 {
		t.Errorf("Expected exactly 1 reachable hex, got %d", len(rng))
	}
}

func TestMovementRange_RiverNeutralizesMustStop(t *testing.T) {
	b, units := zocBoard()

	// A river on the edge between (1,1) and the enemy at (1,0). The
	// enemy sits on (1,1)'s top side.
	h := b.HexAt(at(1, 1))
	h.Rivers = h.Rivers.With(hexgrid.SideTop)

	rng := ComputeMovementRange(b, units, at(0, 1), 10, BranchInfantry, PlayerOne)

	want := MovementRange{at(1, 1): 1, at(2, 1): 2, at(3, 1): 3}
	if !reflect.DeepEqual(rng, want) {
		t.Errorf("Expected range %v, got %v", want, rng)
	}
}

func TestMovementRange_MustStopReadsOwnRiverMask(t *testing.T) {
	b, units := zocBoard()

	// Record the river only on the enemy hex's copy of the edge. The
	// stop rule reads the mask of the hex being stood on, so (1,1)
	// still halts movement.
	eh := b.HexAt(at(1, 0))
	eh.Rivers = eh.Rivers.With(hexgrid.SideBottom)

	rng := ComputeMovementRange(b, units, at(0, 1), 10, BranchInfantry, PlayerOne)

	if _, ok := rng[at(2, 1)]; ok {
		t.Error("Expected expansion to halt when only the enemy hex records the river")
	}
	if len(rng) != 1 {
		t.Errorf("Expected exactly 1 reachable hex, got %d", len(rng))
	}
}

func TestMovementRange_FairnessGrantsOneHexInSwamp(t *testing.T) {
	b := testBoard(5, 5, TerrainSwamp)
	start := at(2, 2)

	rng := ComputeMovementRange(b, nil, start, 1, BranchInfantry, PlayerOne)

	// Every neighbor costs 3, beyond the allowance of 1, so the solver
	// grants the first neighbor in side order: top, at (2,1).
	want := MovementRange{at(2, 1): 3}
	if !reflect.DeepEqual(rng, want) {
		t.Errorf("Expected fairness range %v, got %v", want, rng)
	}
}

func TestMovementRange_FairnessSkipsBlockedSides(t *testing.T) {
	b := testBoard(5, 5, TerrainSwamp)
	start := at(2, 2)

	// Block the top neighbor with water and the top-right with an
	// enemy; the fallback should land on the bottom-right neighbor.
	b.HexAt(at(2, 1)).Terrain = TerrainWater
	units := []*Unit{NewUnit("e1", PlayerTwo, BranchInfantry, at(3, 2))}

	rng := ComputeMovementRange(b, units, start, 1, BranchInfantry, PlayerOne)

	want := MovementRange{at(3, 3): 3}
	if !reflect.DeepEqual(rng, want) {
		t.Errorf("Expected fairness range %v, got %v", want, rng)
	}
}

func TestMovementRange_PinnedUnitStillEscapes(t *testing.T) {
	b := testBoard(5, 5, TerrainClear)
	start := at(2, 2)
	// Enemy on the start's top-right neighbor pins the unit in place:
	// the start itself is a must-stop node and expands nothing.
	units := []*Unit{NewUnit("e1", PlayerTwo, BranchInfantry, at(3, 2))}

	rng := ComputeMovementRange(b, units, start, 3, BranchInfantry, PlayerOne)

	want := MovementRange{at(2, 1): 1}
	if !reflect.DeepEqual(rng, want) {
		t.Errorf("Expected pinned unit to disengage to one hex %v, got %v", want, rng)
	}
}

// riverCorridor builds a board where the only passable hexes are
// (0,1) and its top-right neighbor (1,1), so the edge between them
// cannot be routed around.
func riverCorridor() *Board {
	b := testBoard(3, 3, TerrainWater)
	b.HexAt(at(0, 1)).Terrain = TerrainClear
	b.HexAt(at(1, 1)).Terrain = TerrainClear
	return b
}

func TestMovementRange_ArtilleryPaysDoubleRiverSurcharge(t *testing.T) {
	b := riverCorridor()
	start := at(0, 1)
	sh := b.HexAt(start)
	sh.Rivers = sh.Rivers.With(hexgrid.SideTopRight)

	cases := []struct {
		branch Branch
		want   int
	}{
		{BranchInfantry, 2},
		{BranchCavalry, 2},
		{BranchArtillery, 3},
	}
	for _, tc := range cases {
		rng := ComputeMovementRange(b, nil, start, 5, tc.branch, PlayerOne)
		if got := rng[at(1, 1)]; got != tc.want {
			t.Errorf("Expected %s river crossing to cost %d, got %d", tc.branch, tc.want, got)
		}
	}
}

func TestMovementRange_RiverOnDestinationMaskCounts(t *testing.T) {
	b := riverCorridor()
	start := at(0, 1)

	// River recorded only on the destination's copy of the edge, the
	// side facing back toward the start.
	dst := b.HexAt(at(1, 1))
	dst.Rivers = dst.Rivers.With(hexgrid.SideBottomLeft)

	rng := ComputeMovementRange(b, nil, start, 5, BranchInfantry, PlayerOne)
	if rng[at(1, 1)] != 2 {
		t.Errorf("Expected river on destination mask to cost 2, got %d", rng[at(1, 1)])
	}
}

func TestMovementRange_ZeroAllowanceIsEmpty(t *testing.T) {
	b := testBoard(5, 5, TerrainClear)

	rng := ComputeMovementRange(b, nil, at(2, 2), 0, BranchInfantry, PlayerOne)

	if len(rng) != 0 {
		t.Errorf("Expected empty range with zero allowance, got %v", rng)
	}
}

func TestMovementRange_MissingHexNotEntered(t *testing.T) {
	b := testBoard(5, 5, TerrainClear)
	delete(b.Hexes, at(2, 1))

	rng := ComputeMovementRange(b, nil, at(2, 2), 2, BranchInfantry, PlayerOne)

	if _, ok := rng[at(2, 1)]; ok {
		t.Error("Expected hex missing from the board to be unreachable")
	}
}

func TestMovementRange_Deterministic(t *testing.T) {
	b := testBoard(8, 8, TerrainClear)
	b.HexAt(at(3, 3)).Terrain = TerrainForest
	b.HexAt(at(4, 2)).Terrain = TerrainMountain
	b.HexAt(at(2, 4)).Terrain = TerrainWater
	b.HexAt(at(5, 5)).Terrain = TerrainSwamp
	h := b.HexAt(at(4, 4))
	h.Rivers = h.Rivers.With(hexgrid.SideTop).With(hexgrid.SideBottom)
	units := []*Unit{
		NewUnit("e1", PlayerTwo, BranchInfantry, at(6, 3)),
		NewUnit("f1", PlayerOne, BranchCavalry, at(3, 5)),
	}

	first := ComputeMovementRange(b, units, at(4, 4), 6, BranchCavalry, PlayerOne)
	for i := 0; i < 10; i++ {
		again := ComputeMovementRange(b, units, at(4, 4), 6, BranchCavalry, PlayerOne)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Expected identical results across runs, got %v then %v", first, again)
		}
	}
}

func TestEntryCost_Table(t *testing.T) {
	mk := func(terrain Terrain, rivers, roads EdgeMask) *Hex {
		return &Hex{Terrain: terrain, Rivers: rivers, Roads: roads}
	}

	cases := []struct {
		name      string
		dst       *Hex
		entrySide hexgrid.Side
		src       *Hex
		exitSide  hexgrid.Side
		branch    Branch
		want      int
		passable  bool
	}{
		{"clear", mk(TerrainClear, 0, 0), hexgrid.SideBottom, nil, 0, BranchInfantry, 1, true},
		{"town", mk(TerrainTown, 0, 0), hexgrid.SideBottom, nil, 0, BranchInfantry, 1, true},
		{"forest", mk(TerrainForest, 0, 0), hexgrid.SideBottom, nil, 0, BranchInfantry, 2, true},
		{"desert", mk(TerrainDesert, 0, 0), hexgrid.SideBottom, nil, 0, BranchInfantry, 3, true},
		{"water", mk(TerrainWater, 0, 0), hexgrid.SideBottom, nil, 0, BranchInfantry, 0, false},
		{"river infantry", mk(TerrainClear, EdgeMask(0).With(hexgrid.SideBottom), 0), hexgrid.SideBottom, nil, 0, BranchInfantry, 2, true},
		{"river artillery", mk(TerrainClear, EdgeMask(0).With(hexgrid.SideBottom), 0), hexgrid.SideBottom, nil, 0, BranchArtillery, 3, true},
		{"road beats swamp", mk(TerrainSwamp, 0, EdgeMask(0).With(hexgrid.SideBottom)), hexgrid.SideBottom, nil, 0, BranchInfantry, 1, true},
		{"road beats river", mk(TerrainClear, EdgeMask(0).With(hexgrid.SideBottom), EdgeMask(0).With(hexgrid.SideBottom)), hexgrid.SideBottom, nil, 0, BranchArtillery, 1, true},
		{"river on wrong side ignored", mk(TerrainClear, EdgeMask(0).With(hexgrid.SideTop), 0), hexgrid.SideBottom, nil, 0, BranchInfantry, 1, true},
	}

	for _, tc := range cases {
		got, ok := entryCost(tc.dst, tc.entrySide, tc.src, tc.exitSide, tc.branch)
		if ok != tc.passable {
			t.Errorf("%s: expected passable=%v, got %v", tc.name, tc.passable, ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("%s: expected cost %d, got %d", tc.name, tc.want, got)
		}
	}
}
